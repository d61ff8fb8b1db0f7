package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

func TestObserveRecordsOperations(t *testing.T) {
	m := metrics.New("postgres_test")
	i := instrumented{m: m}

	var noErr error
	i.observe(time.Now(), "doctor_get", &noErr)
	i.observe(time.Now(), "doctor_get", &noErr)

	failed := errors.New("connection reset")
	i.observe(time.Now(), "doctor_get", &failed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("doctor_get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("doctor_get", "error")))
}

func TestObserveWithoutMetrics(t *testing.T) {
	var i instrumented

	assert.NotPanics(t, func() {
		i.observe(time.Now(), "doctor_get", nil)
	})
}
