package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

// HandlerFunc processes one decoded lifecycle event.
type HandlerFunc func(messaging.Message)

// Listener consumes lifecycle events from a broker channel and hands each
// decoded message to the handler. Malformed payloads are logged and skipped.
type Listener struct {
	broker  messaging.Broker
	channel string
	handle  HandlerFunc
}

func NewListener(broker messaging.Broker, channel string, handle HandlerFunc) *Listener {
	return &Listener{broker: broker, channel: channel, handle: handle}
}

// Run blocks until the context is cancelled or the subscription closes.
func (l *Listener) Run(ctx context.Context) error {
	msgs, err := l.broker.Subscribe(ctx, l.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", l.channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}

			var msg messaging.Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Warn().Err(err).Str("channel", l.channel).Msg("failed to decode event")
				continue
			}
			l.handle(msg)
		}
	}
}

// LogEvents is the default handler: it writes one log line per event.
func LogEvents(msg messaging.Message) {
	log.Info().Str("event", msg.Type).Interface("payload", msg.Payload).
		Msg("appointment event")
}
