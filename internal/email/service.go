package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
)

// Sender delivers appointment notices. Failures never fail the request
// that triggered them.
type Sender interface {
	SendBookingConfirmation(ctx context.Context, to string, apt *model.Appointment) error
	SendCancellation(ctx context.Context, to string, apt *model.Appointment) error
}

type smtpSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) SendBookingConfirmation(ctx context.Context, to string, apt *model.Appointment) error {
	subject := "Appointment confirmed"
	body := fmt.Sprintf("Your appointment on %s has been booked.",
		apt.StartTime.Format("2006-01-02 15:04"))
	return s.send(to, subject, body)
}

func (s *smtpSender) SendCancellation(ctx context.Context, to string, apt *model.Appointment) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf("Your appointment on %s has been cancelled.",
		apt.StartTime.Format("2006-01-02 15:04"))
	return s.send(to, subject, body)
}

func (s *smtpSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type noopSender struct{}

// NewNoopSender is used when SMTP is disabled.
func NewNoopSender() Sender {
	return noopSender{}
}

func (noopSender) SendBookingConfirmation(context.Context, string, *model.Appointment) error {
	return nil
}

func (noopSender) SendCancellation(context.Context, string, *model.Appointment) error {
	return nil
}
