package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para notificar por correo que una corrida terminó.
type Sender interface {
	SendRunCompleted(ctx context.Context, toEmail, surveyName, runID string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendRunCompleted(_ context.Context, _ string, _ string, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
