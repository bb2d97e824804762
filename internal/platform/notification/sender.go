package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes outbound email and SMS to the log instead of a
// provider. It is the delivery backend until a gateway is configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "notification").Logger()}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.logger.Info().Str("channel", string(TypeEmail)).Str("to", to).Str("subject", subject).Msg("email queued")
	return nil
}

func (s *LogSender) SendSMS(_ context.Context, to, _ string) error {
	s.logger.Info().Str("channel", string(TypeSMS)).Str("to", to).Msg("sms queued")
	return nil
}
