// Package delivery defines the contract between the job pipeline and the
// concrete transports (mail relay, SMS gateway, push gateway). The transports
// themselves live outside this codebase; the pipeline only needs "send a
// rendered payload" semantics.
package delivery

import (
	"context"
	"log/slog"
)

// Payload is the uniform shape every channel consumes. Title names a stored
// message template; Data holds the substitution values the backend renders
// into it. The pipeline preserves this shape end-to-end from enqueue to the
// sender invocation.
type Payload struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Data  map[string]any `json:"data,omitempty"`
}

// Sender delivers one rendered payload. A nil return means the message was
// handed to the downstream gateway; any error is terminal for the attempt.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// LogSender is a stand-in transport that records the payload instead of
// sending it. Used in local environments where no gateway is configured.
type LogSender struct {
	channel string
	logger  *slog.Logger
}

// NewLogSender creates a LogSender for the named channel
func NewLogSender(channel string, logger *slog.Logger) *LogSender {
	return &LogSender{
		channel: channel,
		logger:  logger,
	}
}

// Send logs the payload and reports success
func (s *LogSender) Send(ctx context.Context, payload Payload) error {
	s.logger.Info("Delivery payload sent (log transport)",
		slog.String("channel", s.channel),
		slog.String("to", payload.To),
		slog.String("title", payload.Title),
	)
	return nil
}
