package events

import (
	"context"
	"log/slog"
)

// Observer logs worker outcomes from the shared event stream
type Observer struct {
	logger *slog.Logger
}

// NewObserver creates a logging observer
func NewObserver(logger *slog.Logger) *Observer {
	return &Observer{logger: logger}
}

// Run consumes events until the channel closes or the context is canceled
func (o *Observer) Run(ctx context.Context, stream <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Event observer stopped - context canceled")
			return

		case ev, ok := <-stream:
			if !ok {
				o.logger.Info("Event observer stopped - stream closed")
				return
			}

			switch ev.Type {
			case TypeCompleted:
				o.logger.Info("Job completed",
					slog.String("job_id", ev.JobID),
					slog.String("queue", ev.Queue),
					slog.String("title", ev.Title),
				)
			case TypeFailed:
				o.logger.Error("Job failed",
					slog.String("job_id", ev.JobID),
					slog.String("queue", ev.Queue),
					slog.String("title", ev.Title),
					slog.Any("error", ev.Err),
				)
			}
		}
	}
}
