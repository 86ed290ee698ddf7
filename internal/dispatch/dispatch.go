// Package dispatch is the thin façade request handlers and the scheduler use
// to enqueue delivery work without knowing queue names or job options.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/queue"
)

// Dispatcher wraps the queue registry with per-channel defaults
type Dispatcher struct {
	enqueuer queue.Enqueuer
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher on top of any Enqueuer
func NewDispatcher(enqueuer queue.Enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// DispatchEmail enqueues an email delivery job
func (d *Dispatcher) DispatchEmail(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error) {
	return d.dispatch(ctx, queue.QueueEmail, payload)
}

// DispatchMessage enqueues an SMS delivery job
func (d *Dispatcher) DispatchMessage(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error) {
	return d.dispatch(ctx, queue.QueueMessage, payload)
}

// DispatchNotification enqueues a push notification delivery job
func (d *Dispatcher) DispatchNotification(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error) {
	return d.dispatch(ctx, queue.QueueNotification, payload)
}

// dispatch applies the façade defaults: terminal jobs are purged whether they
// complete or fail, so the queues never accumulate finished work.
func (d *Dispatcher) dispatch(ctx context.Context, queueName string, payload delivery.Payload) (*queue.JobHandle, error) {
	handle, err := d.enqueuer.Enqueue(ctx, queueName, payload, queue.Options{
		RemoveOnComplete: true,
		RemoveOnFail:     true,
	})
	if err != nil {
		d.logger.Error("Failed to dispatch job",
			slog.String("queue", queueName),
			slog.String("to", payload.To),
			slog.String("title", payload.Title),
			slog.Any("error", err),
		)
		return nil, err
	}

	d.logger.Debug("Job dispatched",
		slog.String("job_id", handle.ID),
		slog.String("queue", queueName),
	)

	return handle, nil
}
