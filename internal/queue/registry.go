// Package queue implements the named, durable, at-least-once work queues the
// dispatch pipeline runs on. One queue per delivery channel; multiple
// producers, exactly one consumer pool per queue.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/shared/rabbitmq"
)

// ErrUnknownQueue is returned when a caller names a queue that is not one of
// the three registered channels
var ErrUnknownQueue = errors.New("unknown queue name")

// Enqueuer is the producer-side contract. The dispatch façade and the
// scheduler depend on this rather than on the broker client.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload delivery.Payload, opts Options) (*JobHandle, error)
}

// Registry owns the process-wide queue instances. Construct it once at
// startup and pass it to every component that enqueues or consumes.
type Registry struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewRegistry declares the three delivery queues and returns a ready registry
func NewRegistry(client *rabbitmq.Client, logger *slog.Logger) (*Registry, error) {
	for _, name := range Names() {
		if err := client.DeclareQueue(name); err != nil {
			return nil, fmt.Errorf("failed to register queue %q: %w", name, err)
		}
	}

	logger.Info("Queue registry initialized",
		slog.Any("queues", Names()),
	)

	return &Registry{
		client: client,
		logger: logger,
	}, nil
}

// Enqueue publishes a job to the named queue. The queue does not deduplicate;
// callers needing idempotency must enforce it at the call site. An enqueue
// failure is surfaced synchronously and never rolls back state the caller
// already mutated.
func (r *Registry) Enqueue(ctx context.Context, queueName string, payload delivery.Payload, opts Options) (*JobHandle, error) {
	if !known(queueName) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queueName)
	}

	job := Job{
		ID:               uuid.New().String(),
		Queue:            queueName,
		Payload:          payload,
		EnqueuedAt:       time.Now().UTC(),
		Attempts:         0,
		MaxAttempts:      1,
		RemoveOnComplete: opts.RemoveOnComplete,
		RemoveOnFail:     opts.RemoveOnFail,
	}

	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := r.client.Publish(ctx, queueName, body, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	r.logger.Debug("Job enqueued",
		slog.String("job_id", job.ID),
		slog.String("queue", queueName),
		slog.String("title", payload.Title),
	)

	return &JobHandle{
		ID:         job.ID,
		Queue:      job.Queue,
		EnqueuedAt: job.EnqueuedAt,
	}, nil
}

// Consume opens the single consumer stream for the named queue
func (r *Registry) Consume(queueName, consumerTag string, prefetchCount int) (<-chan amqp.Delivery, error) {
	if !known(queueName) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queueName)
	}

	return r.client.Consume(queueName, consumerTag, prefetchCount)
}

// Close releases the underlying broker connection. In-flight deliveries drain
// through their consumer channels before the connection drops.
func (r *Registry) Close() error {
	return r.client.Close()
}

func known(queueName string) bool {
	switch queueName {
	case QueueEmail, QueueMessage, QueueNotification:
		return true
	}
	return false
}
