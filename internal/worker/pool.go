// Package worker runs one rate-limited consumer pool per delivery queue.
// Each pool pulls jobs from its queue, invokes the channel's sender once per
// job, and reports the terminal outcome on the shared event stream. Failed
// deliveries are never retried by the pipeline.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"

	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/events"
	"github.com/huynhq/edustore-be/internal/queue"
)

// Consumer is the queue side the pool reads from
type Consumer interface {
	Consume(queueName, consumerTag string, prefetchCount int) (<-chan amqp.Delivery, error)
}

// RateLimit caps job starts per rolling window. The pool never starts more
// than MaxJobs executions inside any Window; this is backpressure protecting
// rate-limited downstream gateways from bursty enqueue patterns.
type RateLimit struct {
	MaxJobs int
	Window  time.Duration
}

// Config holds pool configuration for one queue
type Config struct {
	QueueName     string
	Sender        delivery.Sender
	Limit         RateLimit
	PrefetchCount int
	Events        chan<- events.Event
	Logger        *slog.Logger
}

// Pool is the single consumer attached to one queue
type Pool struct {
	queueName     string
	consumer      Consumer
	sender        delivery.Sender
	limiter       *rate.Limiter
	prefetchCount int
	events        chan<- events.Event
	logger        *slog.Logger
}

// NewPool creates a worker pool for one queue
func NewPool(consumer Consumer, cfg *Config) *Pool {
	maxJobs := cfg.Limit.MaxJobs
	if maxJobs <= 0 {
		maxJobs = 1
	}

	// Tokens are spread evenly across the window with burst 1, so job starts
	// are spaced at least Window/MaxJobs apart.
	interval := cfg.Limit.Window / time.Duration(maxJobs)
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Pool{
		queueName:     cfg.QueueName,
		consumer:      consumer,
		sender:        cfg.Sender,
		limiter:       limiter,
		prefetchCount: prefetch,
		events:        cfg.Events,
		logger:        cfg.Logger,
	}
}

// Start consumes and processes jobs until the context is canceled or the
// delivery stream closes. Blocks; run it in its own goroutine.
func (p *Pool) Start(ctx context.Context) error {
	consumerTag := fmt.Sprintf("%s-worker", strings.ToLower(p.queueName))

	deliveries, err := p.consumer.Consume(p.queueName, consumerTag, p.prefetchCount)
	if err != nil {
		return fmt.Errorf("failed to start consumer for %q: %w", p.queueName, err)
	}

	p.logger.Info("Worker pool started",
		slog.String("queue", p.queueName),
		slog.Int("rate_max_jobs", p.limiter.Burst()),
		slog.String("consumer_tag", consumerTag),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Worker pool stopping - context canceled",
				slog.String("queue", p.queueName),
			)
			return nil

		case d, ok := <-deliveries:
			if !ok {
				p.logger.Warn("Worker pool stopping - delivery channel closed",
					slog.String("queue", p.queueName),
				)
				return nil
			}

			if err := p.limiter.Wait(ctx); err != nil {
				// Shutdown while throttled: the job was never attempted, so
				// hand it back to the queue.
				if nackErr := d.Nack(false, true); nackErr != nil {
					p.logger.Error("Failed to NACK message on shutdown",
						slog.String("queue", p.queueName),
						slog.Any("error", nackErr),
					)
				}
				return nil
			}

			p.handle(ctx, d)
		}
	}
}

// handle runs exactly one delivery attempt and settles the message
func (p *Pool) handle(ctx context.Context, d amqp.Delivery) {
	var job queue.Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		p.logger.Error("Failed to parse job envelope",
			slog.String("queue", p.queueName),
			slog.String("body", string(d.Body)),
			slog.Any("error", err),
		)
		// Malformed envelopes are dropped without requeue
		if nackErr := d.Nack(false, false); nackErr != nil {
			p.logger.Error("Failed to NACK malformed message",
				slog.Any("error", nackErr),
			)
		}
		return
	}

	job.Attempts++

	p.logger.Debug("Worker received job",
		slog.String("job_id", job.ID),
		slog.String("queue", p.queueName),
		slog.Int("attempt", job.Attempts),
	)

	err := p.sender.Send(ctx, job.Payload)
	if err != nil {
		p.failed(ctx, d, job, err)
		return
	}

	p.completed(ctx, d, job)
}

// completed settles a successful attempt. The broker has no retention for
// acked messages, so removeOnComplete=false only keeps the outcome in the
// event log.
func (p *Pool) completed(ctx context.Context, d amqp.Delivery, job queue.Job) {
	p.emit(ctx, events.Event{
		Type:       events.TypeCompleted,
		JobID:      job.ID,
		Queue:      p.queueName,
		Title:      job.Payload.Title,
		OccurredAt: time.Now().UTC(),
	})

	if err := d.Ack(false); err != nil {
		p.logger.Error("Failed to ACK message",
			slog.String("job_id", job.ID),
			slog.String("queue", p.queueName),
			slog.Any("error", err),
		)
	}
}

// failed settles a failed attempt. No automatic retry: removeOnFail purges
// the job, otherwise it is parked without requeue (dead-letter when the
// queue has a DLX) for manual inspection.
func (p *Pool) failed(ctx context.Context, d amqp.Delivery, job queue.Job, sendErr error) {
	p.logger.Error("Job delivery failed",
		slog.String("job_id", job.ID),
		slog.String("queue", p.queueName),
		slog.Int("attempt", job.Attempts),
		slog.Any("error", sendErr),
	)

	p.emit(ctx, events.Event{
		Type:       events.TypeFailed,
		JobID:      job.ID,
		Queue:      p.queueName,
		Title:      job.Payload.Title,
		Err:        sendErr,
		OccurredAt: time.Now().UTC(),
	})

	if job.RemoveOnFail {
		if err := d.Ack(false); err != nil {
			p.logger.Error("Failed to purge failed job",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
		}
		return
	}

	if err := d.Nack(false, false); err != nil {
		p.logger.Error("Failed to park failed job",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
	}
}

func (p *Pool) emit(ctx context.Context, ev events.Event) {
	if p.events == nil {
		return
	}

	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}
