package queue

import (
	"time"

	"github.com/huynhq/edustore-be/internal/delivery"
)

// Registered queue names, one per delivery channel
const (
	QueueEmail        = "Email"
	QueueMessage      = "Message"
	QueueNotification = "Notification"
)

// Names returns the registered queue names
func Names() []string {
	return []string{QueueEmail, QueueMessage, QueueNotification}
}

// Job is the envelope published to a queue. It is owned by the queue for its
// queued lifetime; a worker takes it over for exactly one attempt.
type Job struct {
	ID               string           `json:"id"`
	Queue            string           `json:"queue"`
	Payload          delivery.Payload `json:"payload"`
	EnqueuedAt       time.Time        `json:"enqueued_at"`
	Attempts         int              `json:"attempts"`
	MaxAttempts      int              `json:"max_attempts"`
	RemoveOnComplete bool             `json:"remove_on_complete"`
	RemoveOnFail     bool             `json:"remove_on_fail"`
}

// Options are the per-job removal flags callers choose at enqueue time
type Options struct {
	RemoveOnComplete bool
	RemoveOnFail     bool
}

// JobHandle is returned to the producer after a successful enqueue
type JobHandle struct {
	ID         string
	Queue      string
	EnqueuedAt time.Time
}
