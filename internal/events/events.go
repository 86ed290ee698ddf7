// Package events carries worker pool outcomes to observers. The pipeline is
// fire-and-forget toward end users; the event stream is where completions and
// failures become visible.
package events

import "time"

// Type is the terminal outcome of one job attempt
type Type string

const (
	TypeCompleted Type = "completed"
	TypeFailed    Type = "failed"
)

// Event is emitted by a worker pool after each job attempt reaches a
// terminal state. Err is set only for failures.
type Event struct {
	Type       Type
	JobID      string
	Queue      string
	Title      string
	Err        error
	OccurredAt time.Time
}
