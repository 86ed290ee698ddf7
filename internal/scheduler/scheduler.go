// Package scheduler implements the cron-driven scan jobs that read persisted
// state and either mutate it directly or dispatch delivery jobs.
//
// Every scan service takes its database dependency as a narrow interface and
// the reference time as a parameter, so a scan is a pure function of state
// and clock. Scans are idempotent: re-running one against already-updated
// state is a no-op.
//
// The scheduler assumes a single running instance per deployment. Running
// more than one scheduler-service process doubles scan effects; horizontal
// scaling needs a leader-election guard in front of the Runner.
package scheduler

import (
	"context"

	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/queue"
)

// Notifier is the slice of the dispatch façade the scans use. Enqueue
// failures are logged by the scan and never roll back the state mutation
// that preceded them.
type Notifier interface {
	DispatchNotification(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error)
}

// Notification template keys dispatched by the scans
const (
	titleLifeRefilled  = "life_refilled"
	titleStreakPending = "streak_pending"
)
