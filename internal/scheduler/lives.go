package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/huynhq/edustore-be/internal/delivery"
)

const (
	// refillAfterMinutes is how long an activity stays at zero lives before
	// the refill scan restores it
	refillAfterMinutes = 120

	// livesFull is the refill value
	livesFull = 3
)

// DrainedActivity is an activity record with zero lives
type DrainedActivity struct {
	UserID         string    `db:"user_id"`
	LivesUpdatedOn time.Time `db:"lives_updated_on"`
}

// LivesDB defines the database operations needed by LivesService
type LivesDB interface {
	// ListDrainedActivities returns non-deleted activities with lives at zero
	//
	// SQL: SELECT user_id, lives_updated_on FROM activities
	//      WHERE lives_value = 0 AND NOT is_deleted
	ListDrainedActivities(ctx context.Context) ([]DrainedActivity, error)

	// RefillLives resets lives on one activity. Conditional on the activity
	// still being drained, so a racing refill is a no-op. Returns true when
	// the record changed.
	//
	// SQL: UPDATE activities SET lives_value = $lives, lives_updated_on = $now
	//      WHERE user_id = $1 AND lives_value = 0 AND NOT is_deleted
	RefillLives(ctx context.Context, userID string, lives int, now time.Time) (bool, error)
}

// LivesService refills drained activities after the cooldown and notifies
// the owning user. Records are processed independently; no ordering is
// guaranteed across them.
type LivesService struct {
	db       LivesDB
	notifier Notifier
	logger   *slog.Logger
}

// NewLivesService creates a LivesService
func NewLivesService(db LivesDB, notifier Notifier, logger *slog.Logger) *LivesService {
	return &LivesService{
		db:       db,
		notifier: notifier,
		logger:   logger,
	}
}

// Refill restores lives on every activity drained for at least two hours,
// measured in whole minutes, and dispatches one notification per refilled
// user. Returns the number of activities refilled.
func (s *LivesService) Refill(ctx context.Context, now time.Time) (int, error) {
	activities, err := s.db.ListDrainedActivities(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list drained activities: %w", err)
	}

	refilled := 0
	for _, activity := range activities {
		minutes := int(now.Sub(activity.LivesUpdatedOn).Minutes())
		if minutes < refillAfterMinutes {
			continue
		}

		changed, err := s.db.RefillLives(ctx, activity.UserID, livesFull, now)
		if err != nil {
			s.logger.Error("Failed to refill lives",
				slog.String("user_id", activity.UserID),
				slog.Any("error", err),
			)
			continue
		}
		if !changed {
			continue
		}

		refilled++

		// Enqueue failure does not roll back the refill
		if _, err := s.notifier.DispatchNotification(ctx, delivery.Payload{
			To:    activity.UserID,
			Title: titleLifeRefilled,
			Data: map[string]any{
				"lives": livesFull,
			},
		}); err != nil {
			s.logger.Error("Failed to dispatch life refill notification",
				slog.String("user_id", activity.UserID),
				slog.Any("error", err),
			)
		}
	}

	if refilled > 0 {
		s.logger.Info("Lives refilled",
			slog.Int("count", refilled),
		)
	}

	return refilled, nil
}
