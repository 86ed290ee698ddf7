package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/huynhq/edustore-be/internal/delivery"
)

// StreakDB defines the database operations needed by StreakService
type StreakDB interface {
	// ListStreakOptIns returns ids of non-deleted users who opted in to
	// streak reminders
	ListStreakOptIns(ctx context.Context) ([]string, error)
}

// StreakService dispatches a daily "streak pending" reminder to opted-in
// users. Defined for parity with the other scans but disabled by default;
// the Runner registers it only when the config flag is set.
type StreakService struct {
	db       StreakDB
	notifier Notifier
	logger   *slog.Logger
}

// NewStreakService creates a StreakService
func NewStreakService(db StreakDB, notifier Notifier, logger *slog.Logger) *StreakService {
	return &StreakService{
		db:       db,
		notifier: notifier,
		logger:   logger,
	}
}

// RemindPending dispatches one reminder per opted-in user. Returns the
// number of reminders dispatched.
func (s *StreakService) RemindPending(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := s.db.ListStreakOptIns(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list streak opt-ins: %w", err)
	}

	dispatched := 0
	for _, userID := range userIDs {
		if _, err := s.notifier.DispatchNotification(ctx, delivery.Payload{
			To:    userID,
			Title: titleStreakPending,
		}); err != nil {
			s.logger.Error("Failed to dispatch streak reminder",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
			continue
		}
		dispatched++
	}

	if dispatched > 0 {
		s.logger.Info("Streak reminders dispatched",
			slog.Int("count", dispatched),
		)
	}

	return dispatched, nil
}
