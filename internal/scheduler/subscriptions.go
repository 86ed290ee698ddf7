package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSubscription is a subscription past its renewal date
type ExpiredSubscription struct {
	SubscriptionID string `db:"subscription_id"`
	UserID         string `db:"user_id"`
}

// SubscriptionDB defines the database operations needed by SubscriptionService
type SubscriptionDB interface {
	// ListExpiredSubscriptions returns non-deleted subscriptions whose
	// renewal date is at or before now
	//
	// SQL: SELECT subscription_id, user_id FROM subscriptions
	//      WHERE renewal_date <= $now AND NOT is_deleted
	ListExpiredSubscriptions(ctx context.Context, now time.Time) ([]ExpiredSubscription, error)

	// ClearPremium unsets the premium flag on one user. Conditional: only a
	// currently-premium, non-deleted user is changed. Returns true when the
	// record changed.
	//
	// SQL: UPDATE users SET is_premium = false
	//      WHERE user_id = $1 AND is_premium AND NOT is_deleted
	ClearPremium(ctx context.Context, userID string) (bool, error)
}

// SubscriptionService downgrades users whose subscription lapsed. Per-user
// failures are logged and skipped so one bad record never blocks the rest of
// the batch.
type SubscriptionService struct {
	db     SubscriptionDB
	logger *slog.Logger
}

// NewSubscriptionService creates a SubscriptionService
func NewSubscriptionService(db SubscriptionDB, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		db:     db,
		logger: logger,
	}
}

// ExpirePremium unsets premium on every user owning a lapsed subscription.
// Returns the number of users downgraded.
func (s *SubscriptionService) ExpirePremium(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.db.ListExpiredSubscriptions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}

	downgraded := 0
	for _, sub := range expired {
		changed, err := s.db.ClearPremium(ctx, sub.UserID)
		if err != nil {
			s.logger.Error("Failed to clear premium flag",
				slog.String("user_id", sub.UserID),
				slog.String("subscription_id", sub.SubscriptionID),
				slog.Any("error", err),
			)
			continue
		}

		if changed {
			downgraded++
			s.logger.Info("Premium subscription expired",
				slog.String("user_id", sub.UserID),
				slog.String("subscription_id", sub.SubscriptionID),
			)
		}
	}

	return downgraded, nil
}
