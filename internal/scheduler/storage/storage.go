// Package storage provides the sqlx-backed implementations of the scheduler
// scan interfaces. All mutations are single conditional statements, so
// concurrent scans and request handlers racing on the same row degrade to
// no-ops instead of double-applying.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/huynhq/edustore-be/internal/scheduler"
)

// Storage handles all database operations for the scheduler scans
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var (
	_ scheduler.MaintenanceDB  = (*Storage)(nil)
	_ scheduler.LivesDB        = (*Storage)(nil)
	_ scheduler.BadgeDB        = (*Storage)(nil)
	_ scheduler.SubscriptionDB = (*Storage)(nil)
	_ scheduler.StreakDB       = (*Storage)(nil)
)

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// AbortExpiredMaintenance clears a lapsed maintenance window
func (s *Storage) AbortExpiredMaintenance(ctx context.Context, now time.Time) (bool, error) {
	query := `
		UPDATE settings
		SET maintenance_status = false,
		    maintenance_until = NULL,
		    updated_at = NOW()
		WHERE maintenance_status = true
		  AND maintenance_until < $1
	`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return false, fmt.Errorf("failed to abort expired maintenance: %w", err)
	}

	return changed(result)
}

// ListDrainedActivities returns non-deleted activities with zero lives
func (s *Storage) ListDrainedActivities(ctx context.Context) ([]scheduler.DrainedActivity, error) {
	query := `
		SELECT user_id, lives_updated_on
		FROM activities
		WHERE lives_value = 0
		  AND NOT is_deleted
	`

	var activities []scheduler.DrainedActivity
	if err := s.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("failed to list drained activities: %w", err)
	}

	return activities, nil
}

// RefillLives resets lives on a still-drained activity
func (s *Storage) RefillLives(ctx context.Context, userID string, lives int, now time.Time) (bool, error) {
	query := `
		UPDATE activities
		SET lives_value = $2,
		    lives_updated_on = $3,
		    updated_at = NOW()
		WHERE user_id = $1
		  AND lives_value = 0
		  AND NOT is_deleted
	`

	result, err := s.db.ExecContext(ctx, query, userID, lives, now)
	if err != nil {
		return false, fmt.Errorf("failed to refill lives: %w", err)
	}

	return changed(result)
}

// ListSkillCompletions returns per-(skill, user) completed-quiz counts over
// non-deleted activities, quizzes and skills. A quiz is completed when an
// attempt answered every question in it; the DISTINCT collapses repeated
// attempts at the same quiz to one completion.
func (s *Storage) ListSkillCompletions(ctx context.Context) ([]scheduler.SkillCompletion, error) {
	query := `
		SELECT q.skill_id,
		       a.user_id,
		       COUNT(DISTINCT a.quiz_id) FILTER (WHERE a.answered_count = q.question_count) AS quizzes_completed,
		       (SELECT COUNT(*) FROM quizzes q2
		        WHERE q2.skill_id = q.skill_id AND NOT q2.is_deleted) AS total_quizzes
		FROM quiz_attempts a
		JOIN quizzes q ON q.quiz_id = a.quiz_id AND NOT q.is_deleted
		JOIN skills sk ON sk.skill_id = q.skill_id AND NOT sk.is_deleted
		JOIN activities act ON act.user_id = a.user_id AND NOT act.is_deleted
		GROUP BY q.skill_id, a.user_id
	`

	var completions []scheduler.SkillCompletion
	if err := s.db.SelectContext(ctx, &completions, query); err != nil {
		return nil, fmt.Errorf("failed to list skill completions: %w", err)
	}

	return completions, nil
}

// InsertSkillBadge adds a skill badge; a duplicate insert is a no-op
func (s *Storage) InsertSkillBadge(ctx context.Context, userID, skillID string, now time.Time) (bool, error) {
	query := `
		INSERT INTO badges (user_id, skill_id, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, skill_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, userID, skillID, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert skill badge: %w", err)
	}

	return changed(result)
}

// ListCategorySkillSets returns each category with its non-deleted skills
func (s *Storage) ListCategorySkillSets(ctx context.Context) ([]scheduler.CategorySkills, error) {
	query := `
		SELECT category_id, skill_id
		FROM skills
		WHERE NOT is_deleted
		ORDER BY category_id
	`

	var rows []struct {
		CategoryID string `db:"category_id"`
		SkillID    string `db:"skill_id"`
	}
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list category skills: %w", err)
	}

	grouped := make(map[string][]string)
	var order []string
	for _, row := range rows {
		if _, seen := grouped[row.CategoryID]; !seen {
			order = append(order, row.CategoryID)
		}
		grouped[row.CategoryID] = append(grouped[row.CategoryID], row.SkillID)
	}

	categories := make([]scheduler.CategorySkills, 0, len(order))
	for _, categoryID := range order {
		categories = append(categories, scheduler.CategorySkills{
			CategoryID: categoryID,
			SkillIDs:   grouped[categoryID],
		})
	}

	return categories, nil
}

// ListUserSkillBadges returns all earned skill badges
func (s *Storage) ListUserSkillBadges(ctx context.Context) ([]scheduler.UserSkillBadge, error) {
	var badges []scheduler.UserSkillBadge
	if err := s.db.SelectContext(ctx, &badges, `SELECT user_id, skill_id FROM badges`); err != nil {
		return nil, fmt.Errorf("failed to list user skill badges: %w", err)
	}

	return badges, nil
}

// ListUserCategoryBadges returns all earned category badges
func (s *Storage) ListUserCategoryBadges(ctx context.Context) ([]scheduler.UserCategoryBadge, error) {
	var badges []scheduler.UserCategoryBadge
	if err := s.db.SelectContext(ctx, &badges, `SELECT user_id, category_id FROM category_badges`); err != nil {
		return nil, fmt.Errorf("failed to list user category badges: %w", err)
	}

	return badges, nil
}

// InsertCategoryBadge adds a category badge; a duplicate insert is a no-op
func (s *Storage) InsertCategoryBadge(ctx context.Context, userID, categoryID, badgeID string, now time.Time) (bool, error) {
	query := `
		INSERT INTO category_badges (user_id, category_id, badge_id, awarded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, category_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, userID, categoryID, badgeID, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert category badge: %w", err)
	}

	return changed(result)
}

// ListExpiredSubscriptions returns non-deleted subscriptions due for renewal
func (s *Storage) ListExpiredSubscriptions(ctx context.Context, now time.Time) ([]scheduler.ExpiredSubscription, error) {
	query := `
		SELECT subscription_id, user_id
		FROM subscriptions
		WHERE renewal_date <= $1
		  AND NOT is_deleted
	`

	var subscriptions []scheduler.ExpiredSubscription
	if err := s.db.SelectContext(ctx, &subscriptions, query, now); err != nil {
		return nil, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}

	return subscriptions, nil
}

// ClearPremium unsets the premium flag on a currently-premium user
func (s *Storage) ClearPremium(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE users
		SET is_premium = false,
		    updated_at = NOW()
		WHERE user_id = $1
		  AND is_premium
		  AND NOT is_deleted
	`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to clear premium flag: %w", err)
	}

	return changed(result)
}

// ListStreakOptIns returns ids of users opted in to streak reminders
func (s *Storage) ListStreakOptIns(ctx context.Context) ([]string, error) {
	query := `
		SELECT user_id
		FROM users
		WHERE streak_reminder_opt_in
		  AND NOT is_deleted
	`

	var userIDs []string
	if err := s.db.SelectContext(ctx, &userIDs, query); err != nil {
		return nil, fmt.Errorf("failed to list streak opt-ins: %w", err)
	}

	return userIDs, nil
}

// changed reports whether an exec touched at least one row
func changed(result interface{ RowsAffected() (int64, error) }) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
