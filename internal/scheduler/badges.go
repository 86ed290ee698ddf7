package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SkillCompletion is one (skill, user) pair with quiz completion counts. A
// quiz counts as completed when the user answered every question in it.
type SkillCompletion struct {
	SkillID          string `db:"skill_id"`
	UserID           string `db:"user_id"`
	QuizzesCompleted int    `db:"quizzes_completed"`
	TotalQuizzes     int    `db:"total_quizzes"`
}

// CategorySkills is a category and its full (non-deleted) skill set
type CategorySkills struct {
	CategoryID string
	SkillIDs   []string
}

// UserSkillBadge is one earned skill badge
type UserSkillBadge struct {
	UserID  string `db:"user_id"`
	SkillID string `db:"skill_id"`
}

// UserCategoryBadge is one earned category badge
type UserCategoryBadge struct {
	UserID     string `db:"user_id"`
	CategoryID string `db:"category_id"`
}

// BadgeDB defines the database operations needed by BadgeService
type BadgeDB interface {
	// ListSkillCompletions returns per-(skill, user) completed-quiz counts
	// alongside the skill's total quiz count, over non-deleted activities,
	// quizzes and skills. A quiz counts as completed when some attempt
	// answered every question in it; repeated attempts at one quiz count it
	// once.
	//
	// SQL: COUNT(DISTINCT a.quiz_id)
	//        FILTER (WHERE a.answered_count = q.question_count)
	//      against (SELECT COUNT(*) FROM quizzes
	//               WHERE skill_id = q.skill_id AND NOT is_deleted)
	ListSkillCompletions(ctx context.Context) ([]SkillCompletion, error)

	// InsertSkillBadge adds a skill badge with set semantics: inserting an
	// existing (user, skill) pair is a no-op. Returns true when inserted.
	//
	// SQL: INSERT INTO badges (user_id, skill_id, awarded_at)
	//      VALUES ($1, $2, $3) ON CONFLICT (user_id, skill_id) DO NOTHING
	InsertSkillBadge(ctx context.Context, userID, skillID string, now time.Time) (bool, error)

	// ListCategorySkillSets returns every non-deleted category with its
	// skill ids
	ListCategorySkillSets(ctx context.Context) ([]CategorySkills, error)

	// ListUserSkillBadges returns all earned skill badges
	ListUserSkillBadges(ctx context.Context) ([]UserSkillBadge, error)

	// ListUserCategoryBadges returns all earned category badges
	ListUserCategoryBadges(ctx context.Context) ([]UserCategoryBadge, error)

	// InsertCategoryBadge adds a category badge with set semantics, keyed by
	// (user, category). Returns true when inserted.
	InsertCategoryBadge(ctx context.Context, userID, categoryID, badgeID string, now time.Time) (bool, error)
}

// BadgeService awards skill badges for mastered skills and category badges
// for completed categories. Category evaluation reads only persisted skill
// badges, so a badge landing after the category pass is picked up on the
// next tick.
type BadgeService struct {
	db     BadgeDB
	logger *slog.Logger
}

// NewBadgeService creates a BadgeService
func NewBadgeService(db BadgeDB, logger *slog.Logger) *BadgeService {
	return &BadgeService{
		db:     db,
		logger: logger,
	}
}

// AwardSkillBadges grants a badge for every skill where the user completed
// all of the skill's quizzes. Set semantics: repeated runs never duplicate a
// badge. Returns the number of badges newly awarded.
func (s *BadgeService) AwardSkillBadges(ctx context.Context, now time.Time) (int, error) {
	completions, err := s.db.ListSkillCompletions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list skill completions: %w", err)
	}

	awarded := 0
	for _, c := range completions {
		if c.TotalQuizzes == 0 || c.QuizzesCompleted != c.TotalQuizzes {
			continue
		}

		inserted, err := s.db.InsertSkillBadge(ctx, c.UserID, c.SkillID, now)
		if err != nil {
			s.logger.Error("Failed to insert skill badge",
				slog.String("user_id", c.UserID),
				slog.String("skill_id", c.SkillID),
				slog.Any("error", err),
			)
			continue
		}

		if inserted {
			awarded++
			s.logger.Info("Skill badge awarded",
				slog.String("user_id", c.UserID),
				slog.String("skill_id", c.SkillID),
			)
		}
	}

	return awarded, nil
}

// AwardCategoryBadges grants a category badge to every user whose earned
// skill badges cover the category's full skill set and who does not hold
// that category's badge yet. Returns the number of badges newly awarded.
func (s *BadgeService) AwardCategoryBadges(ctx context.Context, now time.Time) (int, error) {
	categories, err := s.db.ListCategorySkillSets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list category skill sets: %w", err)
	}

	skillBadges, err := s.db.ListUserSkillBadges(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list user skill badges: %w", err)
	}

	categoryBadges, err := s.db.ListUserCategoryBadges(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list user category badges: %w", err)
	}

	badgesByUser := make(map[string]map[string]bool)
	for _, b := range skillBadges {
		if badgesByUser[b.UserID] == nil {
			badgesByUser[b.UserID] = make(map[string]bool)
		}
		badgesByUser[b.UserID][b.SkillID] = true
	}

	held := make(map[string]bool)
	for _, b := range categoryBadges {
		held[b.UserID+"/"+b.CategoryID] = true
	}

	awarded := 0
	for _, category := range categories {
		if len(category.SkillIDs) == 0 {
			continue
		}

		for userID, userSkills := range badgesByUser {
			if held[userID+"/"+category.CategoryID] {
				continue
			}

			if !covers(userSkills, category.SkillIDs) {
				continue
			}

			badgeID := uuid.New().String()
			inserted, err := s.db.InsertCategoryBadge(ctx, userID, category.CategoryID, badgeID, now)
			if err != nil {
				s.logger.Error("Failed to insert category badge",
					slog.String("user_id", userID),
					slog.String("category_id", category.CategoryID),
					slog.Any("error", err),
				)
				continue
			}

			if inserted {
				awarded++
				s.logger.Info("Category badge awarded",
					slog.String("user_id", userID),
					slog.String("category_id", category.CategoryID),
					slog.String("badge_id", badgeID),
				)
			}
		}
	}

	return awarded, nil
}

// covers reports whether earned is a superset of required
func covers(earned map[string]bool, required []string) bool {
	for _, skillID := range required {
		if !earned[skillID] {
			return false
		}
	}
	return true
}
