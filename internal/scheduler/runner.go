package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds the cron cadences for the scan jobs. Expressions use
// seconds-precision cron (six fields).
type Config struct {
	MaintenanceCron       string
	ScanCron              string
	StreakCron            string
	StreakReminderEnabled bool
}

// Services bundles the scan services the Runner drives
type Services struct {
	Maintenance   *MaintenanceService
	Lives         *LivesService
	Badges        *BadgeService
	Subscriptions *SubscriptionService
	Streak        *StreakService
}

// Runner owns the cron driver. A scan's failure is logged and never
// deregisters its trigger; the next tick starts fresh from persisted state.
type Runner struct {
	cron     *cron.Cron
	config   Config
	services Services
	logger   *slog.Logger
}

// NewRunner creates a Runner with a seconds-aware cron driver
func NewRunner(config Config, services Services, logger *slog.Logger) *Runner {
	return &Runner{
		cron:     cron.New(cron.WithSeconds()),
		config:   config,
		services: services,
		logger:   logger,
	}
}

// Start registers the scan jobs and starts the cron driver
func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc(r.config.MaintenanceCron, r.runMaintenance); err != nil {
		return fmt.Errorf("failed to register maintenance scan: %w", err)
	}

	if _, err := r.cron.AddFunc(r.config.ScanCron, r.runScanBatch); err != nil {
		return fmt.Errorf("failed to register scan batch: %w", err)
	}

	if r.config.StreakReminderEnabled {
		if _, err := r.cron.AddFunc(r.config.StreakCron, r.runStreak); err != nil {
			return fmt.Errorf("failed to register streak reminder: %w", err)
		}
	}

	r.cron.Start()

	r.logger.Info("Scheduler started",
		slog.String("maintenance_cron", r.config.MaintenanceCron),
		slog.String("scan_cron", r.config.ScanCron),
		slog.Bool("streak_reminder_enabled", r.config.StreakReminderEnabled),
	)

	return nil
}

// Stop halts the cron driver and waits for in-flight scans up to the
// context deadline
func (r *Runner) Stop(ctx context.Context) error {
	stopCtx := r.cron.Stop()

	select {
	case <-stopCtx.Done():
		r.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Scheduler stop timed out with scans in flight")
		return ctx.Err()
	}
}

func (r *Runner) runMaintenance() {
	ctx := context.Background()

	if err := r.services.Maintenance.AutoAbort(ctx, time.Now().UTC()); err != nil {
		r.logger.Error("Maintenance scan failed",
			slog.Any("error", err),
		)
	}
}

// runScanBatch runs the minute scans sequentially inside one tick. Skill
// badges run before category badges so a badge that completes a category is
// counted in the same tick.
func (r *Runner) runScanBatch() {
	ctx := context.Background()
	now := time.Now().UTC()

	r.runScan("life_refill", func() error {
		_, err := r.services.Lives.Refill(ctx, now)
		return err
	})

	r.runScan("skill_badges", func() error {
		_, err := r.services.Badges.AwardSkillBadges(ctx, now)
		return err
	})

	r.runScan("subscription_expiry", func() error {
		_, err := r.services.Subscriptions.ExpirePremium(ctx, now)
		return err
	})

	r.runScan("category_badges", func() error {
		_, err := r.services.Badges.AwardCategoryBadges(ctx, now)
		return err
	})
}

func (r *Runner) runStreak() {
	ctx := context.Background()

	r.runScan("streak_reminder", func() error {
		_, err := r.services.Streak.RemindPending(ctx, time.Now().UTC())
		return err
	})
}

// runScan isolates one scan's failure so the rest of the tick proceeds
func (r *Runner) runScan(name string, fn func() error) {
	start := time.Now()

	if err := fn(); err != nil {
		r.logger.Error("Scan failed",
			slog.String("scan", name),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return
	}

	r.logger.Debug("Scan completed",
		slog.String("scan", name),
		slog.Duration("elapsed", time.Since(start)),
	)
}
