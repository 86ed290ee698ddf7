package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MaintenanceDB defines the database operations needed by MaintenanceService
type MaintenanceDB interface {
	// AbortExpiredMaintenance clears the maintenance window when it has
	// lapsed. Atomic conditional update; returns true when a record changed.
	//
	// SQL: UPDATE settings SET maintenance_status = false, maintenance_until = NULL
	//      WHERE maintenance_status = true AND maintenance_until < $now
	AbortExpiredMaintenance(ctx context.Context, now time.Time) (bool, error)
}

// MaintenanceService auto-aborts a maintenance window once its end time has
// passed. Runs every second; cheap and idempotent, so overlapping ticks from
// a slow database are harmless.
type MaintenanceService struct {
	db     MaintenanceDB
	logger *slog.Logger
}

// NewMaintenanceService creates a MaintenanceService
func NewMaintenanceService(db MaintenanceDB, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{
		db:     db,
		logger: logger,
	}
}

// AutoAbort ends the maintenance window if it expired before now. A no-op
// when no window is active or the window is still open.
func (s *MaintenanceService) AutoAbort(ctx context.Context, now time.Time) error {
	aborted, err := s.db.AbortExpiredMaintenance(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to abort expired maintenance: %w", err)
	}

	if aborted {
		s.logger.Info("Maintenance window auto-aborted",
			slog.Time("now", now),
		)
	}

	return nil
}
