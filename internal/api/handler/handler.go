package handler

import (
	"context"
	"log/slog"

	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/queue"
)

// Dispatcher is the façade the handlers enqueue through
type Dispatcher interface {
	DispatchEmail(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error)
	DispatchMessage(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error)
	DispatchNotification(ctx context.Context, payload delivery.Payload) (*queue.JobHandle, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Dispatcher Dispatcher
}

// DispatchHandler handles job dispatch HTTP requests
type DispatchHandler struct {
	logger     *slog.Logger
	dispatcher Dispatcher
}

// NewDispatchHandler creates a new DispatchHandler instance
func NewDispatchHandler(deps *Dependencies) *DispatchHandler {
	return &DispatchHandler{
		logger:     deps.Logger,
		dispatcher: deps.Dispatcher,
	}
}
