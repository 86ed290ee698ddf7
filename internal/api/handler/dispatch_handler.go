package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huynhq/edustore-be/internal/api/dto"
	"github.com/huynhq/edustore-be/internal/delivery"
	"github.com/huynhq/edustore-be/internal/queue"
)

// DispatchEmail handles POST /api/v1/dispatch/email
// Enqueues an email delivery job
func (h *DispatchHandler) DispatchEmail(c *gin.Context) {
	h.dispatch(c, h.dispatcher.DispatchEmail)
}

// DispatchMessage handles POST /api/v1/dispatch/message
// Enqueues an SMS delivery job
func (h *DispatchHandler) DispatchMessage(c *gin.Context) {
	h.dispatch(c, h.dispatcher.DispatchMessage)
}

// DispatchNotification handles POST /api/v1/dispatch/notification
// Enqueues a push notification delivery job
func (h *DispatchHandler) DispatchNotification(c *gin.Context) {
	h.dispatch(c, h.dispatcher.DispatchNotification)
}

// dispatch binds the request, enqueues via the given channel and returns the
// job handle. Responds 202: the job is accepted, not yet delivered.
func (h *DispatchHandler) dispatch(c *gin.Context, dispatchFn func(context.Context, delivery.Payload) (*queue.JobHandle, error)) {
	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	handle, err := dispatchFn(c.Request.Context(), delivery.Payload{
		To:    req.To,
		Title: req.Title,
		Data:  req.Data,
	})
	if err != nil {
		h.logger.Error("Failed to dispatch job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to dispatch job",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.DispatchResponse{
		JobID:      handle.ID,
		Queue:      handle.Queue,
		EnqueuedAt: handle.EnqueuedAt.Format(time.RFC3339),
	})
}
