package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huynhq/edustore-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "dispatch-api-service",
		})
	})

	// Initialize dispatch handler
	dispatchHandler := handler.NewDispatchHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		dispatch := v1.Group("/dispatch")
		{
			// POST /api/v1/dispatch/email - Enqueue an email job
			dispatch.POST("/email", dispatchHandler.DispatchEmail)

			// POST /api/v1/dispatch/message - Enqueue an SMS job
			dispatch.POST("/message", dispatchHandler.DispatchMessage)

			// POST /api/v1/dispatch/notification - Enqueue a push notification job
			dispatch.POST("/notification", dispatchHandler.DispatchNotification)
		}
	}

	return r
}
