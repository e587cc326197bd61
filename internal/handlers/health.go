package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/internal/services"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	queue := services.GetNotificationQueue()
	queueMode := "sync"
	if queue != nil && queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Undelivered mention notifications
	var pendingMentions int64
	models.GetDB().Model(&models.ActivityMention{}).
		Where("notified = ?", false).
		Count(&pendingMentions)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "taskflow",
		"components": gin.H{
			"database":         dbStatus,
			"queue_mode":       queueMode,
			"pending_mentions": pendingMentions,
		},
	})
}
