package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
	logService    *services.SystemLogService
}

func NewSystemConfigHandler(db *gorm.DB) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
		logService:    services.NewSystemLogService(db),
	}
}

// GetEmailConfig returns the mailer settings, password elided
// GET /api/admin/config/email
func (h *SystemConfigHandler) GetEmailConfig(c *gin.Context) {
	response.Success(c, h.configService.GetEmailConfig())
}

// UpdateEmailConfig applies partial mailer settings
// PUT /api/admin/config/email
func (h *SystemConfigHandler) UpdateEmailConfig(c *gin.Context) {
	var req services.UpdateEmailConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.configService.UpdateEmailConfig(&req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.configService.GetEmailConfig())
}

// GetRetention returns the system log retention window
// GET /api/admin/config/retention
func (h *SystemConfigHandler) GetRetention(c *gin.Context) {
	response.Success(c, gin.H{
		"log_retention_days": h.logService.GetRetentionDays(),
	})
}

type updateRetentionRequest struct {
	Days int `json:"days" binding:"required,min=1,max=3650"`
}

// UpdateRetention sets the system log retention window
// PUT /api/admin/config/retention
func (h *SystemConfigHandler) UpdateRetention(c *gin.Context) {
	var req updateRetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.logService.SetRetentionDays(req.Days); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"log_retention_days": req.Days})
}
