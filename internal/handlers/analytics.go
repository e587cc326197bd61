package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/pkg/response"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview aggregates a workspace's task flow over a date window
// GET /api/workspaces/:id/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	var req services.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	workspace := middleware.GetWorkspace(c)
	overview, err := h.analytics.Overview(workspace.ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, overview)
}

// Productivity breaks down per-member output
// GET /api/workspaces/:id/analytics/productivity
func (h *AnalyticsHandler) Productivity(c *gin.Context) {
	var req services.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	workspace := middleware.GetWorkspace(c)
	rows, err := h.analytics.Productivity(workspace.ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}
