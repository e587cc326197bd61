package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/pkg/response"
)

type ActivityHandler struct {
	activities *services.ActivityService
	workspaces *services.WorkspaceService
}

func NewActivityHandler(activities *services.ActivityService, workspaces *services.WorkspaceService) *ActivityHandler {
	return &ActivityHandler{activities: activities, workspaces: workspaces}
}

// List returns a page of workspace activity
// GET /api/workspaces/:id/activities
func (h *ActivityHandler) List(c *gin.Context) {
	workspace := middleware.GetWorkspace(c)

	req := services.ActivityListRequest{
		WorkspaceID: workspace.ID,
		EntityType:  c.Query("entity_type"),
	}
	if v := c.Query("types"); v != "" {
		req.Types = strings.Split(v, ",")
	}
	if v := c.Query("userId"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			userID := uint(id)
			req.UserID = &userID
		}
	}
	if v := c.Query("since"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.Since = &t
		}
	}
	if v := c.Query("until"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			until := t.Add(24*time.Hour - time.Second)
			req.Until = &until
		}
	}
	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	page, err := h.activities.FindByWorkspace(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// Stats aggregates workspace activity over a trailing window
// GET /api/workspaces/:id/activities/stats
func (h *ActivityHandler) Stats(c *gin.Context) {
	workspace := middleware.GetWorkspace(c)
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	stats, err := h.activities.Stats(workspace.ID, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// MarkRead upserts a read receipt for the caller
// POST /api/activities/:id/read
func (h *ActivityHandler) MarkRead(c *gin.Context) {
	activityID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}

	if err := h.activities.MarkAsRead(uint(activityID), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "marked as read", nil)
}

// MyActivity returns the caller's own event trail across their workspaces
// GET /api/activities/my
func (h *ActivityHandler) MyActivity(c *gin.Context) {
	userID := middleware.GetUserID(c)

	workspaces, err := h.workspaces.ListForUser(userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	ids := make([]uint, 0, len(workspaces))
	for _, w := range workspaces {
		ids = append(ids, w.ID)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.activities.FindByUser(userID, ids, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
