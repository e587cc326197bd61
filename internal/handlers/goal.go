package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/pkg/response"
	"gorm.io/gorm"
)

type GoalHandler struct {
	goals      *services.GoalService
	workspaces *services.WorkspaceService
}

func NewGoalHandler(goals *services.GoalService, workspaces *services.WorkspaceService) *GoalHandler {
	return &GoalHandler{goals: goals, workspaces: workspaces}
}

// requireGoalRole loads the goal and checks the caller's workspace role.
func (h *GoalHandler) requireGoalRole(c *gin.Context, required string) (*models.Goal, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid goal id")
		return nil, false
	}

	goal, err := h.goals.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "goal not found")
		return nil, false
	}

	if !h.workspaces.HasPermission(goal.WorkspaceID, middleware.GetUserID(c), required) {
		response.Forbidden(c, "access denied, "+required+" role required")
		return nil, false
	}
	return goal, true
}

// Create creates a goal in a workspace
// POST /api/goals
func (h *GoalHandler) Create(c *gin.Context) {
	var req services.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.workspaces.GetByID(req.WorkspaceID); err != nil {
		response.NotFound(c, "workspace not found")
		return
	}
	userID := middleware.GetUserID(c)
	if !h.workspaces.HasPermission(req.WorkspaceID, userID, models.RoleMember) {
		response.Forbidden(c, "access denied, member role required")
		return
	}

	goal, err := h.goals.Create(&req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// List returns a workspace's goals
// GET /api/goals?workspaceId=N
func (h *GoalHandler) List(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Query("workspaceId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "workspaceId is required")
		return
	}

	if _, err := h.workspaces.GetByID(uint(workspaceID)); err != nil {
		response.NotFound(c, "workspace not found")
		return
	}
	if !h.workspaces.HasPermission(uint(workspaceID), middleware.GetUserID(c), models.RoleViewer) {
		response.Forbidden(c, "access denied, viewer role required")
		return
	}

	goals, err := h.goals.ListByWorkspace(uint(workspaceID), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, goals)
}

// Get returns one goal with contributors and history
// GET /api/goals/:id
func (h *GoalHandler) Get(c *gin.Context) {
	goal, ok := h.requireGoalRole(c, models.RoleViewer)
	if !ok {
		return
	}

	detail, err := h.goals.GetDetail(goal.ID)
	if err != nil {
		response.NotFound(c, "goal not found")
		return
	}
	response.Success(c, detail)
}

// Update applies a partial update
// PUT /api/goals/:id
func (h *GoalHandler) Update(c *gin.Context) {
	goal, ok := h.requireGoalRole(c, models.RoleMember)
	if !ok {
		return
	}

	var req services.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.goals.Update(goal.ID, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

// Delete soft-deletes a goal
// DELETE /api/goals/:id
func (h *GoalHandler) Delete(c *gin.Context) {
	goal, ok := h.requireGoalRole(c, models.RoleAdmin)
	if !ok {
		return
	}

	if err := h.goals.SoftDelete(goal.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "goal not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "goal deleted", nil)
}

// UpdateProgress sets the goal's current value
// POST /api/goals/:id/progress
func (h *GoalHandler) UpdateProgress(c *gin.Context) {
	goal, ok := h.requireGoalRole(c, models.RoleMember)
	if !ok {
		return
	}

	var req services.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.goals.UpdateProgress(goal.ID, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

type addContributorRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"omitempty,oneof=owner contributor viewer"`
}

// AddContributor links a user to the goal
// POST /api/goals/:id/contributors
func (h *GoalHandler) AddContributor(c *gin.Context) {
	goal, ok := h.requireGoalRole(c, models.RoleMember)
	if !ok {
		return
	}

	var req addContributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contributor, err := h.goals.AddContributor(goal.ID, req.UserID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contributor)
}

// RemoveContributor unlinks a user from the goal
// DELETE /api/goals/:id/contributors/:userId
func (h *GoalHandler) RemoveContributor(c *gin.Context) {
	goal, ok := h.requireGoalRole(c, models.RoleMember)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.goals.RemoveContributor(goal.ID, uint(userID)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "contributor removed", nil)
}

// Stats aggregates a workspace's goal counters
// GET /api/goals/stats?workspaceId=N
func (h *GoalHandler) Stats(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Query("workspaceId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "workspaceId is required")
		return
	}

	if _, err := h.workspaces.GetByID(uint(workspaceID)); err != nil {
		response.NotFound(c, "workspace not found")
		return
	}
	if !h.workspaces.HasPermission(uint(workspaceID), middleware.GetUserID(c), models.RoleViewer) {
		response.Forbidden(c, "access denied, viewer role required")
		return
	}

	stats, err := h.goals.WorkspaceStats(uint(workspaceID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
