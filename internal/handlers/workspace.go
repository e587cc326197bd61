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

type WorkspaceHandler struct {
	workspaces *services.WorkspaceService
	users      *services.UserService
}

func NewWorkspaceHandler(workspaces *services.WorkspaceService, users *services.UserService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, users: users}
}

// Create creates a workspace owned by the caller
// POST /api/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req services.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	workspace, err := h.workspaces.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, workspace)
}

// List returns the caller's workspaces
// GET /api/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	workspaces, err := h.workspaces.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, workspaces)
}

// Get returns one workspace with members
// GET /api/workspaces/:id
func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspace := middleware.GetWorkspace(c)
	detail, err := h.workspaces.GetDetail(workspace.ID)
	if err != nil {
		response.NotFound(c, "workspace not found")
		return
	}
	response.Success(c, detail)
}

// Update applies settings changes
// PUT /api/workspaces/:id
func (h *WorkspaceHandler) Update(c *gin.Context) {
	var req services.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	workspace := middleware.GetWorkspace(c)
	updated, err := h.workspaces.Update(workspace.ID, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

// Delete soft-deletes a workspace
// DELETE /api/workspaces/:id
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	workspace := middleware.GetWorkspace(c)
	if err := h.workspaces.SoftDelete(workspace.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "workspace deleted", nil)
}

// Stats returns aggregate task and member counts
// GET /api/workspaces/:id/stats
func (h *WorkspaceHandler) Stats(c *gin.Context) {
	workspace := middleware.GetWorkspace(c)
	stats, err := h.workspaces.Stats(workspace.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

type addMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin member viewer"`
}

// AddMember invites a user by email
// POST /api/workspaces/:id/members
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		response.NotFound(c, "no user with this email")
		return
	}

	workspace := middleware.GetWorkspace(c)
	inviterID := middleware.GetUserID(c)
	member, err := h.workspaces.AddMember(workspace.ID, user.ID, req.Role, &inviterID)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateMember) {
			response.Conflict(c, err.Error())
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// RemoveMember removes a member. The owner's membership is untouchable
// through this surface.
// DELETE /api/workspaces/:id/members/:userId
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	workspace := middleware.GetWorkspace(c)
	if uint(targetID) == workspace.OwnerID {
		response.DomainInvariant(c, "the workspace owner cannot be removed")
		return
	}

	// Members below admin may still remove themselves (leave)
	callerID := middleware.GetUserID(c)
	if uint(targetID) != callerID {
		if !h.workspaces.HasPermission(workspace.ID, callerID, models.RoleAdmin) {
			response.Forbidden(c, "access denied, admin role required")
			return
		}
	}

	if err := h.workspaces.RemoveMember(workspace.ID, uint(targetID)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "member removed", nil)
}

type updateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member viewer"`
}

// UpdateMemberRole changes a member's role. Granting owner or touching the
// owner's entry is rejected.
// PUT /api/workspaces/:id/members/:userId
func (h *WorkspaceHandler) UpdateMemberRole(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req updateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	workspace := middleware.GetWorkspace(c)
	err = h.workspaces.UpdateMemberRole(workspace.ID, uint(targetID), req.Role, middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOwnerImmutable):
			response.DomainInvariant(c, err.Error())
		case errors.Is(err, services.ErrMemberNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "member not found")
		default:
			response.Error(c, err)
		}
		return
	}
	response.SuccessMessage(c, "member role updated", nil)
}
