package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfile updates the caller's name and avatar
// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// GetPreferences returns the caller's preference bag
// GET /api/users/preferences
func (h *UserHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.users.GetPreferences(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, prefs)
}

// UpdatePreferences merges keys into the caller's preference bag
// PUT /api/users/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var prefs map[string]interface{}
	if err := c.ShouldBindJSON(&prefs); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	merged, err := h.users.UpdatePreferences(middleware.GetUserID(c), prefs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, merged)
}

// Search finds users by name or email, for member pickers
// GET /api/users/search?q=term
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if len(query) < 2 {
		response.BadRequest(c, "query must be at least 2 characters")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	users, err := h.users.Search(query, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// Stats summarizes the caller's footprint
// GET /api/users/stats
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.users.Stats(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// List returns a paged admin view of all accounts
// GET /api/admin/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.AdminUserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.users.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive activates or deactivates an account
// PUT /api/admin/users/:id/active
func (h *UserHandler) SetActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if uint(id) == middleware.GetUserID(c) && !*req.Active {
		response.DomainInvariant(c, "cannot deactivate your own account")
		return
	}

	if err := h.users.SetActive(uint(id), *req.Active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "user updated", nil)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin user"`
}

// SetRole changes an account's system role
// PUT /api/admin/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.users.SetRole(uint(id), req.Role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "user role updated", nil)
}
