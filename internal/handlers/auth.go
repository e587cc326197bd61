package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/pkg/response"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles account creation
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Register(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.Error(c, err)
		return
	}

	h.setAuthCookies(c, result)
	response.Created(c, loginPayload(result))
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	h.setAuthCookies(c, result)
	response.Success(c, loginPayload(result))
}

// Refresh rotates the refresh token and issues a new access token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		response.Unauthorized(c, "refresh token required")
		return
	}

	result, err := h.authService.Refresh(refreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	c.SetCookie("token", result.AccessToken, int(time.Until(result.AccessExpireAt).Seconds()), "/", "", false, true)
	c.SetCookie(refreshCookieName, result.RefreshToken, int(time.Until(result.RefreshExpireAt).Seconds()), "/", "", false, true)

	response.Success(c, gin.H{
		"token":             result.AccessToken,
		"expire_at":         result.AccessExpireAt,
		"refresh_token":     result.RefreshToken,
		"refresh_expire_at": result.RefreshExpireAt,
	})
}

// Logout revokes the presented refresh token and clears cookies
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken := h.extractRefreshToken(c); refreshToken != "" {
		_ = h.authService.RevokeRefreshToken(refreshToken)
	}

	c.SetCookie("token", "", -1, "/", "", false, true)
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)

	response.SuccessMessage(c, "logged out successfully", nil)
}

// Me returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, user)
}

// ChangePassword updates the caller's password
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ChangePassword(middleware.GetUserID(c), &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.SuccessMessage(c, "password changed", nil)
}

// GetAuthConfig returns authentication configuration
// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"ldap_enabled": h.authService.IsLDAPEnabled(),
	})
}

// CreateAdminIfNotExists creates the default admin user on startup.
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, result *services.LoginResult) {
	c.SetCookie("token", result.AccessToken, int(time.Until(result.AccessExpireAt).Seconds()), "/", "", false, true)
	c.SetCookie(refreshCookieName, result.RefreshToken, int(time.Until(result.RefreshExpireAt).Seconds()), "/", "", false, true)
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken
	}
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		return cookie
	}
	return ""
}

func loginPayload(result *services.LoginResult) gin.H {
	return gin.H{
		"token":             result.AccessToken,
		"expire_at":         result.AccessExpireAt,
		"refresh_token":     result.RefreshToken,
		"refresh_expire_at": result.RefreshExpireAt,
		"user":              result.User,
	}
}
