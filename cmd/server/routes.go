package main

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/handlers"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential endpoints, sized by config
	authLimiter := svc.authLimiter

	perm := svc.permission

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Users
			protected.PUT("/users/profile", svc.userHandler.UpdateProfile)
			protected.GET("/users/preferences", svc.userHandler.GetPreferences)
			protected.PUT("/users/preferences", svc.userHandler.UpdatePreferences)
			protected.GET("/users/search", svc.userHandler.Search)
			protected.GET("/users/stats", svc.userHandler.Stats)

			// Workspaces
			protected.POST("/workspaces", svc.workspaceHandler.Create)
			protected.GET("/workspaces", svc.workspaceHandler.List)
			protected.GET("/workspaces/:id", perm.WorkspaceRole(models.RoleViewer), svc.workspaceHandler.Get)
			protected.PUT("/workspaces/:id", perm.WorkspaceRole(models.RoleAdmin), svc.workspaceHandler.Update)
			protected.DELETE("/workspaces/:id", perm.WorkspaceRole(models.RoleOwner), svc.workspaceHandler.Delete)
			protected.GET("/workspaces/:id/stats", perm.WorkspaceRole(models.RoleViewer), svc.workspaceHandler.Stats)

			// Workspace members
			protected.POST("/workspaces/:id/members", perm.WorkspaceRole(models.RoleAdmin), svc.workspaceHandler.AddMember)
			protected.DELETE("/workspaces/:id/members/:userId", perm.WorkspaceRole(models.RoleViewer), svc.workspaceHandler.RemoveMember)
			protected.PUT("/workspaces/:id/members/:userId", perm.WorkspaceRole(models.RoleAdmin), svc.workspaceHandler.UpdateMemberRole)

			// Workspace activity feed and analytics
			protected.GET("/workspaces/:id/activities", perm.WorkspaceRole(models.RoleViewer), svc.activityHandler.List)
			protected.GET("/workspaces/:id/activities/stats", perm.WorkspaceRole(models.RoleViewer), svc.activityHandler.Stats)
			protected.GET("/workspaces/:id/analytics/overview", perm.WorkspaceRole(models.RoleViewer), svc.analyticsHandler.Overview)
			protected.GET("/workspaces/:id/analytics/productivity", perm.WorkspaceRole(models.RoleViewer), svc.analyticsHandler.Productivity)

			// Tasks. Creation and listing authorize against the workspace
			// named in the request body or query, inside the handler.
			protected.POST("/tasks", svc.taskHandler.Create)
			protected.GET("/tasks", svc.taskHandler.List)
			protected.POST("/tasks/reorder", svc.taskHandler.Reorder)
			protected.GET("/tasks/my/assigned", svc.taskHandler.MyAssigned)
			protected.GET("/tasks/my/reported", svc.taskHandler.MyReported)
			protected.GET("/tasks/my/overdue", svc.taskHandler.MyOverdue)
			protected.GET("/tasks/:id", perm.TaskRole(models.RoleViewer), svc.taskHandler.Get)
			protected.PUT("/tasks/:id", perm.TaskRole(models.RoleMember), svc.taskHandler.Update)
			protected.DELETE("/tasks/:id", perm.TaskRole(models.RoleAdmin), svc.taskHandler.Delete)

			// Task comments
			protected.POST("/tasks/:id/comments", perm.TaskRole(models.RoleMember), svc.taskHandler.AddComment)
			protected.PUT("/tasks/:id/comments/:commentId", perm.TaskRole(models.RoleMember), svc.taskHandler.UpdateComment)
			protected.DELETE("/tasks/:id/comments/:commentId", perm.TaskRole(models.RoleMember), svc.taskHandler.DeleteComment)

			// Task subtasks
			protected.POST("/tasks/:id/subtasks", perm.TaskRole(models.RoleMember), svc.taskHandler.AddSubtask)
			protected.PUT("/tasks/:id/subtasks/:subtaskId", perm.TaskRole(models.RoleMember), svc.taskHandler.ToggleSubtask)
			protected.DELETE("/tasks/:id/subtasks/:subtaskId", perm.TaskRole(models.RoleMember), svc.taskHandler.DeleteSubtask)

			// Task watchers
			protected.POST("/tasks/:id/watch", perm.TaskRole(models.RoleViewer), svc.taskHandler.Watch)
			protected.DELETE("/tasks/:id/watch", perm.TaskRole(models.RoleViewer), svc.taskHandler.Unwatch)

			// Task dependencies
			protected.POST("/tasks/:id/dependencies", perm.TaskRole(models.RoleMember), svc.taskHandler.AddDependency)
			protected.DELETE("/tasks/:id/dependencies/:depId", perm.TaskRole(models.RoleMember), svc.taskHandler.RemoveDependency)

			// Task attachments
			protected.POST("/tasks/:id/attachments", perm.TaskRole(models.RoleMember), svc.taskHandler.UploadAttachment)
			protected.GET("/tasks/:id/attachments/:attachmentId", perm.TaskRole(models.RoleViewer), svc.taskHandler.DownloadAttachment)
			protected.DELETE("/tasks/:id/attachments/:attachmentId", perm.TaskRole(models.RoleMember), svc.taskHandler.DeleteAttachment)

			// Goals. Role checks resolve the goal's workspace in the handler.
			protected.POST("/goals", svc.goalHandler.Create)
			protected.GET("/goals", svc.goalHandler.List)
			protected.GET("/goals/stats", svc.goalHandler.Stats)
			protected.GET("/goals/:id", svc.goalHandler.Get)
			protected.PUT("/goals/:id", svc.goalHandler.Update)
			protected.DELETE("/goals/:id", svc.goalHandler.Delete)
			protected.POST("/goals/:id/progress", svc.goalHandler.UpdateProgress)
			protected.POST("/goals/:id/contributors", svc.goalHandler.AddContributor)
			protected.DELETE("/goals/:id/contributors/:userId", svc.goalHandler.RemoveContributor)

			// Activity (cross-workspace)
			protected.GET("/activities/my", svc.activityHandler.MyActivity)
			protected.POST("/activities/:id/read", svc.activityHandler.MarkRead)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			// Users
			admin.GET("/users", svc.userHandler.List)
			admin.PUT("/users/:id/active", svc.userHandler.SetActive)
			admin.PUT("/users/:id/role", svc.userHandler.SetRole)

			// System Logs
			systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
			admin.GET("/logs", systemLogHandler.List)
			admin.GET("/logs/modules", systemLogHandler.GetModules)

			// System Config
			systemConfigHandler := handlers.NewSystemConfigHandler(models.GetDB())
			admin.GET("/config/email", systemConfigHandler.GetEmailConfig)
			admin.PUT("/config/email", systemConfigHandler.UpdateEmailConfig)
			admin.GET("/config/retention", systemConfigHandler.GetRetention)
			admin.PUT("/config/retention", systemConfigHandler.UpdateRetention)
		}
	}
}
