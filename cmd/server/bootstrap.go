package main

import (
	"github.com/taskflow/backend/internal/config"
	"github.com/taskflow/backend/internal/handlers"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/internal/utils"
	"github.com/taskflow/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	queue     services.NotificationQueue
	worker    *services.Worker
	scheduler *services.SchedulerService

	permission  *middleware.Permission
	authLimiter *middleware.RateLimiter

	authHandler      *handlers.AuthHandler
	userHandler      *handlers.UserHandler
	workspaceHandler *handlers.WorkspaceHandler
	taskHandler      *handlers.TaskHandler
	goalHandler      *handlers.GoalHandler
	activityHandler  *handlers.ActivityHandler
	analyticsHandler *handlers.AnalyticsHandler
	healthHandler    *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services,
// the notification queue and the cron scheduler.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Initialize system logger
	db := models.GetDB()
	services.InitSystemLogger(db)

	// Core services
	activityService := services.NewActivityService(db)
	workspaceService := services.NewWorkspaceService(db, activityService)
	taskService := services.NewTaskService(db, workspaceService, activityService)
	goalService := services.NewGoalService(db, activityService)
	userService := services.NewUserService(db)
	analyticsService := services.NewAnalyticsService(db)
	authService := services.NewAuthService(db, &cfg.JWT, &cfg.LDAP)
	emailService := services.NewEmailService(db)
	systemLogService := services.NewSystemLogService(db)

	// Mention notification pipeline (async via Redis if enabled, otherwise
	// in-process). The notifier is attached after construction to break the
	// activity -> notification -> activity cycle.
	queue := services.InitNotificationQueue(cfg)
	notificationService := services.NewNotificationService(db, activityService, emailService, queue)
	activityService.SetNotifier(notificationService)
	if syncQueue, ok := queue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.Process)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.Process)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start notification worker")
			}
		}
	}

	// Cron jobs: goal overdue sweep, workspace stats recompute, log cleanup
	scheduler := services.NewSchedulerService(db, goalService, workspaceService, systemLogService)
	if err := scheduler.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start scheduler")
	}

	// Create default admin user
	authHandler := handlers.NewAuthHandler(authService)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		queue:     queue,
		worker:    worker,
		scheduler: scheduler,

		permission:  middleware.NewPermission(workspaceService, taskService),
		authLimiter: middleware.NewRateLimiter(cfg.RateLimit),

		authHandler:      authHandler,
		userHandler:      handlers.NewUserHandler(userService),
		workspaceHandler: handlers.NewWorkspaceHandler(workspaceService, userService),
		taskHandler:      handlers.NewTaskHandler(taskService, workspaceService, cfg.Server.UploadDir),
		goalHandler:      handlers.NewGoalHandler(goalService, workspaceService),
		activityHandler:  handlers.NewActivityHandler(activityService, workspaceService),
		analyticsHandler: handlers.NewAnalyticsHandler(analyticsService),
		healthHandler:    handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.queue != nil {
		s.queue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
