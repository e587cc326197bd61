package services

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/pkg/logger"
	"gorm.io/gorm"
)

// SchedulerService runs the periodic maintenance jobs: the goal overdue
// sweep, the workspace counter recompute and the system log cleanup. Each job
// takes a database lock first so only one instance runs it per tick.
type SchedulerService struct {
	db         *gorm.DB
	goals      *GoalService
	workspaces *WorkspaceService
	logs       *SystemLogService
	cron       *cron.Cron
	instanceID string
}

func NewSchedulerService(db *gorm.DB, goals *GoalService, workspaces *WorkspaceService, logs *SystemLogService) *SchedulerService {
	hostname, _ := os.Hostname()
	return &SchedulerService{
		db:         db,
		goals:      goals,
		workspaces: workspaces,
		logs:       logs,
		instanceID: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	}
}

// Start registers the cron entries and starts the scheduler.
func (s *SchedulerService) Start() error {
	s.cron = cron.New()

	// Flip past-deadline goals hourly
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		s.withLock("goal_overdue_sweep", time.Hour, s.sweepOverdueGoals)
	}); err != nil {
		return err
	}

	// Reconcile workspace counters nightly
	if _, err := s.cron.AddFunc("30 2 * * *", func() {
		s.withLock("workspace_stats_recompute", time.Hour, s.recomputeAllStats)
	}); err != nil {
		return err
	}

	// Prune old system logs daily
	if _, err := s.cron.AddFunc("0 3 * * *", func() {
		s.withLock("log_cleanup", time.Hour, s.cleanupLogs)
	}); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for running jobs.
func (s *SchedulerService) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

// withLock runs the job only if this instance wins the named lock for the
// current period.
func (s *SchedulerService) withLock(name string, period time.Duration, job func()) {
	key := time.Now().Truncate(period).UTC().Format("2006-01-02T15:04")
	if !s.tryAcquire(name, key, period) {
		return
	}
	job()
}

func (s *SchedulerService) tryAcquire(name, key string, ttl time.Duration) bool {
	now := time.Now()

	// Clear expired locks first so a crashed holder cannot block forever
	s.db.Where("lock_name = ? AND expires_at < ?", name, now).
		Delete(&models.SchedulerLock{})

	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  s.instanceID,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.db.Create(&lock).Error; err != nil {
		// Unique index violation means another instance holds this tick
		return false
	}
	return true
}

func (s *SchedulerService) sweepOverdueGoals() {
	flipped, err := s.goals.SweepOverdue()
	if err != nil {
		logger.Error().Err(err).Msg("Goal overdue sweep failed")
		return
	}
	if flipped > 0 {
		logger.Info().Int64("flipped", flipped).Msg("Marked past-deadline goals overdue")
	}
}

func (s *SchedulerService) recomputeAllStats() {
	var ids []uint
	if err := s.db.Model(&models.Workspace{}).
		Where("is_active = ?", true).
		Pluck("id", &ids).Error; err != nil {
		logger.Error().Err(err).Msg("Workspace stats sweep failed to list workspaces")
		return
	}
	for _, id := range ids {
		if err := s.workspaces.RecomputeStats(id); err != nil {
			logger.Warn().Err(err).Uint("workspace_id", id).Msg("Stats recompute failed")
		}
	}
	logger.Info().Int("workspaces", len(ids)).Msg("Workspace stats recomputed")
}

func (s *SchedulerService) cleanupLogs() {
	retentionDays := s.logs.GetRetentionDays()
	if retentionDays <= 0 {
		return
	}
	deleted, err := s.logs.CleanupOldLogs(retentionDays)
	if err != nil {
		logger.Error().Err(err).Msg("Log cleanup failed")
		return
	}
	if deleted > 0 {
		logger.Info().
			Int64("deleted", deleted).
			Int("retention_days", retentionDays).
			Msg("Cleaned up old system logs")
	}
}
