package services

import (
	"errors"
	"time"

	"github.com/taskflow/backend/internal/models"
	"gorm.io/gorm"
)

type GoalService struct {
	db         *gorm.DB
	activities *ActivityService
}

func NewGoalService(db *gorm.DB, activities *ActivityService) *GoalService {
	return &GoalService{db: db, activities: activities}
}

type CreateGoalRequest struct {
	WorkspaceID uint      `json:"workspace_id" binding:"required"`
	Title       string    `json:"title" binding:"required,min=1,max=200"`
	Description string    `json:"description" binding:"max=1000"`
	Target      float64   `json:"target" binding:"required,gt=0"`
	Unit        string    `json:"unit" binding:"omitempty,oneof=tasks days members projects hours"`
	Deadline    time.Time `json:"deadline" binding:"required"`
}

type UpdateGoalRequest struct {
	Title       string     `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=1000"`
	Target      *float64   `json:"target" binding:"omitempty,gt=0"`
	Unit        string     `json:"unit" binding:"omitempty,oneof=tasks days members projects hours"`
	Deadline    *time.Time `json:"deadline"`
}

// Create inserts a goal with the creator as its owning contributor.
func (s *GoalService) Create(req *CreateGoalRequest, userID uint) (*models.Goal, error) {
	goal := models.Goal{
		WorkspaceID: req.WorkspaceID,
		Title:       req.Title,
		Description: req.Description,
		Target:      req.Target,
		Unit:        req.Unit,
		Deadline:    req.Deadline,
		Status:      models.GoalStatusActive,
		CreatedByID: userID,
		IsActive:    true,
	}
	if goal.Unit == "" {
		goal.Unit = models.GoalUnitTasks
	}
	goal.RefreshStatus(time.Now())

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&goal).Error; err != nil {
			return err
		}
		return tx.Create(&models.GoalContributor{
			GoalID: goal.ID,
			UserID: userID,
			Role:   models.ContributorOwner,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: goal.WorkspaceID,
		UserID:      userID,
		Type:        models.ActivityGoalCreated,
		EntityType:  models.EntityGoal,
		EntityID:    &goal.ID,
		Metadata:    map[string]interface{}{"title": goal.Title},
	})

	return &goal, nil
}

// GetByID returns a bare goal.
func (s *GoalService) GetByID(id uint) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Where("is_active = ?", true).First(&goal, id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

// GetDetail returns a goal with contributors and its progress history.
func (s *GoalService) GetDetail(id uint) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.
		Where("is_active = ?", true).
		Preload("CreatedBy").
		Preload("Contributors.User").
		Preload("ProgressUpdates", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(50)
		}).
		Preload("ProgressUpdates.User").
		First(&goal, id).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// ListByWorkspace returns the workspace's active goals, optionally filtered
// by status, newest deadline pressure first.
func (s *GoalService) ListByWorkspace(workspaceID uint, status string) ([]models.Goal, error) {
	query := s.db.Where("workspace_id = ? AND is_active = ?", workspaceID, true)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var goals []models.Goal
	err := query.
		Preload("CreatedBy").
		Preload("Contributors.User").
		Order("deadline ASC").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

// Update applies a partial update and recomputes the derived status, since a
// new target or deadline can flip it.
func (s *GoalService) Update(id uint, req *UpdateGoalRequest, userID uint) (*models.Goal, error) {
	goal, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		goal.Title = req.Title
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.Target != nil {
		goal.Target = *req.Target
		if goal.Current > goal.Target {
			goal.Current = goal.Target
		}
	}
	if req.Unit != "" {
		goal.Unit = req.Unit
	}
	if req.Deadline != nil {
		goal.Deadline = *req.Deadline
	}
	goal.RefreshStatus(time.Now())

	if err := s.db.Save(goal).Error; err != nil {
		return nil, err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: goal.WorkspaceID,
		UserID:      userID,
		Type:        models.ActivityGoalUpdated,
		EntityType:  models.EntityGoal,
		EntityID:    &goal.ID,
		Metadata:    map[string]interface{}{"title": goal.Title},
	})

	return goal, nil
}

// SoftDelete marks a goal inactive.
func (s *GoalService) SoftDelete(id uint) error {
	result := s.db.Model(&models.Goal{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type UpdateProgressRequest struct {
	Value float64 `json:"value" binding:"min=0"`
	Note  string  `json:"note" binding:"max=500"`
}

// UpdateProgress sets the goal's current value, clamped to [0, target],
// appends a history entry and recomputes the status, all in one transaction.
func (s *GoalService) UpdateProgress(id uint, req *UpdateProgressRequest, userID uint) (*models.Goal, error) {
	goal, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	wasCompleted := goal.Status == models.GoalStatusCompleted
	update := goal.ApplyProgress(req.Value, userID, req.Note, time.Now())

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(goal).Updates(map[string]interface{}{
			"current": goal.Current,
			"status":  goal.Status,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&update).Error
	})
	if err != nil {
		return nil, err
	}

	activityType := models.ActivityGoalUpdated
	if !wasCompleted && goal.Status == models.GoalStatusCompleted {
		activityType = models.ActivityGoalCompleted
	}
	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: goal.WorkspaceID,
		UserID:      userID,
		Type:        activityType,
		EntityType:  models.EntityGoal,
		EntityID:    &goal.ID,
		Metadata: map[string]interface{}{
			"title":    goal.Title,
			"newValue": goal.Current,
		},
	})

	return goal, nil
}

// AddContributor links a user to the goal. Adding someone who already
// contributes returns the existing entry unchanged.
func (s *GoalService) AddContributor(goalID, userID uint, role string) (*models.GoalContributor, error) {
	if _, err := s.GetByID(goalID); err != nil {
		return nil, err
	}

	var existing models.GoalContributor
	err := s.db.Where("goal_id = ? AND user_id = ?", goalID, userID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if role == "" {
		role = models.ContributorContributor
	}
	contributor := models.GoalContributor{GoalID: goalID, UserID: userID, Role: role}
	if err := s.db.Create(&contributor).Error; err != nil {
		return nil, err
	}
	return &contributor, nil
}

// RemoveContributor unlinks a user from the goal. Idempotent.
func (s *GoalService) RemoveContributor(goalID, userID uint) error {
	return s.db.Where("goal_id = ? AND user_id = ?", goalID, userID).
		Delete(&models.GoalContributor{}).Error
}

type GoalStats struct {
	Total           int64      `json:"total"`
	Active          int64      `json:"active"`
	Completed       int64      `json:"completed"`
	Overdue         int64      `json:"overdue"`
	AverageProgress float64    `json:"average_progress"`
	CompletionRate  int        `json:"completion_rate"`
	NearestDeadline *time.Time `json:"nearest_deadline,omitempty"`
}

// WorkspaceStats aggregates goal counts and average progress for a workspace.
func (s *GoalService) WorkspaceStats(workspaceID uint) (*GoalStats, error) {
	var goals []models.Goal
	err := s.db.Where("workspace_id = ? AND is_active = ?", workspaceID, true).Find(&goals).Error
	if err != nil {
		return nil, err
	}

	stats := &GoalStats{Total: int64(len(goals))}
	var progressSum float64
	for i := range goals {
		g := &goals[i]
		switch g.Status {
		case models.GoalStatusCompleted:
			stats.Completed++
		case models.GoalStatusOverdue:
			stats.Overdue++
		default:
			stats.Active++
		}
		progressSum += g.ProgressPercentage()
		if g.Status != models.GoalStatusCompleted {
			if stats.NearestDeadline == nil || g.Deadline.Before(*stats.NearestDeadline) {
				deadline := g.Deadline
				stats.NearestDeadline = &deadline
			}
		}
	}
	if stats.Total > 0 {
		stats.AverageProgress = progressSum / float64(stats.Total)
		stats.CompletionRate = int(float64(stats.Completed)/float64(stats.Total)*100 + 0.5)
	}
	return stats, nil
}

// SweepOverdue flips past-deadline active goals to overdue. Run from the
// scheduler as a safety net for goals nobody touches.
func (s *GoalService) SweepOverdue() (int64, error) {
	result := s.db.Model(&models.Goal{}).
		Where("is_active = ? AND status = ? AND deadline < ?",
			true, models.GoalStatusActive, time.Now()).
		Update("status", models.GoalStatusOverdue)
	return result.RowsAffected, result.Error
}
