package services

import (
	"errors"
	"time"

	"github.com/taskflow/backend/internal/models"
	"gorm.io/gorm"
)

// Membership errors surfaced to handlers for status mapping.
var (
	ErrDuplicateMember = errors.New("user is already a member of this workspace")
	ErrMemberNotFound  = errors.New("user is not a member of this workspace")
	ErrOwnerImmutable  = errors.New("the workspace owner cannot be changed or removed")
)

type WorkspaceService struct {
	db         *gorm.DB
	activities *ActivityService
}

func NewWorkspaceService(db *gorm.DB, activities *ActivityService) *WorkspaceService {
	return &WorkspaceService{db: db, activities: activities}
}

type CreateWorkspaceRequest struct {
	Name              string `json:"name" binding:"required,min=1,max=100"`
	Description       string `json:"description" binding:"max=500"`
	Color             string `json:"color" binding:"omitempty,hexcolor"`
	Icon              string `json:"icon" binding:"max=10"`
	Visibility        string `json:"visibility" binding:"omitempty,oneof=public private team"`
	DefaultTaskStatus string `json:"default_task_status" binding:"omitempty,oneof=todo in-progress review done"`
}

type UpdateWorkspaceRequest struct {
	Name              string  `json:"name" binding:"omitempty,min=1,max=100"`
	Description       *string `json:"description" binding:"omitempty,max=500"`
	Color             string  `json:"color" binding:"omitempty,hexcolor"`
	Icon              string  `json:"icon" binding:"omitempty,max=10"`
	Visibility        string  `json:"visibility" binding:"omitempty,oneof=public private team"`
	AllowGuestAccess  *bool   `json:"allow_guest_access"`
	DefaultTaskStatus string  `json:"default_task_status" binding:"omitempty,oneof=todo in-progress review done"`
	TaskLabels        string  `json:"task_labels"`
}

// Create creates a workspace with the creator as its owner and sole member.
func (s *WorkspaceService) Create(req *CreateWorkspaceRequest, userID uint) (*models.Workspace, error) {
	workspace := models.Workspace{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		OwnerID:     userID,
		IsActive:    true,
	}
	if workspace.Color == "" {
		workspace.Color = "#3B82F6"
	}
	if req.Visibility != "" {
		workspace.Visibility = req.Visibility
	}
	if req.DefaultTaskStatus != "" {
		workspace.DefaultTaskStatus = req.DefaultTaskStatus
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workspace).Error; err != nil {
			return err
		}
		member := models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      userID,
			Role:        models.RoleOwner,
			JoinedAt:    time.Now(),
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(&workspace).Update("total_members", 1).Error
	})
	if err != nil {
		return nil, err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: workspace.ID,
		UserID:      userID,
		Type:        models.ActivityWorkspaceCreated,
		EntityType:  models.EntityWorkspace,
		EntityID:    &workspace.ID,
		Metadata:    map[string]interface{}{"title": workspace.Name},
	})

	return &workspace, nil
}

// GetByID returns a workspace by ID.
func (s *WorkspaceService) GetByID(id uint) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := s.db.First(&workspace, id).Error; err != nil {
		return nil, err
	}
	return &workspace, nil
}

// GetDetail returns a workspace with owner and members populated.
func (s *WorkspaceService) GetDetail(id uint) (*models.Workspace, error) {
	var workspace models.Workspace
	err := s.db.
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Preload("Members.User").
		Preload("Members.InvitedBy").
		First(&workspace, id).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

// ListForUser returns the active workspaces the user belongs to, most
// recently updated first.
func (s *WorkspaceService) ListForUser(userID uint) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := s.db.
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ? AND workspaces.is_active = ?", userID, true).
		Preload("Owner").
		Preload("Members.User").
		Order("workspaces.updated_at DESC").
		Find(&workspaces).Error
	if err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Update applies a partial update to workspace settings and records the
// change in the activity trail.
func (s *WorkspaceService) Update(id uint, req *UpdateWorkspaceRequest, userID uint) (*models.Workspace, error) {
	workspace, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Color != "" {
		updates["color"] = req.Color
	}
	if req.Icon != "" {
		updates["icon"] = req.Icon
	}
	if req.Visibility != "" {
		updates["visibility"] = req.Visibility
	}
	if req.AllowGuestAccess != nil {
		updates["allow_guest_access"] = *req.AllowGuestAccess
	}
	if req.DefaultTaskStatus != "" {
		updates["default_task_status"] = req.DefaultTaskStatus
	}
	if req.TaskLabels != "" {
		updates["task_labels"] = req.TaskLabels
	}

	if err := s.db.Model(workspace).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: workspace.ID,
		UserID:      userID,
		Type:        models.ActivityWorkspaceUpdated,
		EntityType:  models.EntityWorkspace,
		EntityID:    &workspace.ID,
		Metadata:    map[string]interface{}{"title": workspace.Name},
	})

	return workspace, nil
}

// SoftDelete marks a workspace inactive. Only reachable through the
// owner-gated route.
func (s *WorkspaceService) SoftDelete(id uint) error {
	result := s.db.Model(&models.Workspace{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddMember appends a membership entry. Fails with ErrDuplicateMember if the
// user already belongs to the workspace.
func (s *WorkspaceService) AddMember(workspaceID, userID uint, role string, invitedBy *uint) (*models.WorkspaceMember, error) {
	if role == "" {
		role = models.RoleMember
	}

	var count int64
	s.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&count)
	if count > 0 {
		return nil, ErrDuplicateMember
	}

	member := models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    time.Now(),
		InvitedByID: invitedBy,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return recomputeMemberCount(tx, workspaceID)
	})
	if err != nil {
		return nil, err
	}

	actorID := userID
	if invitedBy != nil {
		actorID = *invitedBy
	}
	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: workspaceID,
		UserID:      actorID,
		Type:        models.ActivityMemberJoined,
		EntityType:  models.EntityMember,
		EntityID:    &userID,
	})

	return &member, nil
}

// RemoveMember deletes a membership entry by user id. Idempotent at this
// layer; the owner-removal guard lives at the route layer.
func (s *WorkspaceService) RemoveMember(workspaceID, userID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
			Delete(&models.WorkspaceMember{}).Error; err != nil {
			return err
		}
		return recomputeMemberCount(tx, workspaceID)
	})
	if err != nil {
		return err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Type:        models.ActivityMemberLeft,
		EntityType:  models.EntityMember,
		EntityID:    &userID,
	})

	return nil
}

// UpdateMemberRole overwrites a member's role in place. Fails with
// ErrMemberNotFound if the user is not a member and ErrOwnerImmutable when
// targeting the owner's membership.
func (s *WorkspaceService) UpdateMemberRole(workspaceID, userID uint, newRole string, actorID uint) error {
	var member models.WorkspaceMember
	err := s.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMemberNotFound
	}
	if err != nil {
		return err
	}

	if member.Role == models.RoleOwner {
		return ErrOwnerImmutable
	}

	oldRole := member.Role
	if err := s.db.Model(&member).Update("role", newRole).Error; err != nil {
		return err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: workspaceID,
		UserID:      actorID,
		Type:        models.ActivityMemberRoleChanged,
		EntityType:  models.EntityMember,
		EntityID:    &userID,
		Metadata:    map[string]interface{}{"oldValue": oldRole, "newValue": newRole},
	})

	return nil
}

// GetMemberRole returns the member's role, or "" for non-members.
func (s *WorkspaceService) GetMemberRole(workspaceID, userID uint) string {
	var member models.WorkspaceMember
	err := s.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&member).Error
	if err != nil {
		return ""
	}
	return member.Role
}

// HasPermission reports whether the user's membership role grants at least
// the required role. Non-members are always denied.
func (s *WorkspaceService) HasPermission(workspaceID, userID uint, requiredRole string) bool {
	role := s.GetMemberRole(workspaceID, userID)
	if role == "" {
		return false
	}
	return models.RoleAtLeast(role, requiredRole)
}

// recomputeMemberCount refreshes the denormalized member counter from the
// membership table.
func recomputeMemberCount(tx *gorm.DB, workspaceID uint) error {
	var count int64
	if err := tx.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&models.Workspace{}).
		Where("id = ?", workspaceID).
		Update("total_members", count).Error
}

// RecomputeStats is the single source of truth for the task counters: it
// derives total and completed counts from the task table.
func (s *WorkspaceService) RecomputeStats(workspaceID uint) error {
	return recomputeTaskStats(s.db, workspaceID)
}

func recomputeTaskStats(tx *gorm.DB, workspaceID uint) error {
	var total, completed int64
	if err := tx.Model(&models.Task{}).
		Where("workspace_id = ? AND is_archived = ?", workspaceID, false).
		Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Task{}).
		Where("workspace_id = ? AND is_archived = ? AND status = ?", workspaceID, false, models.TaskStatusDone).
		Count(&completed).Error; err != nil {
		return err
	}
	return tx.Model(&models.Workspace{}).Where("id = ?", workspaceID).Updates(map[string]interface{}{
		"total_tasks":     total,
		"completed_tasks": completed,
	}).Error
}

type WorkspaceStats struct {
	StatusCounts   map[string]int64 `json:"status_counts"`
	OverdueTasks   int64            `json:"overdue_tasks"`
	CompletionRate int              `json:"completion_rate"`
	TotalMembers   int64            `json:"total_members"`
}

// Stats aggregates per-status task counts, overdue count and completion rate
// for a workspace.
func (s *WorkspaceService) Stats(workspaceID uint) (*WorkspaceStats, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := s.db.Model(&models.Task{}).
		Select("status, COUNT(*) as count").
		Where("workspace_id = ? AND is_archived = ?", workspaceID, false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &WorkspaceStats{StatusCounts: make(map[string]int64)}
	var total, completed int64
	for _, row := range rows {
		stats.StatusCounts[row.Status] = row.Count
		total += row.Count
		if row.Status == models.TaskStatusDone {
			completed = row.Count
		}
	}
	if total > 0 {
		stats.CompletionRate = int(float64(completed)/float64(total)*100 + 0.5)
	}

	if err := s.db.Model(&models.Task{}).
		Where("workspace_id = ? AND is_archived = ? AND status <> ? AND due_date < ?",
			workspaceID, false, models.TaskStatusDone, time.Now()).
		Count(&stats.OverdueTasks).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.WorkspaceMember{}).
		Where("workspace_id = ?", workspaceID).
		Count(&stats.TotalMembers).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
