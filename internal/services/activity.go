package services

import (
	"encoding/json"
	"time"

	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/pkg/logger"
	"gorm.io/gorm"
)

// Notifier delivers mention notifications, either through the async queue or
// inline when Redis is not configured.
type Notifier interface {
	EnqueueMentionNotification(activityID, userID uint) error
}

type ActivityService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// SetNotifier wires the mention delivery backend after queue startup.
func (s *ActivityService) SetNotifier(n Notifier) {
	s.notifier = n
}

type RecordActivityRequest struct {
	WorkspaceID uint
	UserID      uint
	Type        string
	EntityType  string
	EntityID    *uint
	Message     string // overrides the type-derived message when set
	Metadata    map[string]interface{}
	Mentions    []uint
	IsPublic    *bool
}

// Record appends an activity entry. Failures are logged and swallowed so a
// broken audit trail never fails the mutation that produced it.
func (s *ActivityService) Record(req *RecordActivityRequest) *models.Activity {
	message := req.Message
	if message == "" {
		message = models.ActivityMessage(req.Type)
	}
	activity := models.Activity{
		WorkspaceID: req.WorkspaceID,
		UserID:      req.UserID,
		Type:        req.Type,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Message:     message,
		IsPublic:    true,
	}
	if req.IsPublic != nil {
		activity.IsPublic = *req.IsPublic
	}
	if len(req.Metadata) > 0 {
		if raw, err := json.Marshal(req.Metadata); err == nil {
			activity.Metadata = string(raw)
		}
	}

	if err := s.db.Create(&activity).Error; err != nil {
		logger.Warn().Err(err).
			Uint("workspace_id", req.WorkspaceID).
			Str("type", req.Type).
			Msg("Failed to record activity")
		return nil
	}

	for _, userID := range req.Mentions {
		s.AddMention(activity.ID, userID)
	}

	return &activity
}

type ActivityListRequest struct {
	WorkspaceID uint
	Types       []string
	UserID      *uint
	EntityType  string
	Since       *time.Time
	Until       *time.Time
	Page        int
	PageSize    int
}

type ActivityPage struct {
	Items      []models.Activity `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// FindByWorkspace returns a page of workspace activity, newest first.
func (s *ActivityService) FindByWorkspace(req *ActivityListRequest) (*ActivityPage, error) {
	query := s.db.Model(&models.Activity{}).
		Where("workspace_id = ? AND is_public = ?", req.WorkspaceID, true)

	if len(req.Types) > 0 {
		query = query.Where("type IN ?", req.Types)
	}
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}
	if req.EntityType != "" {
		query = query.Where("entity_type = ?", req.EntityType)
	}
	if req.Since != nil {
		query = query.Where("created_at >= ?", *req.Since)
	}
	if req.Until != nil {
		query = query.Where("created_at <= ?", *req.Until)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var activities []models.Activity
	err := query.
		Preload("User").
		Preload("Mentions.User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	s.resolveEntities(activities)

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ActivityPage{
		Items:      activities,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// FindByUser returns a page of a user's own activity across the given
// workspaces, newest first.
func (s *ActivityService) FindByUser(userID uint, workspaceIDs []uint, page, pageSize int) (*ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.Model(&models.Activity{}).Where("user_id = ?", userID)
	if len(workspaceIDs) > 0 {
		query = query.Where("workspace_id IN ?", workspaceIDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var activities []models.Activity
	err := query.
		Preload("Workspace").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	s.resolveEntities(activities)

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ActivityPage{
		Items:      activities,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// resolveEntities fills the transient Entity field per entity type. Each
// variant is looked up against its own table; entries whose target no longer
// exists keep a nil Entity rather than failing the listing.
func (s *ActivityService) resolveEntities(activities []models.Activity) {
	for i := range activities {
		a := &activities[i]
		if a.EntityID == nil {
			continue
		}
		switch a.EntityType {
		case models.EntityTask:
			var task models.Task
			if err := s.db.Select("id", "title", "status", "priority").First(&task, *a.EntityID).Error; err == nil {
				a.Entity = &task
			}
		case models.EntityGoal:
			var goal models.Goal
			if err := s.db.Select("id", "title", "status").First(&goal, *a.EntityID).Error; err == nil {
				a.Entity = &goal
			}
		case models.EntityComment:
			var comment models.TaskComment
			if err := s.db.Select("id", "task_id", "content").First(&comment, *a.EntityID).Error; err == nil {
				a.Entity = &comment
			}
		case models.EntityMember:
			var user models.User
			if err := s.db.Select("id", "name", "email", "avatar").First(&user, *a.EntityID).Error; err == nil {
				a.Entity = &user
			}
		case models.EntityWorkspace:
			var workspace models.Workspace
			if err := s.db.Select("id", "name", "color", "icon").First(&workspace, *a.EntityID).Error; err == nil {
				a.Entity = &workspace
			}
		}
	}
}

// MarkAsRead upserts a read receipt for the user. Re-reading is a no-op.
func (s *ActivityService) MarkAsRead(activityID, userID uint) error {
	var existing models.ActivityRead
	err := s.db.Where("activity_id = ? AND user_id = ?", activityID, userID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return s.db.Create(&models.ActivityRead{
		ActivityID: activityID,
		UserID:     userID,
		ReadAt:     time.Now(),
	}).Error
}

// AddMention records a mention and hands it to the notification backend.
func (s *ActivityService) AddMention(activityID, userID uint) {
	mention := models.ActivityMention{ActivityID: activityID, UserID: userID}
	if err := s.db.Create(&mention).Error; err != nil {
		// Duplicate mention on the same activity, nothing to do
		return
	}
	if s.notifier != nil {
		if err := s.notifier.EnqueueMentionNotification(activityID, userID); err != nil {
			logger.Warn().Err(err).
				Uint("activity_id", activityID).
				Uint("user_id", userID).
				Msg("Failed to enqueue mention notification")
		}
	}
}

// MarkMentionNotified flags a mention as delivered.
func (s *ActivityService) MarkMentionNotified(activityID, userID uint) error {
	return s.db.Model(&models.ActivityMention{}).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Update("notified", true).Error
}

// GetMention loads a mention together with its activity and actor for
// notification rendering.
func (s *ActivityService) GetMention(activityID, userID uint) (*models.ActivityMention, *models.Activity, error) {
	var mention models.ActivityMention
	if err := s.db.Where("activity_id = ? AND user_id = ?", activityID, userID).
		Preload("User").First(&mention).Error; err != nil {
		return nil, nil, err
	}
	var activity models.Activity
	if err := s.db.Preload("User").Preload("Workspace").First(&activity, activityID).Error; err != nil {
		return nil, nil, err
	}
	return &mention, &activity, nil
}

type ActivityStats struct {
	TotalEvents  int64            `json:"total_events"`
	ByType       map[string]int64 `json:"by_type"`
	ByUser       []UserEventCount `json:"by_user"`
	ActiveUsers  int64            `json:"active_users"`
	EventsPerDay []DayEventCount  `json:"events_per_day"`
}

type UserEventCount struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Count  int64  `json:"count"`
}

type DayEventCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// Stats aggregates workspace activity over the trailing window.
func (s *ActivityService) Stats(workspaceID uint, days int) (*ActivityStats, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	base := s.db.Model(&models.Activity{}).
		Where("workspace_id = ? AND created_at >= ?", workspaceID, since)

	stats := &ActivityStats{ByType: make(map[string]int64)}

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalEvents).Error; err != nil {
		return nil, err
	}

	type typeCount struct {
		Type  string
		Count int64
	}
	var byType []typeCount
	if err := base.Session(&gorm.Session{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, tc := range byType {
		stats.ByType[tc.Type] = tc.Count
	}

	err := s.db.Model(&models.Activity{}).
		Select("activities.user_id, users.name, COUNT(*) as count").
		Joins("JOIN users ON users.id = activities.user_id").
		Where("activities.workspace_id = ? AND activities.created_at >= ?", workspaceID, since).
		Group("activities.user_id, users.name").
		Order("count DESC").
		Limit(10).
		Scan(&stats.ByUser).Error
	if err != nil {
		return nil, err
	}
	stats.ActiveUsers = int64(len(stats.ByUser))

	err = s.db.Model(&models.Activity{}).
		Select("DATE(created_at) as day, COUNT(*) as count").
		Where("workspace_id = ? AND created_at >= ?", workspaceID, since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&stats.EventsPerDay).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
