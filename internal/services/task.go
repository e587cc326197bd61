package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taskflow/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrDuplicateWatcher    = errors.New("user is already watching this task")
	ErrDuplicateDependency = errors.New("dependency already exists")
	ErrSelfDependency      = errors.New("a task cannot depend on itself")
	ErrCommentNotOwned     = errors.New("comment belongs to another user")
)

type TaskService struct {
	db         *gorm.DB
	workspaces *WorkspaceService
	activities *ActivityService
}

func NewTaskService(db *gorm.DB, workspaces *WorkspaceService, activities *ActivityService) *TaskService {
	return &TaskService{db: db, workspaces: workspaces, activities: activities}
}

type CreateTaskRequest struct {
	WorkspaceID    uint       `json:"workspace_id" binding:"required"`
	Title          string     `json:"title" binding:"required,min=1,max=200"`
	Description    string     `json:"description" binding:"max=2000"`
	Status         string     `json:"status" binding:"omitempty,oneof=todo in-progress review done"`
	Priority       string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssigneeID     *uint      `json:"assignee_id"`
	DueDate        *time.Time `json:"due_date"`
	StartDate      *time.Time `json:"start_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
	Tags           []string   `json:"tags"`
	Labels         string     `json:"labels"`
}

type UpdateTaskRequest struct {
	Title          string     `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string    `json:"description" binding:"omitempty,max=2000"`
	Status         string     `json:"status" binding:"omitempty,oneof=todo in-progress review done"`
	Priority       string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssigneeID     *uint      `json:"assignee_id"`
	DueDate        *time.Time `json:"due_date"`
	StartDate      *time.Time `json:"start_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
	ActualHours    *float64   `json:"actual_hours"`
	Tags           []string   `json:"tags"`
	Labels         string     `json:"labels"`
	CustomFields   string     `json:"custom_fields"`
}

// Create inserts a task at the tail of its status column. The new position is
// one past the current maximum within (workspace, status), or 0 for an empty
// column.
func (s *TaskService) Create(req *CreateTaskRequest, reporterID uint) (*models.Task, error) {
	task := models.Task{
		WorkspaceID:    req.WorkspaceID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		AssigneeID:     req.AssigneeID,
		ReporterID:     reporterID,
		DueDate:        req.DueDate,
		StartDate:      req.StartDate,
		EstimatedHours: req.EstimatedHours,
		Tags:           strings.Join(req.Tags, ","),
		Labels:         req.Labels,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Status == models.TaskStatusDone {
		now := time.Now()
		task.CompletedAt = &now
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		task.Position = nextPosition(tx, task.WorkspaceID, task.Status)
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		return recomputeTaskStats(tx, task.WorkspaceID)
	})
	if err != nil {
		return nil, err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: task.WorkspaceID,
		UserID:      reporterID,
		Type:        models.ActivityTaskCreated,
		EntityType:  models.EntityTask,
		EntityID:    &task.ID,
		Metadata:    map[string]interface{}{"title": task.Title},
	})

	return &task, nil
}

// nextPosition returns 1 + max(position) within the status column, or 0 when
// the column is empty.
func nextPosition(tx *gorm.DB, workspaceID uint, status string) int {
	var row struct {
		Max   *int
		Count int64
	}
	tx.Model(&models.Task{}).
		Select("MAX(position) as max, COUNT(*) as count").
		Where("workspace_id = ? AND status = ? AND is_archived = ?", workspaceID, status, false).
		Scan(&row)
	if row.Count == 0 || row.Max == nil {
		return 0
	}
	return *row.Max + 1
}

type TaskListRequest struct {
	WorkspaceID uint
	Status      string
	Priority    string
	AssigneeID  *uint
	Tag         string
	Search      string
	DueBefore   *time.Time
	DueAfter    *time.Time
	Archived    bool
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

type TaskPage struct {
	Items      []models.Task `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

var taskSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"priority":   "priority",
	"position":   "position",
	"title":      "title",
}

// List returns a filtered page of workspace tasks with derived fields filled.
func (s *TaskService) List(req *TaskListRequest) (*TaskPage, error) {
	query := s.db.Model(&models.Task{}).
		Where("workspace_id = ? AND is_archived = ?", req.WorkspaceID, req.Archived)

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Priority != "" {
		query = query.Where("priority = ?", req.Priority)
	}
	if req.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *req.AssigneeID)
	}
	if req.Tag != "" {
		query = query.Where("tags LIKE ?", "%"+req.Tag+"%")
	}
	if req.Search != "" {
		like := "%" + req.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if req.DueBefore != nil {
		query = query.Where("due_date <= ?", *req.DueBefore)
	}
	if req.DueAfter != nil {
		query = query.Where("due_date >= ?", *req.DueAfter)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	column, ok := taskSortColumns[req.SortBy]
	if !ok {
		column = "position"
	}
	direction := "ASC"
	if req.SortOrder == "desc" {
		direction = "DESC"
	}

	var tasks []models.Task
	err := query.
		Preload("Assignee").
		Preload("Reporter").
		Preload("Subtasks").
		Order(fmt.Sprintf("status ASC, %s %s", column, direction)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range tasks {
		tasks[i].Decorate(now)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &TaskPage{Items: tasks, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

// GetByID returns a bare task without associations.
func (s *TaskService) GetByID(id uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// GetDetail returns a task with all associations and derived fields.
func (s *TaskService) GetDetail(id uint) (*models.Task, error) {
	var task models.Task
	err := s.db.
		Preload("Assignee").
		Preload("Reporter").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.User").
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Subtasks.CompletedBy").
		Preload("Attachments.UploadedBy").
		Preload("Dependencies.DependsOnTask").
		Preload("Watchers.User").
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	task.Decorate(time.Now())
	return &task, nil
}

// Update applies a partial update. A status change moves the task to the tail
// of the target column and stamps completion on the first entry into done.
// The workspace counters are recomputed in the same transaction.
func (s *TaskService) Update(id uint, req *UpdateTaskRequest, userID uint) (*models.Task, error) {
	task, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	statusChanged := req.Status != "" && req.Status != task.Status
	oldStatus := task.Status

	changes := make(map[string]interface{})
	if req.Title != "" {
		changes["title"] = req.Title
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Priority != "" {
		changes["priority"] = req.Priority
	}
	if req.AssigneeID != nil {
		changes["assignee_id"] = *req.AssigneeID
	}
	if req.DueDate != nil {
		changes["due_date"] = *req.DueDate
	}
	if req.StartDate != nil {
		changes["start_date"] = *req.StartDate
	}
	if req.EstimatedHours != nil {
		changes["estimated_hours"] = *req.EstimatedHours
	}
	if req.ActualHours != nil {
		changes["actual_hours"] = *req.ActualHours
	}
	if req.Tags != nil {
		changes["tags"] = strings.Join(req.Tags, ",")
	}
	if req.Labels != "" {
		changes["labels"] = req.Labels
	}
	if req.CustomFields != "" {
		changes["custom_fields"] = req.CustomFields
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if statusChanged {
			task.ApplyStatus(req.Status, time.Now())
			changes["status"] = task.Status
			changes["position"] = nextPosition(tx, task.WorkspaceID, task.Status)
			if task.CompletedAt != nil {
				changes["completed_at"] = *task.CompletedAt
			}
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(task).Updates(changes).Error; err != nil {
			return err
		}
		if statusChanged {
			return recomputeTaskStats(tx, task.WorkspaceID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	activityType := models.ActivityTaskUpdated
	metadata := map[string]interface{}{"title": task.Title}
	if statusChanged {
		metadata["oldValue"] = oldStatus
		metadata["newValue"] = task.Status
		if task.Status == models.TaskStatusDone {
			activityType = models.ActivityTaskCompleted
		}
	}
	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: task.WorkspaceID,
		UserID:      userID,
		Type:        activityType,
		EntityType:  models.EntityTask,
		EntityID:    &task.ID,
		Metadata:    metadata,
	})

	return task, nil
}

// Archive soft-deletes a task and refreshes the workspace counters.
func (s *TaskService) Archive(id uint, userID uint) error {
	task, err := s.GetByID(id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(task).Update("is_archived", true).Error; err != nil {
			return err
		}
		return recomputeTaskStats(tx, task.WorkspaceID)
	})
	if err != nil {
		return err
	}

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: task.WorkspaceID,
		UserID:      userID,
		Type:        models.ActivityTaskDeleted,
		EntityType:  models.EntityTask,
		EntityID:    &task.ID,
		Metadata:    map[string]interface{}{"title": task.Title},
	})

	return nil
}

type ReorderItem struct {
	TaskID   uint   `json:"task_id" binding:"required"`
	Status   string `json:"status" binding:"required,oneof=todo in-progress review done"`
	Position int    `json:"position" binding:"min=0"`
}

// Reorder applies a batch of board moves atomically. All items must belong to
// the given workspace; a move into done stamps completion on first entry.
func (s *TaskService) Reorder(workspaceID uint, items []ReorderItem, userID uint) error {
	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var task models.Task
			if err := tx.Where("id = ? AND workspace_id = ?", item.TaskID, workspaceID).
				First(&task).Error; err != nil {
				return fmt.Errorf("task %d: %w", item.TaskID, err)
			}
			updates := map[string]interface{}{
				"position": item.Position,
			}
			if item.Status != task.Status {
				task.ApplyStatus(item.Status, now)
				updates["status"] = task.Status
				if task.CompletedAt != nil {
					updates["completed_at"] = *task.CompletedAt
				}
			}
			if err := tx.Model(&task).Updates(updates).Error; err != nil {
				return err
			}
		}
		return recomputeTaskStats(tx, workspaceID)
	})
	return err
}

type AddCommentRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=1000"`
	Mentions []uint `json:"mentions"`
}

// AddComment appends a comment and records the activity, carrying the
// mentioned users into the notification pipeline.
func (s *TaskService) AddComment(taskID uint, req *AddCommentRequest, userID uint) (*models.TaskComment, error) {
	task, err := s.GetByID(taskID)
	if err != nil {
		return nil, err
	}

	comment := models.TaskComment{
		TaskID:   taskID,
		UserID:   userID,
		Content:  req.Content,
		Mentions: joinIDs(req.Mentions),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	s.db.Preload("User").First(&comment, comment.ID)

	s.activities.Record(&RecordActivityRequest{
		WorkspaceID: task.WorkspaceID,
		UserID:      userID,
		Type:        models.ActivityCommentAdded,
		EntityType:  models.EntityComment,
		EntityID:    &comment.ID,
		Metadata:    map[string]interface{}{"title": task.Title},
		Mentions:    req.Mentions,
	})

	return &comment, nil
}

// UpdateComment edits a comment's content. Only the author may edit.
func (s *TaskService) UpdateComment(taskID, commentID uint, content string, userID uint) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := s.db.Where("id = ? AND task_id = ?", commentID, taskID).First(&comment).Error; err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrCommentNotOwned
	}
	now := time.Now()
	err := s.db.Model(&comment).Updates(map[string]interface{}{
		"content":   content,
		"is_edited": true,
		"edited_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment. Only the author may delete through this
// path; moderator deletion is gated at the route layer.
func (s *TaskService) DeleteComment(taskID, commentID, userID uint, force bool) error {
	var comment models.TaskComment
	if err := s.db.Where("id = ? AND task_id = ?", commentID, taskID).First(&comment).Error; err != nil {
		return err
	}
	if !force && comment.UserID != userID {
		return ErrCommentNotOwned
	}
	return s.db.Delete(&comment).Error
}

// AddSubtask appends a checklist entry.
func (s *TaskService) AddSubtask(taskID uint, title string) (*models.TaskSubtask, error) {
	if _, err := s.GetByID(taskID); err != nil {
		return nil, err
	}
	subtask := models.TaskSubtask{TaskID: taskID, Title: title}
	if err := s.db.Create(&subtask).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

// ToggleSubtask flips a subtask's completion, stamping who completed it.
func (s *TaskService) ToggleSubtask(taskID, subtaskID, userID uint) (*models.TaskSubtask, error) {
	var subtask models.TaskSubtask
	if err := s.db.Where("id = ? AND task_id = ?", subtaskID, taskID).First(&subtask).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if subtask.IsCompleted {
		updates["is_completed"] = false
		updates["completed_at"] = nil
		updates["completed_by_id"] = nil
		subtask.IsCompleted = false
		subtask.CompletedAt = nil
		subtask.CompletedByID = nil
	} else {
		now := time.Now()
		updates["is_completed"] = true
		updates["completed_at"] = now
		updates["completed_by_id"] = userID
		subtask.IsCompleted = true
		subtask.CompletedAt = &now
		subtask.CompletedByID = &userID
	}
	if err := s.db.Model(&subtask).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

// DeleteSubtask removes a checklist entry.
func (s *TaskService) DeleteSubtask(taskID, subtaskID uint) error {
	result := s.db.Where("id = ? AND task_id = ?", subtaskID, taskID).Delete(&models.TaskSubtask{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddWatcher subscribes a user to the task.
func (s *TaskService) AddWatcher(taskID, userID uint) error {
	var count int64
	s.db.Model(&models.TaskWatcher{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count)
	if count > 0 {
		return ErrDuplicateWatcher
	}
	return s.db.Create(&models.TaskWatcher{TaskID: taskID, UserID: userID}).Error
}

// RemoveWatcher unsubscribes a user. Idempotent.
func (s *TaskService) RemoveWatcher(taskID, userID uint) error {
	return s.db.Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.TaskWatcher{}).Error
}

// AddDependency links a task to another in the same workspace.
func (s *TaskService) AddDependency(taskID, dependsOnID uint, kind string) (*models.TaskDependency, error) {
	if taskID == dependsOnID {
		return nil, ErrSelfDependency
	}
	task, err := s.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	var target models.Task
	if err := s.db.Where("id = ? AND workspace_id = ?", dependsOnID, task.WorkspaceID).
		First(&target).Error; err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.TaskDependency{}).
		Where("task_id = ? AND depends_on_task_id = ?", taskID, dependsOnID).
		Count(&count)
	if count > 0 {
		return nil, ErrDuplicateDependency
	}

	if kind == "" {
		kind = models.DependencyBlocks
	}
	dep := models.TaskDependency{TaskID: taskID, DependsOnTaskID: dependsOnID, Type: kind}
	if err := s.db.Create(&dep).Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

// RemoveDependency unlinks two tasks. Idempotent.
func (s *TaskService) RemoveDependency(taskID, dependsOnID uint) error {
	return s.db.Where("task_id = ? AND depends_on_task_id = ?", taskID, dependsOnID).
		Delete(&models.TaskDependency{}).Error
}

// AddAttachment records an uploaded file against the task.
func (s *TaskService) AddAttachment(taskID uint, att *models.TaskAttachment) error {
	if _, err := s.GetByID(taskID); err != nil {
		return err
	}
	att.TaskID = taskID
	return s.db.Create(att).Error
}

// GetAttachment returns one attachment of a task.
func (s *TaskService) GetAttachment(taskID, attachmentID uint) (*models.TaskAttachment, error) {
	var att models.TaskAttachment
	if err := s.db.Where("id = ? AND task_id = ?", attachmentID, taskID).First(&att).Error; err != nil {
		return nil, err
	}
	return &att, nil
}

// DeleteAttachment removes an attachment record.
func (s *TaskService) DeleteAttachment(taskID, attachmentID uint) error {
	result := s.db.Where("id = ? AND task_id = ?", attachmentID, taskID).
		Delete(&models.TaskAttachment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignedTo lists active tasks assigned to a user across their workspaces.
func (s *TaskService) AssignedTo(userID uint) ([]models.Task, error) {
	return s.listForUser(s.db.Where("assignee_id = ?", userID))
}

// ReportedBy lists active tasks the user created.
func (s *TaskService) ReportedBy(userID uint) ([]models.Task, error) {
	return s.listForUser(s.db.Where("reporter_id = ?", userID))
}

// OverdueFor lists the user's assigned tasks past their due date.
func (s *TaskService) OverdueFor(userID uint) ([]models.Task, error) {
	return s.listForUser(s.db.
		Where("assignee_id = ? AND status <> ? AND due_date < ?",
			userID, models.TaskStatusDone, time.Now()))
}

func (s *TaskService) listForUser(query *gorm.DB) ([]models.Task, error) {
	var tasks []models.Task
	err := query.
		Where("is_archived = ?", false).
		Preload("Workspace").
		Preload("Assignee").
		Preload("Subtasks").
		Order("due_date ASC, created_at DESC").
		Limit(200).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range tasks {
		tasks[i].Decorate(now)
	}
	return tasks, nil
}

func joinIDs(ids []uint) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

// ParseLabels decodes the stored JSON label array, used by handlers that
// expose labels as structured data.
func ParseLabels(raw string) []map[string]string {
	if raw == "" {
		return nil
	}
	var labels []map[string]string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil
	}
	return labels
}
