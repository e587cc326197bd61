package models

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Dependency relation kinds.
const (
	DependencyBlocks    = "blocks"
	DependencyBlockedBy = "blocked_by"
	DependencyRelatesTo = "relates_to"
)

// Task belongs to exactly one workspace; the workspace reference is immutable
// after creation. Deletion is soft via IsArchived. CompletedAt is stamped the
// first time the task enters done and never reset afterwards.
type Task struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	WorkspaceID    uint       `gorm:"index:idx_task_workspace_status;not null" json:"workspace_id"`
	Workspace      *Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    string     `gorm:"size:2000" json:"description"`
	Status         string     `gorm:"size:20;index:idx_task_workspace_status;default:todo" json:"status"`
	Priority       string     `gorm:"size:20;default:medium" json:"priority"`
	AssigneeID     *uint      `gorm:"index" json:"assignee_id"`
	Assignee       *User      `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	ReporterID     uint       `gorm:"index;not null" json:"reporter_id"`
	Reporter       *User      `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	DueDate        *time.Time `gorm:"index" json:"due_date"`
	StartDate      *time.Time `json:"start_date"`
	CompletedAt    *time.Time `json:"completed_at"`
	EstimatedHours *float64   `json:"estimated_hours"`
	ActualHours    *float64   `json:"actual_hours"`
	Tags           string     `gorm:"size:500" json:"tags"`           // comma-separated
	Labels         string     `gorm:"type:text" json:"labels"`        // JSON array of {name,color}
	CustomFields   string     `gorm:"type:text" json:"custom_fields"` // JSON object
	IsArchived     bool       `gorm:"default:false;index" json:"is_archived"`
	Position       int        `gorm:"default:0" json:"position"`

	Comments     []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Subtasks     []TaskSubtask    `gorm:"foreignKey:TaskID" json:"subtasks,omitempty"`
	Attachments  []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
	Dependencies []TaskDependency `gorm:"foreignKey:TaskID" json:"dependencies,omitempty"`
	Watchers     []TaskWatcher    `gorm:"foreignKey:TaskID" json:"watchers,omitempty"`

	// Derived fields, filled by Decorate, never stored
	Progress  int  `gorm:"-" json:"progress"`
	IsOverdue bool `gorm:"-" json:"is_overdue"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }

// ComputeProgress derives completion percent from subtasks: tasks without
// subtasks are 100 when done and 0 otherwise.
func (t *Task) ComputeProgress() int {
	if len(t.Subtasks) == 0 {
		if t.Status == TaskStatusDone {
			return 100
		}
		return 0
	}
	completed := 0
	for _, st := range t.Subtasks {
		if st.IsCompleted {
			completed++
		}
	}
	return int(float64(completed)/float64(len(t.Subtasks))*100 + 0.5)
}

// ComputeOverdue reports whether the task is past its due date and not done.
func (t *Task) ComputeOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusDone {
		return false
	}
	return now.After(*t.DueDate)
}

// Decorate fills the derived Progress and IsOverdue fields.
func (t *Task) Decorate(now time.Time) {
	t.Progress = t.ComputeProgress()
	t.IsOverdue = t.ComputeOverdue(now)
}

// ApplyStatus sets the status and stamps CompletedAt on the first transition
// into done. Leaving done, or re-entering it later, never touches the
// original completion time.
func (t *Task) ApplyStatus(status string, now time.Time) {
	t.Status = status
	if status == TaskStatusDone && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
}

// TaskComment is a comment owned by a task.
type TaskComment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TaskID    uint       `gorm:"index;not null" json:"task_id"`
	UserID    uint       `gorm:"not null" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string     `gorm:"size:1000;not null" json:"content"`
	Mentions  string     `gorm:"size:500" json:"mentions"` // comma-separated user ids
	IsEdited  bool       `gorm:"default:false" json:"is_edited"`
	EditedAt  *time.Time `json:"edited_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (TaskComment) TableName() string { return "task_comments" }

// TaskSubtask is a checklist entry owned by a task.
type TaskSubtask struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TaskID        uint       `gorm:"index;not null" json:"task_id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	IsCompleted   bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt   *time.Time `json:"completed_at"`
	CompletedByID *uint      `json:"completed_by_id"`
	CompletedBy   *User      `gorm:"foreignKey:CompletedByID" json:"completed_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (TaskSubtask) TableName() string { return "task_subtasks" }

// TaskAttachment records an uploaded file attached to a task.
type TaskAttachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TaskID       uint      `gorm:"index;not null" json:"task_id"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	Path         string    `gorm:"size:500;not null" json:"path"`
	Size         int64     `gorm:"not null" json:"size"`
	MimeType     string    `gorm:"size:100;not null" json:"mime_type"`
	UploadedByID uint      `gorm:"not null" json:"uploaded_by_id"`
	UploadedBy   *User     `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (TaskAttachment) TableName() string { return "task_attachments" }

// TaskDependency links a task to another task with a relation kind.
type TaskDependency struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TaskID          uint      `gorm:"uniqueIndex:idx_task_dependency;not null" json:"task_id"`
	DependsOnTaskID uint      `gorm:"uniqueIndex:idx_task_dependency;not null" json:"depends_on_task_id"`
	DependsOnTask   *Task     `gorm:"foreignKey:DependsOnTaskID" json:"depends_on_task,omitempty"`
	Type            string    `gorm:"size:20;default:blocks" json:"type"` // blocks, blocked_by, relates_to
	CreatedAt       time.Time `json:"created_at"`
}

func (TaskDependency) TableName() string { return "task_dependencies" }

// TaskWatcher subscribes a user to a task's changes.
type TaskWatcher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"uniqueIndex:idx_task_watcher;not null" json:"task_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_task_watcher;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (TaskWatcher) TableName() string { return "task_watchers" }
