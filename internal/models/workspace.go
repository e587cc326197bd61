package models

import (
	"time"

	"gorm.io/gorm"
)

// Workspace visibility settings.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityTeam    = "team"
)

// Workspace is the tenant-scoped container for tasks, goals and members.
// Deletion is soft via IsActive.
type Workspace struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Color       string `gorm:"size:20;default:#3B82F6" json:"color"`
	Icon        string `gorm:"size:10" json:"icon"`
	OwnerID     uint   `gorm:"index;not null" json:"owner_id"`
	Owner       *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Settings
	Visibility        string `gorm:"size:20;default:private" json:"visibility"` // public, private, team
	AllowGuestAccess  bool   `gorm:"default:false" json:"allow_guest_access"`
	DefaultTaskStatus string `gorm:"size:20;default:todo" json:"default_task_status"`
	TaskLabels        string `gorm:"type:text" json:"task_labels"` // JSON array of {name,color}

	// Denormalized stats, recomputed from the task and member tables
	TotalTasks     int `gorm:"default:0" json:"total_tasks"`
	CompletedTasks int `gorm:"default:0" json:"completed_tasks"`
	TotalMembers   int `gorm:"default:1" json:"total_members"`

	Members []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Workspace) TableName() string { return "workspaces" }

// CompletionPercentage derives the task completion rate from the stats cache.
func (w *Workspace) CompletionPercentage() int {
	if w.TotalTasks == 0 {
		return 0
	}
	return int(float64(w.CompletedTasks)/float64(w.TotalTasks)*100 + 0.5)
}

// WorkspaceMember pairs a user with their role inside a workspace. A user
// appears at most once per workspace; removal deletes the row outright so the
// unique index never blocks a later re-invite.
type WorkspaceMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID uint      `gorm:"uniqueIndex:idx_workspace_user;not null" json:"workspace_id"`
	UserID      uint      `gorm:"uniqueIndex:idx_workspace_user;not null" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        string    `gorm:"size:20;default:member" json:"role"` // owner, admin, member, viewer
	JoinedAt    time.Time `json:"joined_at"`
	InvitedByID *uint     `json:"invited_by_id"`
	InvitedBy   *User     `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (WorkspaceMember) TableName() string { return "workspace_members" }
