package models

import (
	"time"

	"gorm.io/gorm"
)

// Goal statuses.
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusOverdue   = "overdue"
)

// Goal units.
const (
	GoalUnitTasks    = "tasks"
	GoalUnitDays     = "days"
	GoalUnitMembers  = "members"
	GoalUnitProjects = "projects"
	GoalUnitHours    = "hours"
)

// Goal contributor roles.
const (
	ContributorOwner       = "owner"
	ContributorContributor = "contributor"
	ContributorViewer      = "viewer"
)

// Goal is a bounded counter scoped to a workspace. Status is derived from
// progress against target and deadline, recomputed on every progress update,
// and persisted. Deletion is soft via IsActive.
type Goal struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkspaceID uint       `gorm:"index:idx_goal_workspace_status;not null" json:"workspace_id"`
	Workspace   *Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:1000" json:"description"`
	Target      float64    `gorm:"not null" json:"target"`
	Current     float64    `gorm:"default:0" json:"current"`
	Unit        string     `gorm:"size:20;default:tasks" json:"unit"`
	Deadline    time.Time  `gorm:"index;not null" json:"deadline"`
	Status      string     `gorm:"size:20;index:idx_goal_workspace_status;default:active" json:"status"`
	CreatedByID uint       `gorm:"index;not null" json:"created_by_id"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`

	Contributors    []GoalContributor    `gorm:"foreignKey:GoalID" json:"contributors,omitempty"`
	ProgressUpdates []GoalProgressUpdate `gorm:"foreignKey:GoalID" json:"progress_updates,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Goal) TableName() string { return "goals" }

// ProgressPercentage derives completion percent, capped at 100.
func (g *Goal) ProgressPercentage() float64 {
	if g.Target <= 0 {
		return 0
	}
	pct := g.Current / g.Target * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ApplyProgress clamps value to [0, target], appends a progress update with
// the clamped value and recomputes the status. The caller persists the goal
// and the returned update row.
func (g *Goal) ApplyProgress(value float64, userID uint, note string, now time.Time) GoalProgressUpdate {
	clamped := value
	if clamped < 0 {
		clamped = 0
	}
	if clamped > g.Target {
		clamped = g.Target
	}
	g.Current = clamped
	g.RefreshStatus(now)

	return GoalProgressUpdate{
		GoalID:    g.ID,
		UserID:    userID,
		Value:     clamped,
		Note:      note,
		CreatedAt: now,
	}
}

// RefreshStatus recomputes the derived status: completed when the target is
// reached, overdue past the deadline, active otherwise.
func (g *Goal) RefreshStatus(now time.Time) {
	switch {
	case g.Current >= g.Target:
		g.Status = GoalStatusCompleted
	case now.After(g.Deadline):
		g.Status = GoalStatusOverdue
	default:
		g.Status = GoalStatusActive
	}
}

// GoalContributor links a user to a goal. A user appears at most once per goal.
type GoalContributor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GoalID    uint      `gorm:"uniqueIndex:idx_goal_contributor;not null" json:"goal_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_goal_contributor;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:20;default:contributor" json:"role"` // owner, contributor, viewer
	CreatedAt time.Time `json:"created_at"`
}

func (GoalContributor) TableName() string { return "goal_contributors" }

// GoalProgressUpdate is an append-only log entry of a progress change.
type GoalProgressUpdate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GoalID    uint      `gorm:"index;not null" json:"goal_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Value     float64   `gorm:"not null" json:"value"`
	Note      string    `gorm:"size:500" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func (GoalProgressUpdate) TableName() string { return "goal_progress_updates" }
