package models

import "time"

// Activity event types.
const (
	ActivityTaskCreated       = "task_created"
	ActivityTaskUpdated       = "task_updated"
	ActivityTaskCompleted     = "task_completed"
	ActivityTaskDeleted       = "task_deleted"
	ActivityCommentAdded      = "comment_added"
	ActivityMemberJoined      = "member_joined"
	ActivityMemberLeft        = "member_left"
	ActivityMemberRoleChanged = "member_role_changed"
	ActivityGoalCreated       = "goal_created"
	ActivityGoalUpdated       = "goal_updated"
	ActivityGoalCompleted     = "goal_completed"
	ActivityWorkspaceCreated  = "workspace_created"
	ActivityWorkspaceUpdated  = "workspace_updated"
)

// Entity types an activity can reference.
const (
	EntityTask      = "task"
	EntityComment   = "comment"
	EntityMember    = "member"
	EntityGoal      = "goal"
	EntityWorkspace = "workspace"
)

var activityMessages = map[string]string{
	ActivityTaskCreated:       "created a new task",
	ActivityTaskUpdated:       "updated a task",
	ActivityTaskCompleted:     "completed a task",
	ActivityTaskDeleted:       "deleted a task",
	ActivityCommentAdded:      "added a comment",
	ActivityMemberJoined:      "joined the workspace",
	ActivityMemberLeft:        "left the workspace",
	ActivityMemberRoleChanged: "changed member role",
	ActivityGoalCreated:       "created a new goal",
	ActivityGoalUpdated:       "updated a goal",
	ActivityGoalCompleted:     "completed a goal",
	ActivityWorkspaceCreated:  "created a new workspace",
	ActivityWorkspaceUpdated:  "updated workspace settings",
}

// ActivityMessage returns the canned message for an event type, falling back
// to a generic string for unrecognized types.
func ActivityMessage(activityType string) string {
	if msg, ok := activityMessages[activityType]; ok {
		return msg
	}
	return "performed an action"
}

// Activity is an append-only audit record of a domain event. Once created it
// is never updated except to append read receipts and mentions.
type Activity struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkspaceID uint       `gorm:"index:idx_activity_workspace_created;not null" json:"workspace_id"`
	Workspace   *Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        string     `gorm:"size:50;index;not null" json:"type"`
	EntityType  string     `gorm:"size:20" json:"entity_type"` // task, comment, member, goal, workspace
	EntityID    *uint      `gorm:"index" json:"entity_id"`
	Metadata    string     `gorm:"type:text" json:"metadata"` // JSON old/new value snapshots
	Message     string     `gorm:"size:500;not null" json:"message"`
	IsPublic    bool       `gorm:"default:true" json:"is_public"`

	Mentions []ActivityMention `gorm:"foreignKey:ActivityID" json:"mentions,omitempty"`
	ReadBy   []ActivityRead    `gorm:"foreignKey:ActivityID" json:"read_by,omitempty"`

	// Best-effort resolution of the referenced entity, never stored
	Entity interface{} `gorm:"-" json:"entity,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_activity_workspace_created,sort:desc" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }

// ActivityMention records a user mentioned by an activity and whether they
// have been notified yet.
type ActivityMention struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"uniqueIndex:idx_activity_mention;not null" json:"activity_id"`
	UserID     uint      `gorm:"uniqueIndex:idx_activity_mention;not null" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Notified   bool      `gorm:"default:false" json:"notified"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityMention) TableName() string { return "activity_mentions" }

// ActivityRead is a per-user read receipt.
type ActivityRead struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"uniqueIndex:idx_activity_read;not null" json:"activity_id"`
	UserID     uint      `gorm:"uniqueIndex:idx_activity_read;not null" json:"user_id"`
	ReadAt     time.Time `json:"read_at"`
}

func (ActivityRead) TableName() string { return "activity_reads" }
