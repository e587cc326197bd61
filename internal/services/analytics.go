package services

import (
	"time"

	"github.com/taskflow/backend/internal/models"
	"gorm.io/gorm"
)

type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

type AnalyticsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// Range resolves the request's date window, defaulting to the trailing 30
// days.
func (r *AnalyticsRequest) Range() (time.Time, time.Time) {
	var startDate, endDate time.Time
	var err error

	if r.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			startDate = time.Now().AddDate(0, 0, -30)
		}
	} else {
		startDate = time.Now().AddDate(0, 0, -30)
	}

	if r.EndDate != "" {
		endDate, err = time.Parse("2006-01-02", r.EndDate)
		if err != nil {
			endDate = time.Now()
		}
		endDate = endDate.Add(24*time.Hour - time.Second)
	} else {
		endDate = time.Now()
	}

	return startDate, endDate
}

type OverviewStats struct {
	TasksCreated    int64   `json:"tasks_created"`
	TasksCompleted  int64   `json:"tasks_completed"`
	ActiveMembers   int64   `json:"active_members"`
	GoalsCompleted  int64   `json:"goals_completed"`
	AverageLeadDays float64 `json:"average_lead_days"`
}

type StatusBreakdown struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type PriorityBreakdown struct {
	Priority string `json:"priority"`
	Count    int64  `json:"count"`
}

type CompletionPoint struct {
	Day       string `json:"day"`
	Completed int64  `json:"completed"`
	Created   int64  `json:"created"`
}

type OverviewResponse struct {
	Stats      OverviewStats       `json:"stats"`
	ByStatus   []StatusBreakdown   `json:"by_status"`
	ByPriority []PriorityBreakdown `json:"by_priority"`
	Throughput []CompletionPoint   `json:"throughput"`
}

// Overview aggregates a workspace's task flow over the date window.
func (s *AnalyticsService) Overview(workspaceID uint, req *AnalyticsRequest) (*OverviewResponse, error) {
	startDate, endDate := req.Range()

	var stats OverviewStats

	s.db.Model(&models.Task{}).
		Where("workspace_id = ? AND created_at BETWEEN ? AND ?", workspaceID, startDate, endDate).
		Count(&stats.TasksCreated)

	s.db.Model(&models.Task{}).
		Where("workspace_id = ? AND completed_at BETWEEN ? AND ?", workspaceID, startDate, endDate).
		Count(&stats.TasksCompleted)

	s.db.Model(&models.Activity{}).
		Where("workspace_id = ? AND created_at BETWEEN ? AND ?", workspaceID, startDate, endDate).
		Distinct("user_id").
		Count(&stats.ActiveMembers)

	s.db.Model(&models.Goal{}).
		Where("workspace_id = ? AND status = ? AND updated_at BETWEEN ? AND ?",
			workspaceID, models.GoalStatusCompleted, startDate, endDate).
		Count(&stats.GoalsCompleted)

	// Lead time: creation to completion, over tasks finished in the window
	s.db.Model(&models.Task{}).
		Where("workspace_id = ? AND completed_at BETWEEN ? AND ?", workspaceID, startDate, endDate).
		Select("COALESCE(AVG(JULIANDAY(completed_at) - JULIANDAY(created_at)), 0)").
		Scan(&stats.AverageLeadDays)

	var byStatus []StatusBreakdown
	s.db.Model(&models.Task{}).
		Select("status, COUNT(*) as count").
		Where("workspace_id = ? AND is_archived = ?", workspaceID, false).
		Group("status").
		Scan(&byStatus)

	var byPriority []PriorityBreakdown
	s.db.Model(&models.Task{}).
		Select("priority, COUNT(*) as count").
		Where("workspace_id = ? AND is_archived = ?", workspaceID, false).
		Group("priority").
		Scan(&byPriority)

	var completed []CompletionPoint
	s.db.Model(&models.Task{}).
		Select("DATE(completed_at) as day, COUNT(*) as completed").
		Where("workspace_id = ? AND completed_at BETWEEN ? AND ?", workspaceID, startDate, endDate).
		Group("DATE(completed_at)").
		Order("day ASC").
		Scan(&completed)

	var created []CompletionPoint
	s.db.Model(&models.Task{}).
		Select("DATE(created_at) as day, COUNT(*) as created").
		Where("workspace_id = ? AND created_at BETWEEN ? AND ?", workspaceID, startDate, endDate).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&created)

	throughput := mergeThroughput(created, completed)

	return &OverviewResponse{
		Stats:      stats,
		ByStatus:   byStatus,
		ByPriority: byPriority,
		Throughput: throughput,
	}, nil
}

func mergeThroughput(created, completed []CompletionPoint) []CompletionPoint {
	byDay := make(map[string]*CompletionPoint)
	var order []string

	for _, p := range created {
		cp := &CompletionPoint{Day: p.Day, Created: p.Created}
		byDay[p.Day] = cp
		order = append(order, p.Day)
	}
	for _, p := range completed {
		if cp, ok := byDay[p.Day]; ok {
			cp.Completed = p.Completed
		} else {
			byDay[p.Day] = &CompletionPoint{Day: p.Day, Completed: p.Completed}
			order = append(order, p.Day)
		}
	}

	// Re-sort merged days lexicographically, which is chronological for
	// ISO dates
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && order[j] < order[j-1]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	merged := make([]CompletionPoint, 0, len(order))
	for _, day := range order {
		merged = append(merged, *byDay[day])
	}
	return merged
}

type MemberProductivity struct {
	UserID         uint    `json:"user_id"`
	Name           string  `json:"name"`
	TasksCompleted int64   `json:"tasks_completed"`
	TasksAssigned  int64   `json:"tasks_assigned"`
	CommentsAdded  int64   `json:"comments_added"`
	HoursLogged    float64 `json:"hours_logged"`
}

// Productivity breaks down per-member output over the date window.
func (s *AnalyticsService) Productivity(workspaceID uint, req *AnalyticsRequest) ([]MemberProductivity, error) {
	startDate, endDate := req.Range()

	var rows []MemberProductivity
	err := s.db.Model(&models.Task{}).
		Select("tasks.assignee_id as user_id, users.name, "+
			"COUNT(CASE WHEN tasks.completed_at BETWEEN ? AND ? THEN 1 END) as tasks_completed, "+
			"COUNT(*) as tasks_assigned, "+
			"COALESCE(SUM(tasks.actual_hours), 0) as hours_logged",
			startDate, endDate).
		Joins("JOIN users ON users.id = tasks.assignee_id").
		Where("tasks.workspace_id = ? AND tasks.is_archived = ? AND tasks.assignee_id IS NOT NULL",
			workspaceID, false).
		Group("tasks.assignee_id, users.name").
		Order("tasks_completed DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		s.db.Model(&models.TaskComment{}).
			Joins("JOIN tasks ON tasks.id = task_comments.task_id").
			Where("tasks.workspace_id = ? AND task_comments.user_id = ? AND task_comments.created_at BETWEEN ? AND ?",
				workspaceID, rows[i].UserID, startDate, endDate).
			Count(&rows[i].CommentsAdded)
	}

	return rows, nil
}
