package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/taskflow/backend/internal/models"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByID returns a user by ID.
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type UpdateProfileRequest struct {
	Name   string `json:"name" binding:"omitempty,min=1,max=100"`
	Avatar string `json:"avatar" binding:"omitempty,max=500"`
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(id uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

// UpdatePreferences merges the given keys into the stored preference bag.
func (s *UserService) UpdatePreferences(id uint, prefs map[string]interface{}) (map[string]interface{}, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]interface{})
	if user.Preferences != "" {
		_ = json.Unmarshal([]byte(user.Preferences), &merged)
	}
	for k, v := range prefs {
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("preferences", string(raw)).Error; err != nil {
		return nil, err
	}
	return merged, nil
}

// GetPreferences decodes the stored preference bag.
func (s *UserService) GetPreferences(id uint) (map[string]interface{}, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	prefs := make(map[string]interface{})
	if user.Preferences != "" {
		_ = json.Unmarshal([]byte(user.Preferences), &prefs)
	}
	return prefs, nil
}

// Search finds active users by name or email prefix, for member pickers.
func (s *UserService) Search(query string, limit int) ([]models.User, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	like := "%" + query + "%"
	var users []models.User
	err := s.db.
		Where("is_active = ? AND (name LIKE ? OR email LIKE ?)", true, like, like).
		Order("name ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

type AdminUserListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Search   string `form:"search"`
	Role     string `form:"role"`
	Active   *bool  `form:"active"`
}

type AdminUserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

// List returns a paged admin view of all accounts.
func (s *UserService) List(req *AdminUserListRequest) (*AdminUserListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.User{})
	if req.Search != "" {
		like := "%" + req.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Active != nil {
		query = query.Where("is_active = ?", *req.Active)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	err := query.
		Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return &AdminUserListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    users,
	}, nil
}

// SetActive flips the account's active flag.
func (s *UserService) SetActive(id uint, active bool) error {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetRole changes the account's system role.
func (s *UserService) SetRole(id uint, role string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type UserStats struct {
	AssignedTasks   int64 `json:"assigned_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	OverdueTasks    int64 `json:"overdue_tasks"`
	Workspaces      int64 `json:"workspaces"`
	CommentsWritten int64 `json:"comments_written"`
}

// Stats summarizes a user's footprint across the system.
func (s *UserService) Stats(userID uint) (*UserStats, error) {
	stats := &UserStats{}

	if err := s.db.Model(&models.Task{}).
		Where("assignee_id = ? AND is_archived = ?", userID, false).
		Count(&stats.AssignedTasks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Task{}).
		Where("assignee_id = ? AND is_archived = ? AND status = ?", userID, false, models.TaskStatusDone).
		Count(&stats.CompletedTasks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Task{}).
		Where("assignee_id = ? AND is_archived = ? AND status <> ? AND due_date < ?",
			userID, false, models.TaskStatusDone, time.Now()).
		Count(&stats.OverdueTasks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.WorkspaceMember{}).
		Where("user_id = ?", userID).
		Count(&stats.Workspaces).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.TaskComment{}).
		Where("user_id = ?", userID).
		Count(&stats.CommentsWritten).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
