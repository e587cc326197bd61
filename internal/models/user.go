package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Accounts are never hard-deleted; deactivation
// flips IsActive.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Email       string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string         `gorm:"size:255" json:"-"` // Hashed, empty for LDAP users
	Avatar      string         `gorm:"size:500" json:"avatar"`
	Role        string         `gorm:"size:50;default:user" json:"role"`       // admin, user
	AuthType    string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	Preferences string         `gorm:"type:text" json:"preferences"` // JSON preference bag
	LastLogin   *time.Time     `json:"last_login"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
