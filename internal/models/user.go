// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered reader or contributor.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"unique;not null" json:"username"`
	Email       string         `gorm:"unique;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	Role        Role           `gorm:"type:varchar(32);not null;default:'member';index" json:"role"`
	Bio         string         `json:"bio"`
	Avatar      string         `json:"avatar"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// UnreadNotifications is not persisted; filled from the inbox at query time.
	UnreadNotifications int64 `gorm:"-" json:"unread_notifications"`
}

// Permissions returns the capability set granted by the user's role.
func (u *User) Permissions() Capabilities {
	return PermissionsFor(u.Role)
}
