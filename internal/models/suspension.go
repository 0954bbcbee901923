package models

import "time"

// SuspensionKind distinguishes the two independent suspension tracks.
type SuspensionKind string

const (
	// SuspensionKindSite blocks the user from the whole site.
	SuspensionKindSite SuspensionKind = "site"
	// SuspensionKindComment blocks writing comments only; reading is never blocked.
	SuspensionKindComment SuspensionKind = "comment"
)

// SuspensionDuration is either temporary (with an expiry) or permanent.
type SuspensionDuration string

const (
	// SuspensionTemporary expires at ExpiresAt, evaluated lazily on read.
	SuspensionTemporary SuspensionDuration = "temporary"
	// SuspensionPermanent never expires on its own.
	SuspensionPermanent SuspensionDuration = "permanent"
)

// SystemActor is recorded as the lifting actor when a temporary suspension
// expires and the first read flips it inactive.
const SystemActor = "system"

// Suspension is a site-wide or comment-only block on a user. At most one
// active suspension of a given kind exists per user at any time; the
// repository enforces this with an atomic check-then-write.
type Suspension struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	UserID         uint               `gorm:"not null;index:idx_suspensions_user_kind" json:"user_id"`
	User           *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	IssuedByUserID uint               `gorm:"not null" json:"issued_by_user_id"`
	IssuedByUser   *User              `gorm:"foreignKey:IssuedByUserID" json:"issued_by_user,omitempty"`
	Kind           SuspensionKind     `gorm:"type:varchar(16);not null;index:idx_suspensions_user_kind" json:"kind"`
	Duration       SuspensionDuration `gorm:"type:varchar(16);not null" json:"duration"`
	Reason         string             `gorm:"type:text;not null" json:"reason"`
	IssuedAt       time.Time          `gorm:"not null" json:"issued_at"`
	ExpiresAt      *time.Time         `json:"expires_at,omitempty"`
	Active         bool               `gorm:"not null;default:true;index" json:"active"`
	LiftedBy       string             `gorm:"type:varchar(64)" json:"lifted_by,omitempty"`
	LiftedAt       *time.Time         `json:"lifted_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Expired reports whether a temporary suspension's expiry has passed.
// Permanent suspensions never expire.
func (s *Suspension) Expired(now time.Time) bool {
	if s.Duration != SuspensionTemporary || s.ExpiresAt == nil {
		return false
	}
	return !now.Before(*s.ExpiresAt)
}
