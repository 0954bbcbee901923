package models

import (
	"time"

	"gorm.io/datatypes"
)

// ContentKind is the kind of catalog entity a submission carries.
type ContentKind string

const (
	// ContentKindTitle is a new manga title.
	ContentKindTitle ContentKind = "title"
	// ContentKindChapter is a chapter for an existing title.
	ContentKindChapter ContentKind = "chapter"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	return k == ContentKindTitle || k == ContentKindChapter
}

// PendingContentStatus defines lifecycle states for content submissions.
type PendingContentStatus string

const (
	// PendingContentStatusPending indicates the submission is awaiting review.
	PendingContentStatusPending PendingContentStatus = "pending"
	// PendingContentStatusApproved indicates the submission was accepted.
	PendingContentStatusApproved PendingContentStatus = "approved"
	// PendingContentStatusRejected indicates the submission was denied.
	PendingContentStatusRejected PendingContentStatus = "rejected"
)

// PendingContent is a content submission awaiting moderator review. It is
// created only for submitters whose role requires approval, and is terminal
// once approved or rejected.
type PendingContent struct {
	ID                uint                 `gorm:"primaryKey" json:"id"`
	Kind              ContentKind          `gorm:"type:varchar(16);not null" json:"kind"`
	Payload           datatypes.JSON       `gorm:"not null" json:"payload"`
	SubmittedByUserID uint                 `gorm:"not null;index" json:"submitted_by_user_id"`
	SubmittedByUser   *User                `gorm:"foreignKey:SubmittedByUserID" json:"submitted_by_user,omitempty"`
	SubmittedAt       time.Time            `gorm:"not null" json:"submitted_at"`
	Status            PendingContentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedByUserID  *uint                `json:"reviewed_by_user_id,omitempty"`
	ReviewedByUser    *User                `gorm:"foreignKey:ReviewedByUserID" json:"reviewed_by_user,omitempty"`
	ReviewedAt        *time.Time           `json:"reviewed_at,omitempty"`
	ReviewNotes       string               `gorm:"type:text" json:"review_notes,omitempty"`
	// ContentID is the live catalog id once the payload is materialized by approval.
	ContentID *uint     `json:"content_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
