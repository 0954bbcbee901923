package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentStatus is the comment visibility state.
// Transitions: active -> hidden -> active (restore), and
// active|hidden -> deleted (terminal).
type CommentStatus string

const (
	// CommentStatusActive is visible to everyone.
	CommentStatusActive CommentStatus = "active"
	// CommentStatusHidden was removed from view by a moderator, reversibly.
	CommentStatusHidden CommentStatus = "hidden"
	// CommentStatusDeleted is terminal; both self-delete and moderator delete land here.
	CommentStatusDeleted CommentStatus = "deleted"
)

// Comment is a reader comment on a manga or one of its chapters. Replies
// reference a parent comment id; the data model is flat with a single level
// of parent pointers, rendering recursion is a UI concern.
type Comment struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	MangaID   uint    `gorm:"not null;index" json:"manga_id"`
	ChapterID *uint   `gorm:"index" json:"chapter_id,omitempty"`
	UserID    uint    `gorm:"not null;index" json:"user_id"`
	User      *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string  `gorm:"type:text;not null" json:"content"`
	ParentID  *uint   `gorm:"index" json:"parent_id,omitempty"`
	IsEdited  bool    `gorm:"not null;default:false" json:"is_edited"`

	Status           CommentStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	ModeratedBy      *uint         `json:"moderated_by,omitempty"`
	ModeratedAt      *time.Time    `json:"moderated_at,omitempty"`
	ModerationReason string        `gorm:"type:text" json:"moderation_reason,omitempty"`

	// LikeCount and DislikeCount are not persisted; computed at query time.
	LikeCount    int64 `gorm:"-" json:"like_count"`
	DislikeCount int64 `gorm:"-" json:"dislike_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReactionKind is a like or dislike on a comment.
type ReactionKind string

const (
	// ReactionLike marks approval.
	ReactionLike ReactionKind = "like"
	// ReactionDislike marks disapproval.
	ReactionDislike ReactionKind = "dislike"
)

// CommentReaction records one user's reaction to one comment. The composite
// primary key makes the like/dislike sets structurally exclusive: a user holds
// at most one row per comment, and its kind says which set they are in.
type CommentReaction struct {
	CommentID uint         `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint         `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Kind      ReactionKind `gorm:"type:varchar(8);not null" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (CommentReaction) TableName() string {
	return "comment_reactions"
}

// CommentStats aggregates comment counts for the moderation dashboard.
type CommentStats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	Hidden         int64 `json:"hidden"`
	Deleted        int64 `json:"deleted"`
	PendingReports int64 `json:"pending_reports"`
}
