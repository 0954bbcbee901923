package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// NotificationType tags the state transition a notification records.
type NotificationType string

const (
	NotificationRoleChanged         NotificationType = "role_changed"
	NotificationBanned              NotificationType = "banned"
	NotificationUnbanned            NotificationType = "unbanned"
	NotificationCommentBanned       NotificationType = "comment_banned"
	NotificationCommentUnbanned     NotificationType = "comment_unbanned"
	NotificationContentPending      NotificationType = "content_pending_approval"
	NotificationContentApproved     NotificationType = "content_approved"
	NotificationContentRejected     NotificationType = "content_rejected"
	NotificationCommentHidden       NotificationType = "comment_hidden"
	NotificationCommentRestored     NotificationType = "comment_restored"
	NotificationCommentReported     NotificationType = "comment_reported"
	NotificationUserReported        NotificationType = "user_reported"
	NotificationNewUserRegistration NotificationType = "new_user_registration"
	NotificationNewChapter          NotificationType = "new_chapter"
)

// Notification is an asynchronous, per-user message recording a state
// transition that affects that user. Inboxes are capped; the repository
// evicts the oldest entries past the cap.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Payload   datatypes.JSON   `json:"payload,omitempty"`
	Read      bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Notification payloads, one variant per type. Each marshals into the opaque
// Payload column so consumers can switch on Type and decode the matching
// variant.

// RoleChangedPayload accompanies NotificationRoleChanged.
type RoleChangedPayload struct {
	OldRole   Role `json:"old_role"`
	NewRole   Role `json:"new_role"`
	ChangedBy uint `json:"changed_by"`
}

// SuspensionPayload accompanies the banned/unbanned notification types.
type SuspensionPayload struct {
	SuspensionID uint               `json:"suspension_id"`
	Kind         SuspensionKind     `json:"kind"`
	Duration     SuspensionDuration `json:"duration,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	ActorID      uint               `json:"actor_id"`
}

// ContentReviewPayload accompanies the content pending/approved/rejected types.
type ContentReviewPayload struct {
	PendingContentID uint        `json:"pending_content_id"`
	Kind             ContentKind `json:"kind"`
	ContentID        uint        `json:"content_id,omitempty"`
}

// CommentModerationPayload accompanies comment hidden/restored types.
type CommentModerationPayload struct {
	CommentID uint   `json:"comment_id"`
	Reason    string `json:"reason,omitempty"`
}

// ReportFiledPayload accompanies the comment/user reported types sent to
// administrators.
type ReportFiledPayload struct {
	ReportID   uint             `json:"report_id"`
	TargetType ReportTargetType `json:"target_type"`
	TargetID   uint             `json:"target_id"`
}

// NewUserPayload accompanies NotificationNewUserRegistration.
type NewUserPayload struct {
	UserID uint `json:"user_id"`
}

// NewChapterPayload accompanies NotificationNewChapter.
type NewChapterPayload struct {
	MangaID   uint `json:"manga_id"`
	ChapterID uint `json:"chapter_id"`
}

// MarshalPayload encodes a typed payload variant for storage. A nil payload
// yields a nil column.
func MarshalPayload(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
