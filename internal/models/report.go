package models

import "time"

// ReportTargetType says what kind of entity a report complains about.
type ReportTargetType string

const (
	// ReportTargetComment targets a comment.
	ReportTargetComment ReportTargetType = "comment"
	// ReportTargetUser targets a user account.
	ReportTargetUser ReportTargetType = "user"
)

// ReportReason is the closed set of complaint categories.
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonOffensive     ReportReason = "offensive"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonOther         ReportReason = "other"
)

// Valid reports whether r is a known reason.
func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonSpam, ReportReasonInappropriate, ReportReasonOffensive,
		ReportReasonHarassment, ReportReasonOther:
		return true
	}
	return false
}

// Label returns the display name used in notification messages.
func (r ReportReason) Label() string {
	switch r {
	case ReportReasonSpam:
		return "spam"
	case ReportReasonInappropriate:
		return "inappropriate content"
	case ReportReasonOffensive:
		return "offensive content"
	case ReportReasonHarassment:
		return "harassment"
	}
	return "other"
}

// Report status values.
const (
	ReportStatusPending   = "pending"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Report is a complaint filed by a user against a comment or another user.
// A given reporter may hold at most one open report per target; the
// repository enforces this with an atomic check-then-write.
type Report struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Reference        string           `gorm:"size:36;uniqueIndex" json:"reference"`
	TargetType       ReportTargetType `gorm:"type:varchar(16);not null;index:idx_reports_target" json:"target_type"`
	TargetID         uint             `gorm:"not null;index:idx_reports_target" json:"target_id"`
	ReporterID       uint             `gorm:"not null;index" json:"reporter_id"`
	Reporter         *User            `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reason           ReportReason     `gorm:"type:varchar(16);not null" json:"reason"`
	Description      string           `gorm:"type:text" json:"description"`
	Status           string           `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ResolvedByUserID *uint            `json:"resolved_by_user_id,omitempty"`
	ResolvedByUser   *User            `gorm:"foreignKey:ResolvedByUserID" json:"resolved_by_user,omitempty"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
	ResolutionNote   string           `gorm:"type:text" json:"resolution_note,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Open reports whether the report still awaits resolution.
func (r *Report) Open() bool {
	return r.Status == ReportStatusPending
}
