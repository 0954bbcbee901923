package models

import "time"

// Favorite marks a manga as favorited by a user.
type Favorite struct {
	UserID     uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	MangaID    uint       `gorm:"primaryKey;autoIncrement:false" json:"manga_id"`
	Manga      *Manga     `gorm:"foreignKey:MangaID" json:"manga,omitempty"`
	AddedAt    time.Time  `gorm:"not null" json:"added_at"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}

// ReadingHistoryEntry records one chapter read by a user. Per-user history is
// capped; re-reading a chapter replaces the earlier entry.
type ReadingHistoryEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	MangaID       uint      `gorm:"not null" json:"manga_id"`
	ChapterID     uint      `gorm:"not null;index" json:"chapter_id"`
	ChapterNumber float64   `json:"chapter_number"`
	Progress      int       `gorm:"not null;default:100" json:"progress"`
	ReadAt        time.Time `gorm:"not null" json:"read_at"`
}

// TableName specifies the table name for GORM.
func (ReadingHistoryEntry) TableName() string {
	return "reading_history"
}
