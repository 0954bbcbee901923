package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MangaStatus is the publication state of a title.
type MangaStatus string

const (
	MangaStatusOngoing   MangaStatus = "ongoing"
	MangaStatusCompleted MangaStatus = "completed"
	MangaStatusHiatus    MangaStatus = "hiatus"
)

// MangaType distinguishes origin styles.
type MangaType string

const (
	MangaTypeManga  MangaType = "manga"
	MangaTypeManhwa MangaType = "manhwa"
	MangaTypeManhua MangaType = "manhua"
)

// Manga is a live catalog title.
type Manga struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"not null;index" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	CoverURL        string         `json:"cover_url"`
	Author          string         `json:"author"`
	Artist          string         `json:"artist"`
	Year            int            `json:"year"`
	Status          MangaStatus    `gorm:"type:varchar(16);not null;default:'ongoing'" json:"status"`
	Type            MangaType      `gorm:"type:varchar(16);not null;default:'manga'" json:"type"`
	Genres          datatypes.JSON `json:"genres,omitempty"`
	Views           int64          `gorm:"not null;default:0" json:"views"`
	ChaptersCount   int64          `gorm:"-" json:"chapters_count"`
	CreatedByUserID uint           `gorm:"not null;index" json:"created_by_user_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Chapter is a released chapter of a title.
type Chapter struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	MangaID         uint           `gorm:"not null;index" json:"manga_id"`
	Manga           *Manga         `gorm:"foreignKey:MangaID" json:"manga,omitempty"`
	Title           string         `json:"title"`
	Number          float64        `gorm:"not null" json:"number"`
	Pages           datatypes.JSON `json:"pages,omitempty"`
	PublishedAt     time.Time      `json:"published_at"`
	CreatedByUserID uint           `gorm:"not null" json:"created_by_user_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// MangaPayload is the submission payload for ContentKindTitle. It mirrors the
// Manga columns a contributor may set.
type MangaPayload struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CoverURL    string      `json:"cover_url"`
	Author      string      `json:"author"`
	Artist      string      `json:"artist"`
	Year        int         `json:"year"`
	Status      MangaStatus `json:"status"`
	Type        MangaType   `json:"type"`
	Genres      []string    `json:"genres"`
}

// ChapterPayload is the submission payload for ContentKindChapter.
type ChapterPayload struct {
	MangaID uint     `json:"manga_id"`
	Title   string   `json:"title"`
	Number  float64  `json:"number"`
	Pages   []string `json:"pages"`
}
