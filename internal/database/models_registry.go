package database

import "mangafas/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Suspension{},
		&models.Manga{},
		&models.Chapter{},
		&models.PendingContent{},
		&models.Comment{},
		&models.CommentReaction{},
		&models.Report{},
		&models.Notification{},
		&models.Favorite{},
		&models.ReadingHistoryEntry{},
	}
}
