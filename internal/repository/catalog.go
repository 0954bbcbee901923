package repository

import (
	"context"
	"errors"
	"time"

	"mangafas/internal/cache"
	"mangafas/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository defines persistence operations for the live catalog:
// manga, chapters, favorites and reading history.
type CatalogRepository interface {
	CreateManga(ctx context.Context, manga *models.Manga) error
	GetManga(ctx context.Context, id uint) (*models.Manga, error)
	ListManga(ctx context.Context, limit, offset int) ([]models.Manga, error)
	SearchManga(ctx context.Context, query string, limit, offset int) ([]models.Manga, error)
	IncrementViews(ctx context.Context, mangaID uint) error
	DeleteManga(ctx context.Context, id uint) error

	CreateChapter(ctx context.Context, chapter *models.Chapter) error
	GetChapter(ctx context.Context, id uint) (*models.Chapter, error)
	ListChapters(ctx context.Context, mangaID uint) ([]models.Chapter, error)

	AddFavorite(ctx context.Context, fav *models.Favorite) error
	RemoveFavorite(ctx context.Context, userID, mangaID uint) error
	ListFavorites(ctx context.Context, userID uint) ([]models.Favorite, error)
	// ListFavoriters returns the ids of every user who favorited a manga.
	ListFavoriters(ctx context.Context, mangaID uint) ([]uint, error)
	TouchFavorite(ctx context.Context, userID, mangaID uint, readAt time.Time) error
	DeleteFavoritesByUser(ctx context.Context, userID uint) error

	// RecordRead inserts a reading history entry, replacing a previous entry
	// for the same chapter and trimming the user's history past cap.
	RecordRead(ctx context.Context, entry *models.ReadingHistoryEntry, cap int) error
	ListHistory(ctx context.Context, userID uint, limit, offset int) ([]models.ReadingHistoryEntry, error)
	DeleteHistoryByUser(ctx context.Context, userID uint) error
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository returns a new CatalogRepository implementation.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateManga(ctx context.Context, manga *models.Manga) error {
	if err := r.db.WithContext(ctx).Create(manga).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *catalogRepository) GetManga(ctx context.Context, id uint) (*models.Manga, error) {
	var manga models.Manga
	key := cache.MangaKey(id)

	err := cache.Aside(ctx, key, &manga, cache.MangaTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&manga, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Manga", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := readDB(r.db).WithContext(ctx).Model(&models.Chapter{}).
		Where("manga_id = ?", id).
		Count(&manga.ChaptersCount).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &manga, nil
}

func (r *catalogRepository) ListManga(ctx context.Context, limit, offset int) ([]models.Manga, error) {
	var items []models.Manga
	if err := readDB(r.db).WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *catalogRepository) SearchManga(ctx context.Context, query string, limit, offset int) ([]models.Manga, error) {
	var items []models.Manga
	pattern := "%" + query + "%"
	if err := readDB(r.db).WithContext(ctx).
		Where("title ILIKE ? OR author ILIKE ?", pattern, pattern).
		Order("views DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *catalogRepository) IncrementViews(ctx context.Context, mangaID uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Manga{}).
		Where("id = ?", mangaID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *catalogRepository) DeleteManga(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Manga{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateManga(ctx, id)
	return nil
}

func (r *catalogRepository) CreateChapter(ctx context.Context, chapter *models.Chapter) error {
	if err := r.db.WithContext(ctx).Create(chapter).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateManga(ctx, chapter.MangaID)
	return nil
}

func (r *catalogRepository) GetChapter(ctx context.Context, id uint) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := readDB(r.db).WithContext(ctx).Preload("Manga").First(&chapter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Chapter", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &chapter, nil
}

func (r *catalogRepository) ListChapters(ctx context.Context, mangaID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	if err := readDB(r.db).WithContext(ctx).
		Where("manga_id = ?", mangaID).
		Order("number ASC").
		Find(&chapters).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return chapters, nil
}

func (r *catalogRepository) AddFavorite(ctx context.Context, fav *models.Favorite) error {
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("manga is already in favorites")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *catalogRepository) RemoveFavorite(ctx context.Context, userID, mangaID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND manga_id = ?", userID, mangaID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Favorite", mangaID)
	}
	return nil
}

func (r *catalogRepository) ListFavorites(ctx context.Context, userID uint) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := readDB(r.db).WithContext(ctx).
		Preload("Manga").
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&favorites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return favorites, nil
}

func (r *catalogRepository) ListFavoriters(ctx context.Context, mangaID uint) ([]uint, error) {
	var userIDs []uint
	if err := readDB(r.db).WithContext(ctx).Model(&models.Favorite{}).
		Where("manga_id = ?", mangaID).
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return userIDs, nil
}

func (r *catalogRepository) TouchFavorite(ctx context.Context, userID, mangaID uint, readAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND manga_id = ?", userID, mangaID).
		Update("last_read_at", readAt).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *catalogRepository) DeleteFavoritesByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Favorite{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *catalogRepository) RecordRead(ctx context.Context, entry *models.ReadingHistoryEntry, cap int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-reading a chapter replaces the earlier entry.
		if err := tx.Where("user_id = ? AND chapter_id = ?", entry.UserID, entry.ChapterID).
			Delete(&models.ReadingHistoryEntry{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Create(entry).Error; err != nil {
			return models.NewInternalError(err)
		}
		if cap <= 0 {
			return nil
		}
		var count int64
		if err := tx.Model(&models.ReadingHistoryEntry{}).
			Where("user_id = ?", entry.UserID).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count <= int64(cap) {
			return nil
		}
		excess := count - int64(cap)
		var victims []uint
		if err := tx.Model(&models.ReadingHistoryEntry{}).
			Where("user_id = ?", entry.UserID).
			Order("read_at ASC, id ASC").
			Limit(int(excess)).
			Pluck("id", &victims).Error; err != nil {
			return models.NewInternalError(err)
		}
		if len(victims) > 0 {
			if err := tx.Delete(&models.ReadingHistoryEntry{}, victims).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})
}

func (r *catalogRepository) ListHistory(ctx context.Context, userID uint, limit, offset int) ([]models.ReadingHistoryEntry, error) {
	var entries []models.ReadingHistoryEntry
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("read_at DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *catalogRepository) DeleteHistoryByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ReadingHistoryEntry{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
