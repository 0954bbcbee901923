package service

import (
	"context"
	"time"

	"mangafas/internal/models"
	"mangafas/internal/repository"
)

// CatalogService serves the live catalog: browsing, favorites, and reading
// history.
type CatalogService struct {
	catalogRepo repository.CatalogRepository
	userRepo    repository.UserRepository
	suspensions *SuspensionService
	historyCap  int
	now         func() time.Time
}

// NewCatalogService returns a new CatalogService.
func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	userRepo repository.UserRepository,
	suspensions *SuspensionService,
	historyCap int,
) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		userRepo:    userRepo,
		suspensions: suspensions,
		historyCap:  historyCap,
		now:         time.Now,
	}
}

// GetManga returns a title and counts the view.
func (s *CatalogService) GetManga(ctx context.Context, id uint) (*models.Manga, error) {
	manga, err := s.catalogRepo.GetManga(ctx, id)
	if err != nil {
		return nil, err
	}
	// View counting is best effort.
	_ = s.catalogRepo.IncrementViews(ctx, id)
	return manga, nil
}

// ListManga returns a catalog page, most recently updated first.
func (s *CatalogService) ListManga(ctx context.Context, limit, offset int) ([]models.Manga, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.catalogRepo.ListManga(ctx, limit, offset)
}

// SearchManga finds titles by name or author fragment.
func (s *CatalogService) SearchManga(ctx context.Context, query string, limit, offset int) ([]models.Manga, error) {
	if query == "" {
		return s.ListManga(ctx, limit, offset)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.catalogRepo.SearchManga(ctx, query, limit, offset)
}

// ListChapters returns a title's chapters in reading order.
func (s *CatalogService) ListChapters(ctx context.Context, mangaID uint) ([]models.Chapter, error) {
	if _, err := s.catalogRepo.GetManga(ctx, mangaID); err != nil {
		return nil, err
	}
	return s.catalogRepo.ListChapters(ctx, mangaID)
}

// GetChapter returns one chapter with its title preloaded.
func (s *CatalogService) GetChapter(ctx context.Context, id uint) (*models.Chapter, error) {
	return s.catalogRepo.GetChapter(ctx, id)
}

// AddFavorite puts a title on the user's favorites shelf.
func (s *CatalogService) AddFavorite(ctx context.Context, userID, mangaID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Permissions().CanFavorite {
		return models.NewUnauthorizedError("Your role does not allow favorites")
	}
	if err := s.suspensions.EnsureNotSiteSuspended(ctx, userID); err != nil {
		return err
	}
	if _, err := s.catalogRepo.GetManga(ctx, mangaID); err != nil {
		return err
	}
	return s.catalogRepo.AddFavorite(ctx, &models.Favorite{
		UserID:  userID,
		MangaID: mangaID,
		AddedAt: s.now(),
	})
}

// RemoveFavorite takes a title off the shelf.
func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, mangaID uint) error {
	return s.catalogRepo.RemoveFavorite(ctx, userID, mangaID)
}

// ListFavorites returns the user's shelf, most recently added first.
func (s *CatalogService) ListFavorites(ctx context.Context, userID uint) ([]models.Favorite, error) {
	return s.catalogRepo.ListFavorites(ctx, userID)
}

// RecordRead logs a chapter read into the user's capped history and bumps the
// favorite's last-read marker when the title is shelved.
func (s *CatalogService) RecordRead(ctx context.Context, userID, chapterID uint, progress int) error {
	chapter, err := s.catalogRepo.GetChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	if progress <= 0 || progress > 100 {
		progress = 100
	}

	now := s.now()
	entry := &models.ReadingHistoryEntry{
		UserID:        userID,
		MangaID:       chapter.MangaID,
		ChapterID:     chapterID,
		ChapterNumber: chapter.Number,
		Progress:      progress,
		ReadAt:        now,
	}
	if err := s.catalogRepo.RecordRead(ctx, entry, s.historyCap); err != nil {
		return err
	}

	// Best effort; only matters when the title is favorited.
	_ = s.catalogRepo.TouchFavorite(ctx, userID, chapter.MangaID, now)
	return nil
}

// ListHistory returns the user's reading history, newest first.
func (s *CatalogService) ListHistory(ctx context.Context, userID uint, limit, offset int) ([]models.ReadingHistoryEntry, error) {
	if limit <= 0 || limit > s.historyCap {
		limit = s.historyCap
	}
	return s.catalogRepo.ListHistory(ctx, userID, limit, offset)
}
