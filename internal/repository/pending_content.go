package repository

import (
	"context"
	"errors"
	"time"

	"mangafas/internal/models"

	"gorm.io/gorm"
)

// PendingContentRepository defines persistence operations for content submissions.
type PendingContentRepository interface {
	Create(ctx context.Context, pc *models.PendingContent) error
	GetByID(ctx context.Context, id uint) (*models.PendingContent, error)
	ListByStatus(ctx context.Context, status models.PendingContentStatus, limit, offset int) ([]models.PendingContent, error)
	ListBySubmitter(ctx context.Context, userID uint, limit, offset int) ([]models.PendingContent, error)
	// Decide records the review decision. The status guard makes the review
	// one-shot: a submission already decided is left untouched and a conflict
	// is returned.
	Decide(ctx context.Context, id uint, status models.PendingContentStatus, reviewerID uint, notes string) error
	// SetContentID stamps the catalog entry an approved submission produced.
	SetContentID(ctx context.Context, id, contentID uint) error
	CountPending(ctx context.Context) (int64, error)
}

type pendingContentRepository struct {
	db *gorm.DB
}

// NewPendingContentRepository returns a new PendingContentRepository implementation.
func NewPendingContentRepository(db *gorm.DB) PendingContentRepository {
	return &pendingContentRepository{db: db}
}

func (r *pendingContentRepository) Create(ctx context.Context, pc *models.PendingContent) error {
	if err := r.db.WithContext(ctx).Create(pc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pendingContentRepository) GetByID(ctx context.Context, id uint) (*models.PendingContent, error) {
	var pc models.PendingContent
	if err := readDB(r.db).WithContext(ctx).
		Preload("SubmittedByUser").
		First(&pc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("PendingContent", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &pc, nil
}

func (r *pendingContentRepository) ListByStatus(ctx context.Context, status models.PendingContentStatus, limit, offset int) ([]models.PendingContent, error) {
	var items []models.PendingContent
	if err := readDB(r.db).WithContext(ctx).
		Preload("SubmittedByUser").
		Where("status = ?", status).
		Order("submitted_at ASC").
		Limit(limit).Offset(offset).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *pendingContentRepository) ListBySubmitter(ctx context.Context, userID uint, limit, offset int) ([]models.PendingContent, error) {
	var items []models.PendingContent
	if err := readDB(r.db).WithContext(ctx).
		Where("submitted_by_user_id = ?", userID).
		Order("submitted_at DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *pendingContentRepository) Decide(ctx context.Context, id uint, status models.PendingContentStatus, reviewerID uint, notes string) error {
	res := r.db.WithContext(ctx).Model(&models.PendingContent{}).
		Where("id = ? AND status = ?", id, models.PendingContentStatusPending).
		Updates(map[string]interface{}{
			"status":              status,
			"reviewed_by_user_id": reviewerID,
			"reviewed_at":         time.Now(),
			"review_notes":        notes,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		// Either missing or already decided; distinguish for the caller.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.PendingContent{}).
			Where("id = ?", id).Count(&count).Error; err == nil && count == 0 {
			return models.NewNotFoundError("PendingContent", id)
		}
		return models.NewConflictError("submission has already been reviewed")
	}
	return nil
}

func (r *pendingContentRepository) SetContentID(ctx context.Context, id, contentID uint) error {
	res := r.db.WithContext(ctx).Model(&models.PendingContent{}).
		Where("id = ?", id).
		Update("content_id", contentID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("PendingContent", id)
	}
	return nil
}

func (r *pendingContentRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.PendingContent{}).
		Where("status = ?", models.PendingContentStatusPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
