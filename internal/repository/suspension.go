package repository

import (
	"context"
	"errors"
	"time"

	"mangafas/internal/cache"
	"mangafas/internal/models"

	"gorm.io/gorm"
)

// SuspensionRepository defines persistence operations for suspensions.
type SuspensionRepository interface {
	// CreateIfNoneActive inserts the suspension only when the user has no
	// active suspension of the same kind. Returns a conflict error otherwise.
	CreateIfNoneActive(ctx context.Context, s *models.Suspension) error
	GetByID(ctx context.Context, id uint) (*models.Suspension, error)
	GetActive(ctx context.Context, userID uint, kind models.SuspensionKind) (*models.Suspension, error)
	// MarkLifted flips a suspension inactive, recording who lifted it and when.
	MarkLifted(ctx context.Context, id uint, liftedBy string, liftedAt time.Time) error
	ListByUser(ctx context.Context, userID uint) ([]models.Suspension, error)
	ListActive(ctx context.Context, kind models.SuspensionKind, limit, offset int) ([]models.Suspension, error)
	DeactivateAllForUser(ctx context.Context, userID uint, liftedBy string) error
}

type suspensionRepository struct {
	db *gorm.DB
}

// NewSuspensionRepository returns a new SuspensionRepository implementation.
func NewSuspensionRepository(db *gorm.DB) SuspensionRepository {
	return &suspensionRepository{db: db}
}

func (r *suspensionRepository) CreateIfNoneActive(ctx context.Context, s *models.Suspension) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Suspension{}).
			Where("user_id = ? AND kind = ? AND active = ?", s.UserID, s.Kind, true).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count > 0 {
			return models.NewConflictError("user already has an active suspension of this kind")
		}
		if err := tx.Create(s).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err == nil {
		cache.InvalidateUser(ctx, s.UserID)
	}
	return err
}

func (r *suspensionRepository) GetByID(ctx context.Context, id uint) (*models.Suspension, error) {
	var s models.Suspension
	if err := readDB(r.db).WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Suspension", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &s, nil
}

func (r *suspensionRepository) GetActive(ctx context.Context, userID uint, kind models.SuspensionKind) (*models.Suspension, error) {
	var s models.Suspension
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ? AND kind = ? AND active = ?", userID, kind, true).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &s, nil
}

func (r *suspensionRepository) MarkLifted(ctx context.Context, id uint, liftedBy string, liftedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Suspension{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]interface{}{
			"active":    false,
			"lifted_by": liftedBy,
			"lifted_at": liftedAt,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Suspension", id)
	}
	return nil
}

func (r *suspensionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Suspension, error) {
	var suspensions []models.Suspension
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&suspensions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return suspensions, nil
}

func (r *suspensionRepository) ListActive(ctx context.Context, kind models.SuspensionKind, limit, offset int) ([]models.Suspension, error) {
	var suspensions []models.Suspension
	if err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("kind = ? AND active = ?", kind, true).
		Order("issued_at DESC").
		Limit(limit).Offset(offset).
		Find(&suspensions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return suspensions, nil
}

func (r *suspensionRepository) DeactivateAllForUser(ctx context.Context, userID uint, liftedBy string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.Suspension{}).
		Where("user_id = ? AND active = ?", userID, true).
		Updates(map[string]interface{}{
			"active":    false,
			"lifted_by": liftedBy,
			"lifted_at": now,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}
