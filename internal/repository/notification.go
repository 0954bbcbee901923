package repository

import (
	"context"
	"errors"

	"mangafas/internal/cache"
	"mangafas/internal/models"
	"mangafas/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository defines persistence operations for user inboxes.
type NotificationRepository interface {
	// CreateWithCap inserts the notification and evicts the oldest entries of
	// the recipient's inbox past the cap, in one transaction.
	CreateWithCap(ctx context.Context, n *models.Notification, cap int) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateWithCap(ctx context.Context, n *models.Notification, cap int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(n).Error; err != nil {
			return models.NewInternalError(err)
		}
		if cap <= 0 {
			return nil
		}
		var count int64
		if err := tx.Model(&models.Notification{}).
			Where("user_id = ?", n.UserID).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count <= int64(cap) {
			return nil
		}
		excess := count - int64(cap)
		var victims []uint
		if err := tx.Model(&models.Notification{}).
			Where("user_id = ?", n.UserID).
			Order("created_at ASC, id ASC").
			Limit(int(excess)).
			Pluck("id", &victims).Error; err != nil {
			return models.NewInternalError(err)
		}
		if len(victims) > 0 {
			if err := tx.Delete(&models.Notification{}, victims).Error; err != nil {
				return models.NewInternalError(err)
			}
			observability.NotificationsEvicted.Add(float64(len(victims)))
		}
		return nil
	})
	if err == nil {
		cache.InvalidateUnreadCount(ctx, n.UserID)
	}
	return err
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := readDB(r.db).WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Notification", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	cache.InvalidateUnreadCount(ctx, userID)
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUnreadCount(ctx, userID)
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Notification{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUnreadCount(ctx, userID)
	return nil
}
