package repository

import (
	"context"
	"errors"
	"time"

	"mangafas/internal/cache"
	"mangafas/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments and reactions.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// SetStatus records a visibility transition together with the moderator
	// fields. Self-deletes pass a nil moderator.
	SetStatus(ctx context.Context, id uint, status models.CommentStatus, moderatedBy *uint, reason string) error
	// ListTopLevel returns top-level comments for a manga (optionally scoped to
	// a chapter), newest first.
	ListTopLevel(ctx context.Context, mangaID uint, chapterID *uint, limit, offset int) ([]*models.Comment, error)
	// ListReplies returns the direct replies of a comment, oldest first.
	ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Comment, error)
	ListByStatus(ctx context.Context, status models.CommentStatus, limit, offset int) ([]*models.Comment, error)
	Stats(ctx context.Context) (*models.CommentStats, error)

	GetReaction(ctx context.Context, commentID, userID uint) (*models.CommentReaction, error)
	SaveReaction(ctx context.Context, reaction *models.CommentReaction) error
	DeleteReaction(ctx context.Context, commentID, userID uint) error
	// DeleteReactionsByUser drops every reaction a user ever left, so removed
	// accounts stop counting toward like/dislike totals.
	DeleteReactionsByUser(ctx context.Context, userID uint) error
	CountReactions(ctx context.Context, commentID uint) (likes, dislikes int64, err error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateManga(ctx, comment.MangaID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := readDB(r.db).WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.fillReactionCounts(ctx, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateManga(ctx, comment.MangaID)
	return nil
}

func (r *commentRepository) SetStatus(ctx context.Context, id uint, status models.CommentStatus, moderatedBy *uint, reason string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if moderatedBy != nil {
		now := time.Now()
		updates["moderated_by"] = *moderatedBy
		updates["moderated_at"] = now
		updates["moderation_reason"] = reason
	}
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (r *commentRepository) ListTopLevel(ctx context.Context, mangaID uint, chapterID *uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	q := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("manga_id = ? AND parent_id IS NULL", mangaID)
	if chapterID != nil {
		q = q.Where("chapter_id = ?", *chapterID)
	} else {
		q = q.Where("chapter_id IS NULL")
	}
	if err := q.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, c := range comments {
		if err := r.fillReactionCounts(ctx, c); err != nil {
			return nil, err
		}
	}
	return comments, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, c := range comments {
		if err := r.fillReactionCounts(ctx, c); err != nil {
			return nil, err
		}
	}
	return comments, nil
}

func (r *commentRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) ListByStatus(ctx context.Context, status models.CommentStatus, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Stats(ctx context.Context) (*models.CommentStats, error) {
	db := readDB(r.db).WithContext(ctx)
	stats := &models.CommentStats{}

	if err := db.Model(&models.Comment{}).Count(&stats.Total).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	type statusCount struct {
		Status models.CommentStatus
		Count  int64
	}
	var rows []statusCount
	if err := db.Model(&models.Comment{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		switch row.Status {
		case models.CommentStatusActive:
			stats.Active = row.Count
		case models.CommentStatusHidden:
			stats.Hidden = row.Count
		case models.CommentStatusDeleted:
			stats.Deleted = row.Count
		}
	}
	if err := db.Model(&models.Report{}).
		Where("target_type = ? AND status = ?", models.ReportTargetComment, models.ReportStatusPending).
		Count(&stats.PendingReports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stats, nil
}

func (r *commentRepository) fillReactionCounts(ctx context.Context, c *models.Comment) error {
	likes, dislikes, err := r.CountReactions(ctx, c.ID)
	if err != nil {
		return err
	}
	c.LikeCount = likes
	c.DislikeCount = dislikes
	return nil
}

func (r *commentRepository) GetReaction(ctx context.Context, commentID, userID uint) (*models.CommentReaction, error) {
	var reaction models.CommentReaction
	if err := readDB(r.db).WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		First(&reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

func (r *commentRepository) SaveReaction(ctx context.Context, reaction *models.CommentReaction) error {
	if err := r.db.WithContext(ctx).Save(reaction).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) DeleteReaction(ctx context.Context, commentID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentReaction{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) DeleteReactionsByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CommentReaction{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) CountReactions(ctx context.Context, commentID uint) (int64, int64, error) {
	db := readDB(r.db).WithContext(ctx)
	var likes, dislikes int64
	if err := db.Model(&models.CommentReaction{}).
		Where("comment_id = ? AND kind = ?", commentID, models.ReactionLike).
		Count(&likes).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if err := db.Model(&models.CommentReaction{}).
		Where("comment_id = ? AND kind = ?", commentID, models.ReactionDislike).
		Count(&dislikes).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return likes, dislikes, nil
}
