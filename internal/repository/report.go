package repository

import (
	"context"
	"errors"
	"time"

	"mangafas/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	// CreateIfNoneOpen inserts the report only when the reporter has no open
	// report against the same target. Returns a conflict error otherwise.
	CreateIfNoneOpen(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	GetByReference(ctx context.Context, reference string) (*models.Report, error)
	ListOpen(ctx context.Context, targetType *models.ReportTargetType, limit, offset int) ([]models.Report, error)
	ListByTarget(ctx context.Context, targetType models.ReportTargetType, targetID uint) ([]models.Report, error)
	// Close resolves or dismisses a report. Only open reports can be closed.
	Close(ctx context.Context, id uint, status string, resolvedBy uint, note string) error
	// DismissOpenByReporter closes every open report a reporter has filed.
	// Used when the reporter's account goes away.
	DismissOpenByReporter(ctx context.Context, reporterID, resolvedBy uint, note string) error
	CountOpen(ctx context.Context) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CreateIfNoneOpen(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Report{}).
			Where("reporter_id = ? AND target_type = ? AND target_id = ? AND status = ?",
				report.ReporterID, report.TargetType, report.TargetID, models.ReportStatusPending).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count > 0 {
			return models.NewConflictError("you already have an open report for this target")
		}
		if err := tx.Create(report).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := readDB(r.db).WithContext(ctx).Preload("Reporter").First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *reportRepository) GetByReference(ctx context.Context, reference string) (*models.Report, error) {
	var report models.Report
	if err := readDB(r.db).WithContext(ctx).
		Preload("Reporter").
		Where("reference = ?", reference).
		First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", 0)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *reportRepository) ListOpen(ctx context.Context, targetType *models.ReportTargetType, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	q := readDB(r.db).WithContext(ctx).
		Preload("Reporter").
		Where("status = ?", models.ReportStatusPending)
	if targetType != nil {
		q = q.Where("target_type = ?", *targetType)
	}
	if err := q.Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) ListByTarget(ctx context.Context, targetType models.ReportTargetType, targetID uint) ([]models.Report, error) {
	var reports []models.Report
	if err := readDB(r.db).WithContext(ctx).
		Preload("Reporter").
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) Close(ctx context.Context, id uint, status string, resolvedBy uint, note string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":              status,
			"resolved_by_user_id": resolvedBy,
			"resolved_at":         now,
			"resolution_note":     note,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("report is already closed")
	}
	return nil
}

func (r *reportRepository) DismissOpenByReporter(ctx context.Context, reporterID, resolvedBy uint, note string) error {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_id = ? AND status = ?", reporterID, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":              models.ReportStatusDismissed,
			"resolved_by_user_id": resolvedBy,
			"resolved_at":         time.Now(),
			"resolution_note":     note,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	return nil
}

func (r *reportRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Report{}).
		Where("status = ?", models.ReportStatusPending).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
