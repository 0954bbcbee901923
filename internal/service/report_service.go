package service

import (
	"context"
	"fmt"

	"mangafas/internal/models"
	"mangafas/internal/observability"
	"mangafas/internal/repository"

	"github.com/google/uuid"
)

// ReportService lets users flag comments and accounts and lets administrators
// work the queue.
type ReportService struct {
	reportRepo    repository.ReportRepository
	commentRepo   repository.CommentRepository
	userRepo      repository.UserRepository
	suspensions   *SuspensionService
	notifications *NotificationService
}

// NewReportService returns a new ReportService.
func NewReportService(
	reportRepo repository.ReportRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	suspensions *SuspensionService,
	notifications *NotificationService,
) *ReportService {
	return &ReportService{
		reportRepo:    reportRepo,
		commentRepo:   commentRepo,
		userRepo:      userRepo,
		suspensions:   suspensions,
		notifications: notifications,
	}
}

// FileReportInput carries a new complaint.
type FileReportInput struct {
	ReporterID  uint
	TargetType  models.ReportTargetType
	TargetID    uint
	Reason      models.ReportReason
	Description string
}

// File records a report against a comment or a user. The same reporter cannot
// hold two open reports against one target; administrators are notified of
// every accepted report.
func (s *ReportService) File(ctx context.Context, in FileReportInput) (*models.Report, error) {
	if err := s.suspensions.EnsureNotSiteSuspended(ctx, in.ReporterID); err != nil {
		return nil, err
	}
	if !in.Reason.Valid() {
		return nil, models.NewValidationError("Unknown report reason")
	}

	switch in.TargetType {
	case models.ReportTargetComment:
		comment, err := s.commentRepo.GetByID(ctx, in.TargetID)
		if err != nil {
			return nil, err
		}
		if comment.Status == models.CommentStatusDeleted {
			return nil, models.NewValidationError("Cannot report a deleted comment")
		}
		if comment.UserID == in.ReporterID {
			return nil, models.NewValidationError("You cannot report your own comment")
		}
	case models.ReportTargetUser:
		if in.TargetID == in.ReporterID {
			return nil, models.NewValidationError("You cannot report yourself")
		}
		if _, err := s.userRepo.GetByID(ctx, in.TargetID); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("Unknown report target")
	}

	report := &models.Report{
		Reference:   uuid.NewString(),
		TargetType:  in.TargetType,
		TargetID:    in.TargetID,
		ReporterID:  in.ReporterID,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      models.ReportStatusPending,
	}
	if err := s.reportRepo.CreateIfNoneOpen(ctx, report); err != nil {
		return nil, err
	}
	observability.ReportsFiled.WithLabelValues(string(in.TargetType)).Inc()

	ntype := models.NotificationCommentReported
	title := "Comment reported"
	if in.TargetType == models.ReportTargetUser {
		ntype = models.NotificationUserReported
		title = "User reported"
	}
	s.notifications.NotifyAdministrators(ctx, ntype, title,
		fmt.Sprintf("A %s has been reported for %s.", in.TargetType, in.Reason.Label()),
		models.ReportFiledPayload{
			ReportID:   report.ID,
			TargetType: in.TargetType,
			TargetID:   in.TargetID,
		})

	return report, nil
}

// Resolve closes a report as actioned.
func (s *ReportService) Resolve(ctx context.Context, actorID, reportID uint, note string) (*models.Report, error) {
	return s.close(ctx, actorID, reportID, models.ReportStatusResolved, note)
}

// Dismiss closes a report without action.
func (s *ReportService) Dismiss(ctx context.Context, actorID, reportID uint, note string) (*models.Report, error) {
	return s.close(ctx, actorID, reportID, models.ReportStatusDismissed, note)
}

func (s *ReportService) close(ctx context.Context, actorID, reportID uint, status, note string) (*models.Report, error) {
	if err := s.requireAdminister(ctx, actorID); err != nil {
		return nil, err
	}
	if err := s.reportRepo.Close(ctx, reportID, status, actorID, note); err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(ctx, reportID)
}

// ListOpen returns the open report queue, oldest first, optionally filtered
// by target type.
func (s *ReportService) ListOpen(ctx context.Context, actorID uint, targetType *models.ReportTargetType, limit, offset int) ([]models.Report, error) {
	if err := s.requireAdminister(ctx, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.reportRepo.ListOpen(ctx, targetType, limit, offset)
}

// ListForTarget returns every report ever filed against a target.
func (s *ReportService) ListForTarget(ctx context.Context, actorID uint, targetType models.ReportTargetType, targetID uint) ([]models.Report, error) {
	if err := s.requireAdminister(ctx, actorID); err != nil {
		return nil, err
	}
	return s.reportRepo.ListByTarget(ctx, targetType, targetID)
}

func (s *ReportService) requireAdminister(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Permissions().CanAdminister {
		return models.NewUnauthorizedError("You are not allowed to manage reports")
	}
	return nil
}
