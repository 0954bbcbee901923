package service

import (
	"context"
	"testing"

	"mangafas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Repository stubs are defined in the sibling _test.go files (same package).

type reportRepoStub struct {
	createIfNoneOpenFn func(context.Context, *models.Report) error
	getByIDFn          func(context.Context, uint) (*models.Report, error)
	getByReferenceFn   func(context.Context, string) (*models.Report, error)
	listOpenFn         func(context.Context, *models.ReportTargetType, int, int) ([]models.Report, error)
	listByTargetFn     func(context.Context, models.ReportTargetType, uint) ([]models.Report, error)
	closeFn            func(context.Context, uint, string, uint, string) error
	dismissOpenFn      func(context.Context, uint, uint, string) error
	countOpenFn        func(context.Context) (int64, error)
}

func (s *reportRepoStub) CreateIfNoneOpen(ctx context.Context, r *models.Report) error {
	return s.createIfNoneOpenFn(ctx, r)
}
func (s *reportRepoStub) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reportRepoStub) GetByReference(ctx context.Context, reference string) (*models.Report, error) {
	return s.getByReferenceFn(ctx, reference)
}
func (s *reportRepoStub) ListOpen(ctx context.Context, targetType *models.ReportTargetType, limit, offset int) ([]models.Report, error) {
	return s.listOpenFn(ctx, targetType, limit, offset)
}
func (s *reportRepoStub) ListByTarget(ctx context.Context, targetType models.ReportTargetType, targetID uint) ([]models.Report, error) {
	return s.listByTargetFn(ctx, targetType, targetID)
}
func (s *reportRepoStub) Close(ctx context.Context, id uint, status string, resolvedBy uint, note string) error {
	return s.closeFn(ctx, id, status, resolvedBy, note)
}
func (s *reportRepoStub) DismissOpenByReporter(ctx context.Context, reporterID, resolvedBy uint, note string) error {
	return s.dismissOpenFn(ctx, reporterID, resolvedBy, note)
}
func (s *reportRepoStub) CountOpen(ctx context.Context) (int64, error) {
	return s.countOpenFn(ctx)
}

func noopReportRepo() *reportRepoStub {
	return &reportRepoStub{
		createIfNoneOpenFn: func(context.Context, *models.Report) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Report, error) {
			return &models.Report{ID: id, Status: models.ReportStatusPending}, nil
		},
		getByReferenceFn: func(context.Context, string) (*models.Report, error) { return nil, nil },
		listOpenFn: func(context.Context, *models.ReportTargetType, int, int) ([]models.Report, error) {
			return nil, nil
		},
		listByTargetFn: func(context.Context, models.ReportTargetType, uint) ([]models.Report, error) {
			return nil, nil
		},
		closeFn:       func(context.Context, uint, string, uint, string) error { return nil },
		dismissOpenFn: func(context.Context, uint, uint, string) error { return nil },
		countOpenFn:   func(context.Context) (int64, error) { return 0, nil },
	}
}

func newReportService(reports *reportRepoStub, comments *commentRepoStub, users *userRepoStub, notifications *NotificationService) *ReportService {
	return NewReportService(reports, comments, users, newCleanSuspensions(users), notifications)
}

func TestReportService_File(t *testing.T) {
	t.Parallel()

	reporter := &models.User{ID: 2, Role: models.RoleMember}
	other := &models.User{ID: 3, Role: models.RoleMember}

	t.Run("accepted report gets a reference and alerts administrators", func(t *testing.T) {
		t.Parallel()
		admin := &models.User{ID: 9, Role: models.RoleModerator}
		users := usersByID(reporter, other, admin)
		users.listByRolesFn = func(context.Context, []models.Role) ([]models.User, error) {
			return []models.User{*admin}, nil
		}
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 3, Status: models.CommentStatusActive}, nil
		}
		sink := newNotificationSink()
		svc := newReportService(noopReportRepo(), comments, users, sink.service(users))

		report, err := svc.File(context.Background(), FileReportInput{
			ReporterID: 2, TargetType: models.ReportTargetComment, TargetID: 7,
			Reason: models.ReportReasonSpam, Description: "link farm",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, report.Reference)
		assert.Equal(t, models.ReportStatusPending, report.Status)

		require.Len(t, sink.entries, 1)
		assert.Equal(t, uint(9), sink.entries[0].UserID)
		assert.Equal(t, models.NotificationCommentReported, sink.entries[0].Type)
	})

	t.Run("duplicate open report conflicts", func(t *testing.T) {
		t.Parallel()
		users := usersByID(reporter, other)
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 3, Status: models.CommentStatusActive}, nil
		}
		reports := noopReportRepo()
		reports.createIfNoneOpenFn = func(context.Context, *models.Report) error {
			return models.NewConflictError("reporter already has an open report against this target")
		}
		svc := newReportService(reports, comments, users, newTestNotifications())
		_, err := svc.File(context.Background(), FileReportInput{
			ReporterID: 2, TargetType: models.ReportTargetComment, TargetID: 7,
			Reason: models.ReportReasonSpam,
		})
		assertAppErrorCode(t, err, "CONFLICT")
	})

	t.Run("cannot report own comment", func(t *testing.T) {
		t.Parallel()
		users := usersByID(reporter)
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 2, Status: models.CommentStatusActive}, nil
		}
		svc := newReportService(noopReportRepo(), comments, users, newTestNotifications())
		_, err := svc.File(context.Background(), FileReportInput{
			ReporterID: 2, TargetType: models.ReportTargetComment, TargetID: 7,
			Reason: models.ReportReasonSpam,
		})
		assertValidationError(t, err)
	})

	t.Run("cannot report a deleted comment", func(t *testing.T) {
		t.Parallel()
		users := usersByID(reporter, other)
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 3, Status: models.CommentStatusDeleted}, nil
		}
		svc := newReportService(noopReportRepo(), comments, users, newTestNotifications())
		_, err := svc.File(context.Background(), FileReportInput{
			ReporterID: 2, TargetType: models.ReportTargetComment, TargetID: 7,
			Reason: models.ReportReasonSpam,
		})
		assertValidationError(t, err)
	})

	t.Run("cannot report yourself", func(t *testing.T) {
		t.Parallel()
		users := usersByID(reporter)
		svc := newReportService(noopReportRepo(), noopCommentRepo(), users, newTestNotifications())
		_, err := svc.File(context.Background(), FileReportInput{
			ReporterID: 2, TargetType: models.ReportTargetUser, TargetID: 2,
			Reason: models.ReportReasonHarassment,
		})
		assertValidationError(t, err)
	})

	t.Run("unknown reason is rejected", func(t *testing.T) {
		t.Parallel()
		users := usersByID(reporter, other)
		svc := newReportService(noopReportRepo(), noopCommentRepo(), users, newTestNotifications())
		_, err := svc.File(context.Background(), FileReportInput{
			ReporterID: 2, TargetType: models.ReportTargetUser, TargetID: 3,
			Reason: models.ReportReason("vibes"),
		})
		assertValidationError(t, err)
	})

	t.Run("site-suspended reporters are rejected", func(t *testing.T) {
		t.Parallel()
		users := usersByID(reporter, other)
		susRepo := noopSuspensionRepo()
		susRepo.getActiveFn = func(_ context.Context, _ uint, kind models.SuspensionKind) (*models.Suspension, error) {
			if kind == models.SuspensionKindSite {
				return &models.Suspension{ID: 1, Active: true, Duration: models.SuspensionPermanent}, nil
			}
			return nil, nil
		}
		suspensions := NewSuspensionService(susRepo, users, newTestNotifications())
		svc := NewReportService(noopReportRepo(), noopCommentRepo(), users, suspensions, newTestNotifications())
		_, err := svc.File(context.Background(), FileReportInput{
			ReporterID: 2, TargetType: models.ReportTargetUser, TargetID: 3,
			Reason: models.ReportReasonOther,
		})
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})
}

func TestReportService_ResolveDismiss(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	member := &models.User{ID: 2, Role: models.RoleMember}

	t.Run("resolve closes with status and note", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, member)
		reports := noopReportRepo()
		var closedStatus, closedNote string
		reports.closeFn = func(_ context.Context, _ uint, status string, resolvedBy uint, note string) error {
			closedStatus = status
			closedNote = note
			assert.Equal(t, uint(1), resolvedBy)
			return nil
		}
		svc := newReportService(reports, noopCommentRepo(), users, newTestNotifications())
		_, err := svc.Resolve(context.Background(), 1, 4, "comment hidden")
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusResolved, closedStatus)
		assert.Equal(t, "comment hidden", closedNote)
	})

	t.Run("dismiss closes without action", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, member)
		reports := noopReportRepo()
		var closedStatus string
		reports.closeFn = func(_ context.Context, _ uint, status string, _ uint, _ string) error {
			closedStatus = status
			return nil
		}
		svc := newReportService(reports, noopCommentRepo(), users, newTestNotifications())
		_, err := svc.Dismiss(context.Background(), 1, 4, "")
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusDismissed, closedStatus)
	})

	t.Run("closing an already-closed report conflicts", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, member)
		reports := noopReportRepo()
		reports.closeFn = func(context.Context, uint, string, uint, string) error {
			return models.NewConflictError("report is already closed")
		}
		svc := newReportService(reports, noopCommentRepo(), users, newTestNotifications())
		_, err := svc.Resolve(context.Background(), 1, 4, "")
		assertAppErrorCode(t, err, "CONFLICT")
	})

	t.Run("non-admins cannot work the queue", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, member)
		svc := newReportService(noopReportRepo(), noopCommentRepo(), users, newTestNotifications())
		_, err := svc.Resolve(context.Background(), 2, 4, "")
		assertAppErrorCode(t, err, "UNAUTHORIZED")
		_, err = svc.ListOpen(context.Background(), 2, nil, 50, 0)
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})
}
