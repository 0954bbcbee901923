package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mangafas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/datatypes"
)

// Repository stubs are defined in suspension_service_test.go and
// comment_service_test.go (same package).

type pendingRepoStub struct {
	createFn          func(context.Context, *models.PendingContent) error
	getByIDFn         func(context.Context, uint) (*models.PendingContent, error)
	listByStatusFn    func(context.Context, models.PendingContentStatus, int, int) ([]models.PendingContent, error)
	listBySubmitterFn func(context.Context, uint, int, int) ([]models.PendingContent, error)
	decideFn          func(context.Context, uint, models.PendingContentStatus, uint, string) error
	setContentIDFn    func(context.Context, uint, uint) error
	countPendingFn    func(context.Context) (int64, error)
}

func (s *pendingRepoStub) Create(ctx context.Context, pc *models.PendingContent) error {
	return s.createFn(ctx, pc)
}
func (s *pendingRepoStub) GetByID(ctx context.Context, id uint) (*models.PendingContent, error) {
	return s.getByIDFn(ctx, id)
}
func (s *pendingRepoStub) ListByStatus(ctx context.Context, status models.PendingContentStatus, limit, offset int) ([]models.PendingContent, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *pendingRepoStub) ListBySubmitter(ctx context.Context, userID uint, limit, offset int) ([]models.PendingContent, error) {
	return s.listBySubmitterFn(ctx, userID, limit, offset)
}
func (s *pendingRepoStub) Decide(ctx context.Context, id uint, status models.PendingContentStatus, reviewerID uint, notes string) error {
	return s.decideFn(ctx, id, status, reviewerID, notes)
}
func (s *pendingRepoStub) SetContentID(ctx context.Context, id, contentID uint) error {
	return s.setContentIDFn(ctx, id, contentID)
}
func (s *pendingRepoStub) CountPending(ctx context.Context) (int64, error) {
	return s.countPendingFn(ctx)
}

func noopPendingRepo() *pendingRepoStub {
	return &pendingRepoStub{
		createFn: func(context.Context, *models.PendingContent) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.PendingContent, error) {
			return &models.PendingContent{ID: id, Status: models.PendingContentStatusPending}, nil
		},
		listByStatusFn: func(context.Context, models.PendingContentStatus, int, int) ([]models.PendingContent, error) {
			return nil, nil
		},
		listBySubmitterFn: func(context.Context, uint, int, int) ([]models.PendingContent, error) {
			return nil, nil
		},
		decideFn:       func(context.Context, uint, models.PendingContentStatus, uint, string) error { return nil },
		setContentIDFn: func(context.Context, uint, uint) error { return nil },
		countPendingFn: func(context.Context) (int64, error) { return 0, nil },
	}
}

func titlePayload(t *testing.T) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(models.MangaPayload{Title: "One Slice", Genres: []string{"Action"}})
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

func TestModerationService_Submit_RoutesByRole(t *testing.T) {
	t.Parallel()

	apprentice := &models.User{ID: 2, Username: "newbie", Role: models.RoleApprenticeContributor}
	leader := &models.User{ID: 3, Username: "boss", Role: models.RoleGroupLeader}
	member := &models.User{ID: 4, Role: models.RoleMember}

	titleInput := func(userID uint) SubmitContentInput {
		return SubmitContentInput{
			UserID: userID,
			Kind:   models.ContentKindTitle,
			Title:  &models.MangaPayload{Title: "One Slice", Genres: []string{"Action"}},
		}
	}

	t.Run("apprentice upload lands in the review queue", func(t *testing.T) {
		t.Parallel()
		users := usersByID(apprentice)
		pending := noopPendingRepo()
		var queued *models.PendingContent
		pending.createFn = func(_ context.Context, pc *models.PendingContent) error {
			pc.ID = 11
			queued = pc
			return nil
		}
		catalog := noopCatalogRepo()
		var materialized bool
		catalog.createMangaFn = func(context.Context, *models.Manga) error {
			materialized = true
			return nil
		}
		svc := NewModerationService(pending, catalog, users, newCleanSuspensions(users), newTestNotifications())

		res, err := svc.Submit(context.Background(), titleInput(2))
		require.NoError(t, err)
		require.NotNil(t, res.Pending)
		assert.Nil(t, res.MangaID)
		assert.False(t, materialized, "queued submissions must not reach the catalog")
		require.NotNil(t, queued)
		assert.Equal(t, models.PendingContentStatusPending, queued.Status)
		assert.Equal(t, uint(2), queued.SubmittedByUserID)
	})

	t.Run("group leader publishes directly", func(t *testing.T) {
		t.Parallel()
		users := usersByID(leader)
		pending := noopPendingRepo()
		var queued bool
		pending.createFn = func(context.Context, *models.PendingContent) error {
			queued = true
			return nil
		}
		catalog := noopCatalogRepo()
		catalog.createMangaFn = func(_ context.Context, m *models.Manga) error {
			m.ID = 42
			return nil
		}
		svc := NewModerationService(pending, catalog, users, newCleanSuspensions(users), newTestNotifications())

		res, err := svc.Submit(context.Background(), titleInput(3))
		require.NoError(t, err)
		assert.Nil(t, res.Pending)
		require.NotNil(t, res.MangaID)
		assert.Equal(t, uint(42), *res.MangaID)
		assert.False(t, queued)
	})

	t.Run("members cannot upload", func(t *testing.T) {
		t.Parallel()
		users := usersByID(member)
		svc := NewModerationService(noopPendingRepo(), noopCatalogRepo(), users, newCleanSuspensions(users), newTestNotifications())
		_, err := svc.Submit(context.Background(), titleInput(4))
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})

	t.Run("queued submission alerts administrators", func(t *testing.T) {
		t.Parallel()
		admin := &models.User{ID: 9, Role: models.RoleModerator}
		users := usersByID(apprentice, admin)
		users.listByRolesFn = func(context.Context, []models.Role) ([]models.User, error) {
			return []models.User{*admin}, nil
		}
		sink := newNotificationSink()
		svc := NewModerationService(noopPendingRepo(), noopCatalogRepo(), users, newCleanSuspensions(users), sink.service(users))

		_, err := svc.Submit(context.Background(), titleInput(2))
		require.NoError(t, err)
		require.Len(t, sink.entries, 1)
		assert.Equal(t, uint(9), sink.entries[0].UserID)
		assert.Equal(t, models.NotificationContentPending, sink.entries[0].Type)
	})
}

func TestModerationService_Submit_Validation(t *testing.T) {
	t.Parallel()

	apprentice := &models.User{ID: 2, Role: models.RoleApprenticeContributor}
	users := usersByID(apprentice)

	t.Run("title submission needs a name", func(t *testing.T) {
		t.Parallel()
		svc := NewModerationService(noopPendingRepo(), noopCatalogRepo(), users, newCleanSuspensions(users), newTestNotifications())
		_, err := svc.Submit(context.Background(), SubmitContentInput{
			UserID: 2, Kind: models.ContentKindTitle, Title: &models.MangaPayload{},
		})
		assertValidationError(t, err)
	})

	t.Run("chapter needs an existing manga", func(t *testing.T) {
		t.Parallel()
		catalog := noopCatalogRepo()
		catalog.getMangaFn = func(_ context.Context, id uint) (*models.Manga, error) {
			return nil, models.NewNotFoundError("Manga", id)
		}
		svc := NewModerationService(noopPendingRepo(), catalog, users, newCleanSuspensions(users), newTestNotifications())
		_, err := svc.Submit(context.Background(), SubmitContentInput{
			UserID: 2, Kind: models.ContentKindChapter,
			Chapter: &models.ChapterPayload{MangaID: 77, Number: 1},
		})
		assertAppErrorCode(t, err, "NOT_FOUND")
	})

	t.Run("chapter number must be positive", func(t *testing.T) {
		t.Parallel()
		svc := NewModerationService(noopPendingRepo(), noopCatalogRepo(), users, newCleanSuspensions(users), newTestNotifications())
		_, err := svc.Submit(context.Background(), SubmitContentInput{
			UserID: 2, Kind: models.ContentKindChapter,
			Chapter: &models.ChapterPayload{MangaID: 1, Number: 0},
		})
		assertValidationError(t, err)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewModerationService(noopPendingRepo(), noopCatalogRepo(), users, newCleanSuspensions(users), newTestNotifications())
		_, err := svc.Submit(context.Background(), SubmitContentInput{
			UserID: 2, Kind: models.ContentKind("magazine"),
		})
		assertValidationError(t, err)
	})
}

func TestModerationService_Approve(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	apprentice := &models.User{ID: 2, Role: models.RoleApprenticeContributor}

	t.Run("approval materializes the payload and notifies the submitter", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, apprentice)
		pending := noopPendingRepo()
		pending.getByIDFn = func(_ context.Context, id uint) (*models.PendingContent, error) {
			return &models.PendingContent{
				ID: id, Kind: models.ContentKindTitle,
				Payload:           titlePayload(t),
				SubmittedByUserID: 2,
				Status:            models.PendingContentStatusPending,
			}, nil
		}
		var decidedStatus models.PendingContentStatus
		var decided bool
		pending.decideFn = func(_ context.Context, _ uint, status models.PendingContentStatus, reviewerID uint, _ string) error {
			decidedStatus = status
			decided = true
			assert.Equal(t, uint(1), reviewerID)
			return nil
		}
		var stampedContentID uint
		pending.setContentIDFn = func(_ context.Context, _ uint, contentID uint) error {
			stampedContentID = contentID
			return nil
		}
		catalog := noopCatalogRepo()
		catalog.createMangaFn = func(_ context.Context, m *models.Manga) error {
			assert.True(t, decided, "the decision must be recorded before the catalog write")
			m.ID = 42
			assert.Equal(t, "One Slice", m.Title)
			assert.Equal(t, uint(2), m.CreatedByUserID, "catalog credit goes to the submitter")
			return nil
		}
		sink := newNotificationSink()
		svc := NewModerationService(pending, catalog, users, newCleanSuspensions(users), sink.service(users))

		_, err := svc.Approve(context.Background(), 1, 11, "looks good")
		require.NoError(t, err)
		assert.Equal(t, models.PendingContentStatusApproved, decidedStatus)
		assert.Equal(t, uint(42), stampedContentID)
		require.Len(t, sink.entries, 1)
		assert.Equal(t, uint(2), sink.entries[0].UserID)
		assert.Equal(t, models.NotificationContentApproved, sink.entries[0].Type)
	})

	t.Run("a lost decide race materializes nothing", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, apprentice)
		pending := noopPendingRepo()
		pending.getByIDFn = func(_ context.Context, id uint) (*models.PendingContent, error) {
			return &models.PendingContent{
				ID: id, Kind: models.ContentKindTitle,
				Payload:           titlePayload(t),
				SubmittedByUserID: 2,
				Status:            models.PendingContentStatusPending,
			}, nil
		}
		pending.decideFn = func(context.Context, uint, models.PendingContentStatus, uint, string) error {
			return models.NewConflictError("submission has already been reviewed")
		}
		catalog := noopCatalogRepo()
		var materialized bool
		catalog.createMangaFn = func(context.Context, *models.Manga) error {
			materialized = true
			return nil
		}
		svc := NewModerationService(pending, catalog, users, newCleanSuspensions(users), newTestNotifications())

		_, err := svc.Approve(context.Background(), 1, 11, "")
		assertAppErrorCode(t, err, "CONFLICT")
		assert.False(t, materialized, "a losing approve must not create a duplicate catalog entry")
	})

	t.Run("a decided submission cannot be approved again", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, apprentice)
		pending := noopPendingRepo()
		pending.getByIDFn = func(_ context.Context, id uint) (*models.PendingContent, error) {
			return &models.PendingContent{ID: id, Status: models.PendingContentStatusApproved}, nil
		}
		svc := NewModerationService(pending, noopCatalogRepo(), users, newCleanSuspensions(users), newTestNotifications())
		_, err := svc.Approve(context.Background(), 1, 11, "")
		assertAppErrorCode(t, err, "CONFLICT")
	})

	t.Run("non-admin reviewers are rejected", func(t *testing.T) {
		t.Parallel()
		users := usersByID(admin, apprentice)
		svc := NewModerationService(noopPendingRepo(), noopCatalogRepo(), users, newCleanSuspensions(users), newTestNotifications())
		_, err := svc.Approve(context.Background(), 2, 11, "")
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})
}

func TestModerationService_Reject(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	apprentice := &models.User{ID: 2, Role: models.RoleApprenticeContributor}
	users := usersByID(admin, apprentice)

	pending := noopPendingRepo()
	pending.getByIDFn = func(_ context.Context, id uint) (*models.PendingContent, error) {
		return &models.PendingContent{
			ID: id, Kind: models.ContentKindTitle,
			Payload:           titlePayload(t),
			SubmittedByUserID: 2,
			Status:            models.PendingContentStatusPending,
		}, nil
	}
	catalog := noopCatalogRepo()
	var materialized bool
	catalog.createMangaFn = func(context.Context, *models.Manga) error {
		materialized = true
		return nil
	}
	sink := newNotificationSink()
	svc := NewModerationService(pending, catalog, users, newCleanSuspensions(users), sink.service(users))

	_, err := svc.Reject(context.Background(), 1, 11, "cover art is broken")
	require.NoError(t, err)
	assert.False(t, materialized, "rejected payloads never reach the catalog")
	require.Len(t, sink.entries, 1)
	assert.Equal(t, models.NotificationContentRejected, sink.entries[0].Type)
	assert.Contains(t, sink.entries[0].Message, "cover art is broken")
}

func TestModerationService_DirectChapterAnnouncesToFavoriters(t *testing.T) {
	t.Parallel()

	leader := &models.User{ID: 3, Role: models.RoleGroupLeader}
	users := usersByID(leader)

	catalog := noopCatalogRepo()
	catalog.createChapterFn = func(_ context.Context, c *models.Chapter) error {
		c.ID = 7
		return nil
	}
	catalog.listFavoritersFn = func(context.Context, uint) ([]uint, error) {
		return []uint{10, 11}, nil
	}
	sink := newNotificationSink()
	svc := NewModerationService(noopPendingRepo(), catalog, users, newCleanSuspensions(users), sink.service(users))
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	res, err := svc.Submit(context.Background(), SubmitContentInput{
		UserID: 3, Kind: models.ContentKindChapter,
		Chapter: &models.ChapterPayload{MangaID: 1, Number: 12, Pages: []string{"p1"}},
	})
	require.NoError(t, err)
	require.NotNil(t, res.ChapterID)

	require.Len(t, sink.entries, 2)
	recipients := []uint{sink.entries[0].UserID, sink.entries[1].UserID}
	assert.ElementsMatch(t, []uint{10, 11}, recipients)
	assert.Equal(t, models.NotificationNewChapter, sink.entries[0].Type)
}
