package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mangafas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Function-field stubs for the repository interfaces. Shared by every test
// file in this package.

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	updateRoleFn    func(context.Context, uint, models.Role) error
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, int, int) ([]models.User, error)
	searchFn        func(context.Context, string, int, int) ([]models.User, error)
	listByRolesFn   func(context.Context, []models.Role) ([]models.User, error)
	countByRoleFn   func(context.Context) (map[models.Role]int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	return s.updateRoleFn(ctx, id, role)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit, offset)
}
func (s *userRepoStub) ListByRoles(ctx context.Context, roles []models.Role) ([]models.User, error) {
	return s.listByRolesFn(ctx, roles)
}
func (s *userRepoStub) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	return s.countByRoleFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleMember}, nil
		},
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		updateFn:        func(context.Context, *models.User) error { return nil },
		updateRoleFn:    func(context.Context, uint, models.Role) error { return nil },
		deleteFn:        func(context.Context, uint) error { return nil },
		listFn:          func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		searchFn:        func(context.Context, string, int, int) ([]models.User, error) { return nil, nil },
		listByRolesFn:   func(context.Context, []models.Role) ([]models.User, error) { return nil, nil },
		countByRoleFn:   func(context.Context) (map[models.Role]int64, error) { return nil, nil },
	}
}

// usersByID builds a user repo stub backed by a fixed map.
func usersByID(users ...*models.User) *userRepoStub {
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		u, ok := byID[id]
		if !ok {
			return nil, models.NewNotFoundError("User", id)
		}
		return u, nil
	}
	return repo
}

type suspensionRepoStub struct {
	createIfNoneActiveFn   func(context.Context, *models.Suspension) error
	getByIDFn              func(context.Context, uint) (*models.Suspension, error)
	getActiveFn            func(context.Context, uint, models.SuspensionKind) (*models.Suspension, error)
	markLiftedFn           func(context.Context, uint, string, time.Time) error
	listByUserFn           func(context.Context, uint) ([]models.Suspension, error)
	listActiveFn           func(context.Context, models.SuspensionKind, int, int) ([]models.Suspension, error)
	deactivateAllForUserFn func(context.Context, uint, string) error
}

func (s *suspensionRepoStub) CreateIfNoneActive(ctx context.Context, sus *models.Suspension) error {
	return s.createIfNoneActiveFn(ctx, sus)
}
func (s *suspensionRepoStub) GetByID(ctx context.Context, id uint) (*models.Suspension, error) {
	return s.getByIDFn(ctx, id)
}
func (s *suspensionRepoStub) GetActive(ctx context.Context, userID uint, kind models.SuspensionKind) (*models.Suspension, error) {
	return s.getActiveFn(ctx, userID, kind)
}
func (s *suspensionRepoStub) MarkLifted(ctx context.Context, id uint, liftedBy string, liftedAt time.Time) error {
	return s.markLiftedFn(ctx, id, liftedBy, liftedAt)
}
func (s *suspensionRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Suspension, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *suspensionRepoStub) ListActive(ctx context.Context, kind models.SuspensionKind, limit, offset int) ([]models.Suspension, error) {
	return s.listActiveFn(ctx, kind, limit, offset)
}
func (s *suspensionRepoStub) DeactivateAllForUser(ctx context.Context, userID uint, liftedBy string) error {
	return s.deactivateAllForUserFn(ctx, userID, liftedBy)
}

func noopSuspensionRepo() *suspensionRepoStub {
	return &suspensionRepoStub{
		createIfNoneActiveFn: func(context.Context, *models.Suspension) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Suspension, error) {
			return &models.Suspension{ID: id}, nil
		},
		getActiveFn: func(context.Context, uint, models.SuspensionKind) (*models.Suspension, error) {
			return nil, nil
		},
		markLiftedFn: func(context.Context, uint, string, time.Time) error { return nil },
		listByUserFn: func(context.Context, uint) ([]models.Suspension, error) { return nil, nil },
		listActiveFn: func(context.Context, models.SuspensionKind, int, int) ([]models.Suspension, error) {
			return nil, nil
		},
		deactivateAllForUserFn: func(context.Context, uint, string) error { return nil },
	}
}

type notificationRepoStub struct {
	createWithCapFn func(context.Context, *models.Notification, int) error
	getByIDFn       func(context.Context, uint) (*models.Notification, error)
	listByUserFn    func(context.Context, uint, int, int) ([]models.Notification, error)
	markReadFn      func(context.Context, uint, uint) error
	markAllReadFn   func(context.Context, uint) error
	countUnreadFn   func(context.Context, uint) (int64, error)
	deleteByUserFn  func(context.Context, uint) error
}

func (s *notificationRepoStub) CreateWithCap(ctx context.Context, n *models.Notification, cap int) error {
	return s.createWithCapFn(ctx, n, cap)
}
func (s *notificationRepoStub) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.getByIDFn(ctx, id)
}
func (s *notificationRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id, userID uint) error {
	return s.markReadFn(ctx, id, userID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID uint) error {
	return s.markAllReadFn(ctx, userID)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}
func (s *notificationRepoStub) DeleteByUser(ctx context.Context, userID uint) error {
	return s.deleteByUserFn(ctx, userID)
}

func noopNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createWithCapFn: func(context.Context, *models.Notification, int) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Notification, error) {
			return &models.Notification{ID: id}, nil
		},
		listByUserFn:   func(context.Context, uint, int, int) ([]models.Notification, error) { return nil, nil },
		markReadFn:     func(context.Context, uint, uint) error { return nil },
		markAllReadFn:  func(context.Context, uint) error { return nil },
		countUnreadFn:  func(context.Context, uint) (int64, error) { return 0, nil },
		deleteByUserFn: func(context.Context, uint) error { return nil },
	}
}

// sink collects notifications created through a NotificationService so tests
// can assert on recipients and types.
type notificationSink struct {
	repo    *notificationRepoStub
	entries []*models.Notification
}

func newNotificationSink() *notificationSink {
	sink := &notificationSink{repo: noopNotificationRepo()}
	sink.repo.createWithCapFn = func(_ context.Context, n *models.Notification, _ int) error {
		sink.entries = append(sink.entries, n)
		return nil
	}
	return sink
}

func (s *notificationSink) service(users *userRepoStub) *NotificationService {
	return NewNotificationService(s.repo, users, nil, 50, 1)
}

func newTestNotifications() *NotificationService {
	return NewNotificationService(noopNotificationRepo(), noopUserRepo(), nil, 50, 1)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.Truef(t, errors.As(err, &appErr), "expected AppError, got %#v", err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func futureTime(d time.Duration) *time.Time {
	ts := time.Now().Add(d)
	return &ts
}

func TestSuspensionService_Issue_Authorization(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	member := &models.User{ID: 2, Role: models.RoleMember}
	owner := &models.User{ID: 3, Role: models.RoleOwner}

	t.Run("non-admin actor is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), usersByID(member, admin), newTestNotifications())
		_, err := svc.Issue(context.Background(), IssueSuspensionInput{
			ActorID: 2, UserID: 1,
			Kind: models.SuspensionKindSite, Duration: models.SuspensionPermanent,
			Reason: "spam",
		})
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})

	t.Run("actor cannot suspend themselves", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), usersByID(admin), newTestNotifications())
		_, err := svc.Issue(context.Background(), IssueSuspensionInput{
			ActorID: 1, UserID: 1,
			Kind: models.SuspensionKindSite, Duration: models.SuspensionPermanent,
			Reason: "spam",
		})
		assertValidationError(t, err)
	})

	t.Run("the owner account is never suspendable", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), usersByID(admin, owner), newTestNotifications())
		_, err := svc.Issue(context.Background(), IssueSuspensionInput{
			ActorID: 1, UserID: 3,
			Kind: models.SuspensionKindSite, Duration: models.SuspensionPermanent,
			Reason: "spam",
		})
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})
}

func TestSuspensionService_Issue_Validation(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	member := &models.User{ID: 2, Role: models.RoleMember}

	t.Run("temporary needs a future expiry", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), usersByID(admin, member), newTestNotifications())
		_, err := svc.Issue(context.Background(), IssueSuspensionInput{
			ActorID: 1, UserID: 2,
			Kind: models.SuspensionKindComment, Duration: models.SuspensionTemporary,
			Reason: "spam",
		})
		assertValidationError(t, err)

		_, err = svc.Issue(context.Background(), IssueSuspensionInput{
			ActorID: 1, UserID: 2,
			Kind: models.SuspensionKindComment, Duration: models.SuspensionTemporary,
			ExpiresAt: futureTime(-time.Hour),
			Reason:    "spam",
		})
		assertValidationError(t, err)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), usersByID(admin, member), newTestNotifications())
		_, err := svc.Issue(context.Background(), IssueSuspensionInput{
			ActorID: 1, UserID: 2,
			Kind: models.SuspensionKind("shadow"), Duration: models.SuspensionPermanent,
			Reason: "spam",
		})
		assertValidationError(t, err)
	})

	t.Run("empty reason is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), usersByID(admin, member), newTestNotifications())
		_, err := svc.Issue(context.Background(), IssueSuspensionInput{
			ActorID: 1, UserID: 2,
			Kind: models.SuspensionKindSite, Duration: models.SuspensionPermanent,
			Reason: "   ",
		})
		assertValidationError(t, err)
	})
}

func TestSuspensionService_Issue_DuplicateConflict(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	member := &models.User{ID: 2, Role: models.RoleMember}

	repo := noopSuspensionRepo()
	repo.createIfNoneActiveFn = func(context.Context, *models.Suspension) error {
		return models.NewConflictError("user already has an active suspension of this kind")
	}
	svc := NewSuspensionService(repo, usersByID(admin, member), newTestNotifications())
	_, err := svc.Issue(context.Background(), IssueSuspensionInput{
		ActorID: 1, UserID: 2,
		Kind: models.SuspensionKindSite, Duration: models.SuspensionPermanent,
		Reason: "spam",
	})
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestSuspensionService_Issue_NotifiesTarget(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	member := &models.User{ID: 2, Role: models.RoleMember}
	users := usersByID(admin, member)

	sink := newNotificationSink()
	svc := NewSuspensionService(noopSuspensionRepo(), users, sink.service(users))

	sus, err := svc.Issue(context.Background(), IssueSuspensionInput{
		ActorID: 1, UserID: 2,
		Kind: models.SuspensionKindComment, Duration: models.SuspensionTemporary,
		ExpiresAt: futureTime(72 * time.Hour),
		Reason:    "repeated spoilers",
	})
	require.NoError(t, err)
	assert.True(t, sus.Active)
	assert.NotNil(t, sus.ExpiresAt)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, uint(2), sink.entries[0].UserID)
	assert.Equal(t, models.NotificationCommentBanned, sink.entries[0].Type)
}

func TestSuspensionService_LazyExpiry(t *testing.T) {
	t.Parallel()

	t.Run("expired temporary suspension is lifted on read", func(t *testing.T) {
		t.Parallel()
		expired := time.Now().Add(-time.Hour)
		repo := noopSuspensionRepo()
		repo.getActiveFn = func(context.Context, uint, models.SuspensionKind) (*models.Suspension, error) {
			return &models.Suspension{
				ID: 7, UserID: 2,
				Kind:      models.SuspensionKindSite,
				Duration:  models.SuspensionTemporary,
				ExpiresAt: &expired,
				Active:    true,
			}, nil
		}
		var liftedBy string
		repo.markLiftedFn = func(_ context.Context, id uint, by string, _ time.Time) error {
			assert.Equal(t, uint(7), id)
			liftedBy = by
			return nil
		}

		svc := NewSuspensionService(repo, noopUserRepo(), newTestNotifications())
		sus, err := svc.ActiveSuspension(context.Background(), 2, models.SuspensionKindSite)
		require.NoError(t, err)
		assert.Nil(t, sus, "an expired suspension no longer binds")
		assert.Equal(t, models.SystemActor, liftedBy)
	})

	t.Run("concurrent lift is tolerated", func(t *testing.T) {
		t.Parallel()
		expired := time.Now().Add(-time.Minute)
		repo := noopSuspensionRepo()
		repo.getActiveFn = func(context.Context, uint, models.SuspensionKind) (*models.Suspension, error) {
			return &models.Suspension{
				ID: 7, UserID: 2,
				Kind:      models.SuspensionKindSite,
				Duration:  models.SuspensionTemporary,
				ExpiresAt: &expired,
				Active:    true,
			}, nil
		}
		repo.markLiftedFn = func(_ context.Context, id uint, _ string, _ time.Time) error {
			return models.NewNotFoundError("Suspension", id)
		}

		svc := NewSuspensionService(repo, noopUserRepo(), newTestNotifications())
		sus, err := svc.ActiveSuspension(context.Background(), 2, models.SuspensionKindSite)
		require.NoError(t, err)
		assert.Nil(t, sus)
	})

	t.Run("unexpired suspension still binds", func(t *testing.T) {
		t.Parallel()
		repo := noopSuspensionRepo()
		repo.getActiveFn = func(context.Context, uint, models.SuspensionKind) (*models.Suspension, error) {
			return &models.Suspension{
				ID: 8, UserID: 2,
				Kind:      models.SuspensionKindSite,
				Duration:  models.SuspensionTemporary,
				ExpiresAt: futureTime(time.Hour),
				Active:    true,
			}, nil
		}

		svc := NewSuspensionService(repo, noopUserRepo(), newTestNotifications())
		sus, err := svc.ActiveSuspension(context.Background(), 2, models.SuspensionKindSite)
		require.NoError(t, err)
		require.NotNil(t, sus)
		assert.Equal(t, uint(8), sus.ID)
	})
}

func TestSuspensionService_EnsureCanComment(t *testing.T) {
	t.Parallel()

	t.Run("site suspension blocks commenting", func(t *testing.T) {
		t.Parallel()
		repo := noopSuspensionRepo()
		repo.getActiveFn = func(_ context.Context, _ uint, kind models.SuspensionKind) (*models.Suspension, error) {
			if kind == models.SuspensionKindSite {
				return &models.Suspension{ID: 1, Active: true, Duration: models.SuspensionPermanent}, nil
			}
			return nil, nil
		}
		svc := NewSuspensionService(repo, noopUserRepo(), newTestNotifications())
		assertAppErrorCode(t, svc.EnsureCanComment(context.Background(), 2), "UNAUTHORIZED")
	})

	t.Run("comment suspension blocks commenting only", func(t *testing.T) {
		t.Parallel()
		repo := noopSuspensionRepo()
		repo.getActiveFn = func(_ context.Context, _ uint, kind models.SuspensionKind) (*models.Suspension, error) {
			if kind == models.SuspensionKindComment {
				return &models.Suspension{ID: 1, Active: true, Duration: models.SuspensionPermanent}, nil
			}
			return nil, nil
		}
		svc := NewSuspensionService(repo, noopUserRepo(), newTestNotifications())
		assertAppErrorCode(t, svc.EnsureCanComment(context.Background(), 2), "UNAUTHORIZED")
		assert.NoError(t, svc.EnsureNotSiteSuspended(context.Background(), 2))
	})

	t.Run("clean record passes", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), noopUserRepo(), newTestNotifications())
		assert.NoError(t, svc.EnsureCanComment(context.Background(), 2))
	})
}

func TestSuspensionService_Lift(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: 1, Role: models.RoleModerator}
	member := &models.User{ID: 2, Role: models.RoleMember}

	t.Run("lifting without an active suspension is not found", func(t *testing.T) {
		t.Parallel()
		svc := NewSuspensionService(noopSuspensionRepo(), usersByID(admin, member), newTestNotifications())
		err := svc.Lift(context.Background(), 1, 2, models.SuspensionKindSite)
		assertAppErrorCode(t, err, "NOT_FOUND")
	})

	t.Run("explicit lift notifies the target", func(t *testing.T) {
		t.Parallel()
		repo := noopSuspensionRepo()
		repo.getActiveFn = func(context.Context, uint, models.SuspensionKind) (*models.Suspension, error) {
			return &models.Suspension{ID: 4, UserID: 2, Kind: models.SuspensionKindSite, Active: true}, nil
		}
		var lifted bool
		repo.markLiftedFn = func(_ context.Context, id uint, by string, _ time.Time) error {
			lifted = true
			assert.Equal(t, uint(4), id)
			assert.Equal(t, "1", by)
			return nil
		}

		users := usersByID(admin, member)
		sink := newNotificationSink()
		svc := NewSuspensionService(repo, users, sink.service(users))

		require.NoError(t, svc.Lift(context.Background(), 1, 2, models.SuspensionKindSite))
		assert.True(t, lifted)
		require.Len(t, sink.entries, 1)
		assert.Equal(t, models.NotificationUnbanned, sink.entries[0].Type)
	})
}

func TestSuspensionService_ListActive_DropsExpired(t *testing.T) {
	t.Parallel()

	expired := time.Now().Add(-time.Hour)
	repo := noopSuspensionRepo()
	repo.listActiveFn = func(context.Context, models.SuspensionKind, int, int) ([]models.Suspension, error) {
		return []models.Suspension{
			{ID: 1, Duration: models.SuspensionPermanent, Active: true},
			{ID: 2, Duration: models.SuspensionTemporary, ExpiresAt: &expired, Active: true},
		}, nil
	}

	svc := NewSuspensionService(repo, noopUserRepo(), newTestNotifications())
	live, err := svc.ListActive(context.Background(), models.SuspensionKindSite, 50, 0)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, uint(1), live[0].ID)
}
