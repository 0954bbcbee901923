package service

import (
	"context"
	"errors"
	"testing"

	"mangafas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Repository stubs are defined in suspension_service_test.go (same package).

func TestNotificationService_Notify(t *testing.T) {
	t.Parallel()

	t.Run("stores the entry with the configured cap", func(t *testing.T) {
		t.Parallel()
		repo := noopNotificationRepo()
		var gotCap int
		repo.createWithCapFn = func(_ context.Context, n *models.Notification, cap int) error {
			n.ID = 1
			gotCap = cap
			return nil
		}
		svc := NewNotificationService(repo, noopUserRepo(), nil, 50, 1)
		n, err := svc.Notify(context.Background(), 2, models.NotificationNewChapter,
			"New chapter", "Chapter 12 is out.", models.NewChapterPayload{MangaID: 1, ChapterID: 12})
		require.NoError(t, err)
		assert.Equal(t, 50, gotCap)
		assert.Equal(t, uint(2), n.UserID)
		assert.NotEmpty(t, n.Payload)
	})

	t.Run("inbox write failure propagates", func(t *testing.T) {
		t.Parallel()
		repo := noopNotificationRepo()
		repo.createWithCapFn = func(context.Context, *models.Notification, int) error {
			return models.NewInternalError(errors.New("insert failed"))
		}
		svc := NewNotificationService(repo, noopUserRepo(), nil, 50, 1)
		_, err := svc.Notify(context.Background(), 2, models.NotificationNewChapter, "t", "m", nil)
		assert.Error(t, err)
	})

	t.Run("best effort swallows delivery failure", func(t *testing.T) {
		t.Parallel()
		repo := noopNotificationRepo()
		repo.createWithCapFn = func(context.Context, *models.Notification, int) error {
			return models.NewInternalError(errors.New("insert failed"))
		}
		svc := NewNotificationService(repo, noopUserRepo(), nil, 50, 1)
		// Must not panic or propagate.
		svc.NotifyBestEffort(context.Background(), 2, models.NotificationNewChapter, "t", "m", nil)
	})
}

func TestNotificationService_NotifyAdministrators(t *testing.T) {
	t.Parallel()

	t.Run("fans out to every administrator", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.listByRolesFn = func(_ context.Context, roles []models.Role) ([]models.User, error) {
			// Only roles with the administer capability are queried.
			for _, r := range roles {
				assert.True(t, models.PermissionsFor(r).CanAdminister)
			}
			return []models.User{
				{ID: 1, Role: models.RoleOwner},
				{ID: 9, Role: models.RoleModerator},
			}, nil
		}
		repo := noopNotificationRepo()
		var recipients []uint
		repo.createWithCapFn = func(_ context.Context, n *models.Notification, _ int) error {
			recipients = append(recipients, n.UserID)
			return nil
		}
		svc := NewNotificationService(repo, users, nil, 50, 1)
		svc.NotifyAdministrators(context.Background(), models.NotificationContentPending, "t", "m", nil)
		assert.ElementsMatch(t, []uint{1, 9}, recipients)
	})

	t.Run("falls back to the system recipient when no administrators exist", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.listByRolesFn = func(context.Context, []models.Role) ([]models.User, error) {
			return nil, nil
		}
		repo := noopNotificationRepo()
		var recipients []uint
		repo.createWithCapFn = func(_ context.Context, n *models.Notification, _ int) error {
			recipients = append(recipients, n.UserID)
			return nil
		}
		svc := NewNotificationService(repo, users, nil, 50, 42)
		svc.NotifyAdministrators(context.Background(), models.NotificationContentPending, "t", "m", nil)
		assert.Equal(t, []uint{42}, recipients)
	})

	t.Run("falls back to the system recipient on lookup failure", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.listByRolesFn = func(context.Context, []models.Role) ([]models.User, error) {
			return nil, models.NewInternalError(errors.New("db down"))
		}
		repo := noopNotificationRepo()
		var recipients []uint
		repo.createWithCapFn = func(_ context.Context, n *models.Notification, _ int) error {
			recipients = append(recipients, n.UserID)
			return nil
		}
		svc := NewNotificationService(repo, users, nil, 50, 42)
		svc.NotifyAdministrators(context.Background(), models.NotificationContentPending, "t", "m", nil)
		assert.Equal(t, []uint{42}, recipients)
	})
}

func TestNotificationService_List_ClampsToCap(t *testing.T) {
	t.Parallel()

	repo := noopNotificationRepo()
	var gotLimit int
	repo.listByUserFn = func(_ context.Context, _ uint, limit, _ int) ([]models.Notification, error) {
		gotLimit = limit
		return nil, nil
	}
	svc := NewNotificationService(repo, noopUserRepo(), nil, 50, 1)

	_, err := svc.List(context.Background(), 2, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)

	_, err = svc.List(context.Background(), 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)

	_, err = svc.List(context.Background(), 2, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
}

func TestNotificationService_MarkRead_ScopedToOwner(t *testing.T) {
	t.Parallel()

	repo := noopNotificationRepo()
	var gotID, gotUserID uint
	repo.markReadFn = func(_ context.Context, id, userID uint) error {
		gotID, gotUserID = id, userID
		return nil
	}
	svc := NewNotificationService(repo, noopUserRepo(), nil, 50, 1)
	require.NoError(t, svc.MarkRead(context.Background(), 7, 2))
	assert.Equal(t, uint(7), gotID)
	assert.Equal(t, uint(2), gotUserID)
}
