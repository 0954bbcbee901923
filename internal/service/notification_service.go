// Package service implements the application's business logic.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"mangafas/internal/models"
	"mangafas/internal/notifications"
	"mangafas/internal/observability"
	"mangafas/internal/repository"
)

// NotificationService creates inbox entries and pushes them to connected
// clients. Delivery is best effort: a failed push or even a failed inbox write
// never rolls back the state transition that produced it.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	notifier         *notifications.Notifier
	inboxCap         int
	// systemRecipientID receives administrative notifications when no user
	// with the administer capability exists.
	systemRecipientID uint
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
	inboxCap int,
	systemRecipientID uint,
) *NotificationService {
	return &NotificationService{
		notificationRepo:  notificationRepo,
		userRepo:          userRepo,
		notifier:          notifier,
		inboxCap:          inboxCap,
		systemRecipientID: systemRecipientID,
	}
}

// Notify writes a notification into the recipient's inbox and pushes it over
// the live channel. Returns the stored notification.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID uint,
	ntype models.NotificationType,
	title, message string,
	payload interface{},
) (*models.Notification, error) {
	raw, err := models.MarshalPayload(payload)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	n := &models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
		Payload: raw,
	}
	if err := s.notificationRepo.CreateWithCap(ctx, n, s.inboxCap); err != nil {
		return nil, err
	}
	observability.NotificationsDelivered.WithLabelValues(string(ntype)).Inc()

	s.push(ctx, n)
	return n, nil
}

// NotifyBestEffort is Notify for callers that must not fail on delivery
// trouble; errors are logged and swallowed.
func (s *NotificationService) NotifyBestEffort(
	ctx context.Context,
	userID uint,
	ntype models.NotificationType,
	title, message string,
	payload interface{},
) {
	if _, err := s.Notify(ctx, userID, ntype, title, message, payload); err != nil {
		slog.WarnContext(ctx, "notification delivery failed",
			slog.Any("recipient", userID),
			slog.String("type", string(ntype)),
			slog.String("error", err.Error()),
		)
	}
}

// NotifyAdministrators fans a notification out to every user whose role grants
// the administer capability. When no such user exists the system recipient
// gets a single copy instead, so the event is never silently lost.
func (s *NotificationService) NotifyAdministrators(
	ctx context.Context,
	ntype models.NotificationType,
	title, message string,
	payload interface{},
) {
	admins, err := s.userRepo.ListByRoles(ctx, administratorRoles())
	if err != nil {
		slog.WarnContext(ctx, "administrator fan-out failed, falling back to system recipient",
			slog.String("type", string(ntype)),
			slog.String("error", err.Error()),
		)
		admins = nil
	}

	if len(admins) == 0 {
		s.NotifyBestEffort(ctx, s.systemRecipientID, ntype, title, message, payload)
		return
	}

	for _, admin := range admins {
		s.NotifyBestEffort(ctx, admin.ID, ntype, title, message, payload)
	}
}

func (s *NotificationService) push(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := s.notifier.PublishUser(ctx, n.UserID, string(raw)); err != nil {
		slog.WarnContext(ctx, "notification push failed",
			slog.Any("recipient", n.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// List returns a page of the user's inbox, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > s.inboxCap {
		limit = s.inboxCap
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead marks a single notification read. Users can only touch their own.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks the user's whole inbox read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// CountUnread returns the user's unread notification count.
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// administratorRoles returns the roles whose capability set includes
// administration.
func administratorRoles() []models.Role {
	var roles []models.Role
	for _, role := range models.AllRoles() {
		if models.PermissionsFor(role).CanAdminister {
			roles = append(roles, role)
		}
	}
	return roles
}
