package service

import (
	"context"
	"fmt"
	"log/slog"

	"mangafas/internal/models"
	"mangafas/internal/repository"
	"mangafas/internal/validation"
)

// UserService provides account and role management logic.
type UserService struct {
	userRepo         repository.UserRepository
	suspensionRepo   repository.SuspensionRepository
	catalogRepo      repository.CatalogRepository
	commentRepo      repository.CommentRepository
	reportRepo       repository.ReportRepository
	notificationRepo repository.NotificationRepository
	notifications    *NotificationService
}

// NewUserService returns a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	suspensionRepo repository.SuspensionRepository,
	catalogRepo repository.CatalogRepository,
	commentRepo repository.CommentRepository,
	reportRepo repository.ReportRepository,
	notificationRepo repository.NotificationRepository,
	notifications *NotificationService,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		suspensionRepo:   suspensionRepo,
		catalogRepo:      catalogRepo,
		commentRepo:      commentRepo,
		reportRepo:       reportRepo,
		notificationRepo: notificationRepo,
		notifications:    notifications,
	}
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	UserID   uint
	Username string
	Bio      string
	Avatar   string
}

// GetUserByID returns a user with their unread notification count filled in.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	unread, err := s.notificationRepo.CountUnread(ctx, id)
	if err == nil {
		user.UnreadNotifications = unread
	}
	return user, nil
}

// ListUsers returns a page of users for admin views.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.userRepo.List(ctx, limit, offset)
}

// SearchUsers finds users by username or email fragment.
func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if query == "" {
		return s.ListUsers(ctx, limit, offset)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// UpdateProfile applies profile edits for the account owner.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500

	if in.Username != "" {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = in.Username
	}
	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangeRole reassigns a user's role and notifies the target. The capability
// flag is the only gate: any administrator may set any role, their own
// included, up to and including owner.
func (s *UserService) ChangeRole(ctx context.Context, actorID, targetID uint, newRole models.Role) (*models.User, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Permissions().CanAdminister {
		return nil, models.NewUnauthorizedError("You are not allowed to change roles")
	}
	if !newRole.Valid() {
		return nil, models.NewValidationError("Unknown role")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == newRole {
		return target, nil
	}

	oldRole := target.Role
	if err := s.userRepo.UpdateRole(ctx, targetID, newRole); err != nil {
		return nil, err
	}
	target.Role = newRole

	s.notifications.NotifyBestEffort(ctx, targetID, models.NotificationRoleChanged,
		"Role changed",
		fmt.Sprintf("Your role has been changed from %s to %s.", oldRole.Label(), newRole.Label()),
		models.RoleChangedPayload{
			OldRole:   oldRole,
			NewRole:   newRole,
			ChangedBy: actorID,
		})

	return target, nil
}

// DeleteUser removes an account and its personal data: favorites, reading
// history, inbox, reactions, and active suspensions; open reports the user
// filed are dismissed so they leave the review queue. Comments are kept
// (soft-deleted rows preserve thread structure) and authored catalog entries
// stay live.
func (s *UserService) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	if actorID != targetID {
		actor, err := s.userRepo.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.Permissions().CanAdminister {
			return models.NewUnauthorizedError("You are not allowed to delete this account")
		}
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return models.NewUnauthorizedError("The owner account cannot be deleted")
	}

	if err := s.catalogRepo.DeleteFavoritesByUser(ctx, targetID); err != nil {
		slog.WarnContext(ctx, "failed to delete favorites during account removal",
			slog.Any("user_id", targetID), slog.String("error", err.Error()))
	}
	if err := s.catalogRepo.DeleteHistoryByUser(ctx, targetID); err != nil {
		slog.WarnContext(ctx, "failed to delete reading history during account removal",
			slog.Any("user_id", targetID), slog.String("error", err.Error()))
	}
	if err := s.notificationRepo.DeleteByUser(ctx, targetID); err != nil {
		slog.WarnContext(ctx, "failed to delete inbox during account removal",
			slog.Any("user_id", targetID), slog.String("error", err.Error()))
	}
	if err := s.commentRepo.DeleteReactionsByUser(ctx, targetID); err != nil {
		slog.WarnContext(ctx, "failed to delete reactions during account removal",
			slog.Any("user_id", targetID), slog.String("error", err.Error()))
	}
	if err := s.reportRepo.DismissOpenByReporter(ctx, targetID, actorID, "reporter account deleted"); err != nil {
		slog.WarnContext(ctx, "failed to dismiss open reports during account removal",
			slog.Any("user_id", targetID), slog.String("error", err.Error()))
	}
	if err := s.suspensionRepo.DeactivateAllForUser(ctx, targetID, models.SystemActor); err != nil {
		slog.WarnContext(ctx, "failed to deactivate suspensions during account removal",
			slog.Any("user_id", targetID), slog.String("error", err.Error()))
	}

	return s.userRepo.Delete(ctx, targetID)
}

// UserStats aggregates account counts for the admin dashboard.
type UserStats struct {
	Total  int64                  `json:"total"`
	ByRole map[models.Role]int64  `json:"by_role"`
	Labels map[models.Role]string `json:"labels"`
}

// Stats returns per-role account counts.
func (s *UserService) Stats(ctx context.Context) (*UserStats, error) {
	counts, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	stats := &UserStats{
		ByRole: counts,
		Labels: make(map[models.Role]string, len(models.AllRoles())),
	}
	for _, role := range models.AllRoles() {
		stats.Total += counts[role]
		stats.Labels[role] = role.Label()
	}
	return stats, nil
}

// Permissions returns the capability set of a user's current role.
func (s *UserService) Permissions(ctx context.Context, userID uint) (models.Capabilities, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return models.Capabilities{}, err
	}
	return user.Permissions(), nil
}
