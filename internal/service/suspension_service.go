package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mangafas/internal/models"
	"mangafas/internal/observability"
	"mangafas/internal/repository"
	"mangafas/internal/validation"
)

// SuspensionService manages site and comment suspensions. The two kinds are
// independent tracks: issuing or lifting one never touches the other.
type SuspensionService struct {
	suspensionRepo repository.SuspensionRepository
	userRepo       repository.UserRepository
	notifications  *NotificationService
	now            func() time.Time
}

// NewSuspensionService returns a new SuspensionService.
func NewSuspensionService(
	suspensionRepo repository.SuspensionRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *SuspensionService {
	return &SuspensionService{
		suspensionRepo: suspensionRepo,
		userRepo:       userRepo,
		notifications:  notifications,
		now:            time.Now,
	}
}

// IssueSuspensionInput carries the parameters of a new suspension.
type IssueSuspensionInput struct {
	ActorID  uint
	UserID   uint
	Kind     models.SuspensionKind
	Duration models.SuspensionDuration
	// ExpiresAt is required for temporary suspensions and ignored for
	// permanent ones.
	ExpiresAt *time.Time
	Reason    string
}

// Issue places a new suspension on a user. The actor needs the administer
// capability and the target must not already hold an active suspension of the
// same kind.
func (s *SuspensionService) Issue(ctx context.Context, in IssueSuspensionInput) (*models.Suspension, error) {
	actor, err := s.userRepo.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.Permissions().CanAdminister {
		return nil, models.NewUnauthorizedError("You are not allowed to suspend users")
	}
	if in.ActorID == in.UserID {
		return nil, models.NewValidationError("You cannot suspend yourself")
	}
	if err := validation.ValidateReason(in.Reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Kind != models.SuspensionKindSite && in.Kind != models.SuspensionKindComment {
		return nil, models.NewValidationError("Unknown suspension kind")
	}

	target, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	// The owner account is never suspendable.
	if target.Role == models.RoleOwner {
		return nil, models.NewUnauthorizedError("The site owner cannot be suspended")
	}

	now := s.now()
	suspension := &models.Suspension{
		UserID:         in.UserID,
		IssuedByUserID: in.ActorID,
		Kind:           in.Kind,
		Duration:       in.Duration,
		Reason:         in.Reason,
		IssuedAt:       now,
		Active:         true,
	}
	switch in.Duration {
	case models.SuspensionTemporary:
		if in.ExpiresAt == nil || !in.ExpiresAt.After(now) {
			return nil, models.NewValidationError("A temporary suspension needs a future expiry")
		}
		suspension.ExpiresAt = in.ExpiresAt
	case models.SuspensionPermanent:
		suspension.ExpiresAt = nil
	default:
		return nil, models.NewValidationError("Unknown suspension duration")
	}

	if err := s.suspensionRepo.CreateIfNoneActive(ctx, suspension); err != nil {
		return nil, err
	}
	observability.SuspensionActions.WithLabelValues(string(in.Kind), "issue").Inc()

	ntype := models.NotificationBanned
	title := "Account suspended"
	message := fmt.Sprintf("Your account has been suspended: %s", in.Reason)
	if in.Kind == models.SuspensionKindComment {
		ntype = models.NotificationCommentBanned
		title = "Commenting suspended"
		message = fmt.Sprintf("You have been suspended from commenting: %s", in.Reason)
	}
	s.notifications.NotifyBestEffort(ctx, in.UserID, ntype, title, message, models.SuspensionPayload{
		SuspensionID: suspension.ID,
		Kind:         in.Kind,
		Duration:     in.Duration,
		Reason:       in.Reason,
		ActorID:      in.ActorID,
	})

	return suspension, nil
}

// Lift deactivates a user's active suspension of the given kind by an explicit
// moderator action. Unlike expiry, an explicit lift notifies the user.
func (s *SuspensionService) Lift(ctx context.Context, actorID, userID uint, kind models.SuspensionKind) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Permissions().CanAdminister {
		return models.NewUnauthorizedError("You are not allowed to lift suspensions")
	}

	active, err := s.suspensionRepo.GetActive(ctx, userID, kind)
	if err != nil {
		return err
	}
	if active == nil {
		return models.NewNotFoundError("Suspension", userID)
	}

	if err := s.suspensionRepo.MarkLifted(ctx, active.ID, strconv.FormatUint(uint64(actorID), 10), s.now()); err != nil {
		return err
	}
	observability.SuspensionActions.WithLabelValues(string(kind), "lift").Inc()

	ntype := models.NotificationUnbanned
	title := "Account suspension lifted"
	message := "Your account suspension has been lifted."
	if kind == models.SuspensionKindComment {
		ntype = models.NotificationCommentUnbanned
		title = "Commenting suspension lifted"
		message = "Your commenting suspension has been lifted."
	}
	s.notifications.NotifyBestEffort(ctx, userID, ntype, title, message, models.SuspensionPayload{
		SuspensionID: active.ID,
		Kind:         kind,
		ActorID:      actorID,
	})

	return nil
}

// ActiveSuspension returns the user's active suspension of the given kind, or
// nil when there is none. Temporary suspensions whose expiry has passed are
// lifted here, on first read, attributed to the system actor and without any
// notification.
func (s *SuspensionService) ActiveSuspension(ctx context.Context, userID uint, kind models.SuspensionKind) (*models.Suspension, error) {
	suspension, err := s.suspensionRepo.GetActive(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	if suspension == nil {
		return nil, nil
	}

	if suspension.Expired(s.now()) {
		if err := s.suspensionRepo.MarkLifted(ctx, suspension.ID, models.SystemActor, s.now()); err != nil {
			// Another reader may have flipped it already; either way the
			// suspension no longer binds.
			if !models.IsBusinessError(err) {
				return nil, err
			}
		}
		observability.SuspensionActions.WithLabelValues(string(kind), "expire").Inc()
		return nil, nil
	}

	return suspension, nil
}

// EnsureNotSiteSuspended fails with an authorization error when the user holds
// an active site suspension.
func (s *SuspensionService) EnsureNotSiteSuspended(ctx context.Context, userID uint) error {
	suspension, err := s.ActiveSuspension(ctx, userID, models.SuspensionKindSite)
	if err != nil {
		return err
	}
	if suspension != nil {
		return models.NewUnauthorizedError("Your account is suspended")
	}
	return nil
}

// EnsureCanComment fails when the user holds an active suspension of either
// kind: a site suspension blocks everything, a comment suspension blocks
// comment writes only.
func (s *SuspensionService) EnsureCanComment(ctx context.Context, userID uint) error {
	if err := s.EnsureNotSiteSuspended(ctx, userID); err != nil {
		return err
	}
	suspension, err := s.ActiveSuspension(ctx, userID, models.SuspensionKindComment)
	if err != nil {
		return err
	}
	if suspension != nil {
		return models.NewUnauthorizedError("You are suspended from commenting")
	}
	return nil
}

// ListForUser returns a user's full suspension history, newest first. The
// active entries are refreshed against their expiry first.
func (s *SuspensionService) ListForUser(ctx context.Context, userID uint) ([]models.Suspension, error) {
	// Refresh both tracks so expired entries read as lifted.
	if _, err := s.ActiveSuspension(ctx, userID, models.SuspensionKindSite); err != nil {
		return nil, err
	}
	if _, err := s.ActiveSuspension(ctx, userID, models.SuspensionKindComment); err != nil {
		return nil, err
	}
	return s.suspensionRepo.ListByUser(ctx, userID)
}

// ListActive returns currently active suspensions of a kind for admin views.
// Entries whose expiry has passed are lifted on the way out.
func (s *SuspensionService) ListActive(ctx context.Context, kind models.SuspensionKind, limit, offset int) ([]models.Suspension, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	suspensions, err := s.suspensionRepo.ListActive(ctx, kind, limit, offset)
	if err != nil {
		return nil, err
	}

	live := suspensions[:0]
	now := s.now()
	for _, suspension := range suspensions {
		if suspension.Expired(now) {
			if err := s.suspensionRepo.MarkLifted(ctx, suspension.ID, models.SystemActor, now); err != nil && !models.IsBusinessError(err) {
				return nil, err
			}
			observability.SuspensionActions.WithLabelValues(string(kind), "expire").Inc()
			continue
		}
		live = append(live, suspension)
	}
	return live, nil
}
