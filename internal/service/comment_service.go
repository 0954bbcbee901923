package service

import (
	"context"
	"fmt"

	"mangafas/internal/models"
	"mangafas/internal/observability"
	"mangafas/internal/repository"
	"mangafas/internal/validation"
)

// hiddenPlaceholder replaces the body of comments a viewer may not read.
const (
	hiddenPlaceholder  = "[hidden by a moderator]"
	deletedPlaceholder = "[deleted]"
)

// CommentService provides the comment lifecycle: writing, the single allowed
// edit, deletion, moderator hide/restore, and like/dislike reactions.
type CommentService struct {
	commentRepo   repository.CommentRepository
	catalogRepo   repository.CatalogRepository
	userRepo      repository.UserRepository
	suspensions   *SuspensionService
	notifications *NotificationService
}

// NewCommentService returns a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	catalogRepo repository.CatalogRepository,
	userRepo repository.UserRepository,
	suspensions *SuspensionService,
	notifications *NotificationService,
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		catalogRepo:   catalogRepo,
		userRepo:      userRepo,
		suspensions:   suspensions,
		notifications: notifications,
	}
}

// AddCommentInput carries a new comment or reply.
type AddCommentInput struct {
	UserID    uint
	MangaID   uint
	ChapterID *uint
	ParentID  *uint
	Content   string
}

// AddComment posts a comment. The author needs the comment capability and a
// clean suspension record; replies attach to an existing visible comment.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Permissions().CanComment {
		return nil, models.NewUnauthorizedError("Your role does not allow commenting")
	}
	if err := s.suspensions.EnsureCanComment(ctx, in.UserID); err != nil {
		return nil, err
	}
	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.catalogRepo.GetManga(ctx, in.MangaID); err != nil {
		return nil, err
	}
	if in.ChapterID != nil {
		chapter, err := s.catalogRepo.GetChapter(ctx, *in.ChapterID)
		if err != nil {
			return nil, err
		}
		if chapter.MangaID != in.MangaID {
			return nil, models.NewValidationError("Chapter does not belong to this manga")
		}
	}
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Status != models.CommentStatusActive {
			return nil, models.NewValidationError("Cannot reply to a removed comment")
		}
		if parent.MangaID != in.MangaID {
			return nil, models.NewValidationError("Parent comment belongs to a different manga")
		}
		// One level of nesting: replies to replies attach to the root.
		if parent.ParentID != nil {
			in.ParentID = parent.ParentID
		}
	}

	comment := &models.Comment{
		MangaID:   in.MangaID,
		ChapterID: in.ChapterID,
		UserID:    in.UserID,
		ParentID:  in.ParentID,
		Content:   in.Content,
		Status:    models.CommentStatusActive,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// EditComment applies the single edit a comment author is allowed. A comment
// already marked edited rejects further edits at the authorization level; the
// stored flag simply stays set.
func (s *CommentService) EditComment(ctx context.Context, userID, commentID uint, content string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewUnauthorizedError("You can only edit your own comments")
	}
	if comment.Status != models.CommentStatusActive {
		return nil, models.NewValidationError("Only active comments can be edited")
	}
	if comment.IsEdited {
		return nil, models.NewUnauthorizedError("A comment can only be edited once")
	}
	if err := s.suspensions.EnsureCanComment(ctx, userID); err != nil {
		return nil, err
	}
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment.Content = content
	comment.IsEdited = true
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, commentID)
}

// DeleteComment removes a comment. Authors may delete their own; users with
// the comment moderation capability may delete anyone's. Deletion is terminal
// and keeps the row so reply threads stay intact.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Status == models.CommentStatusDeleted {
		return models.NewNotFoundError("Comment", commentID)
	}

	var moderatedBy *uint
	if comment.UserID != userID {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.Permissions().CanModerateComments {
			return models.NewUnauthorizedError("You can only delete your own comments")
		}
		moderatedBy = &userID
	}

	if err := s.commentRepo.SetStatus(ctx, commentID, models.CommentStatusDeleted, moderatedBy, ""); err != nil {
		return err
	}
	observability.CommentModerationActions.WithLabelValues("delete").Inc()
	return nil
}

// HideComment takes a comment out of view, reversibly, and tells the author.
func (s *CommentService) HideComment(ctx context.Context, moderatorID, commentID uint, reason string) error {
	if err := s.requireModerateComments(ctx, moderatorID); err != nil {
		return err
	}
	if err := validation.ValidateReason(reason); err != nil {
		return models.NewValidationError(err.Error())
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Status != models.CommentStatusActive {
		return models.NewConflictError("only active comments can be hidden")
	}

	if err := s.commentRepo.SetStatus(ctx, commentID, models.CommentStatusHidden, &moderatorID, reason); err != nil {
		return err
	}
	observability.CommentModerationActions.WithLabelValues("hide").Inc()

	s.notifications.NotifyBestEffort(ctx, comment.UserID, models.NotificationCommentHidden,
		"Comment hidden",
		fmt.Sprintf("One of your comments has been hidden by a moderator: %s", reason),
		models.CommentModerationPayload{
			CommentID: commentID,
			Reason:    reason,
		})

	return nil
}

// RestoreComment brings a hidden comment back and tells the author.
func (s *CommentService) RestoreComment(ctx context.Context, moderatorID, commentID uint) error {
	if err := s.requireModerateComments(ctx, moderatorID); err != nil {
		return err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Status != models.CommentStatusHidden {
		return models.NewConflictError("only hidden comments can be restored")
	}

	if err := s.commentRepo.SetStatus(ctx, commentID, models.CommentStatusActive, &moderatorID, ""); err != nil {
		return err
	}
	observability.CommentModerationActions.WithLabelValues("restore").Inc()

	s.notifications.NotifyBestEffort(ctx, comment.UserID, models.NotificationCommentRestored,
		"Comment restored",
		"One of your comments has been restored by a moderator.",
		models.CommentModerationPayload{
			CommentID: commentID,
		})

	return nil
}

// ToggleReaction applies a like or dislike. Reacting the same way twice
// removes the reaction; reacting the other way switches it. The two sets stay
// mutually exclusive throughout.
func (s *CommentService) ToggleReaction(ctx context.Context, userID, commentID uint, kind models.ReactionKind) (*models.Comment, error) {
	if kind != models.ReactionLike && kind != models.ReactionDislike {
		return nil, models.NewValidationError("Unknown reaction")
	}
	if err := s.suspensions.EnsureNotSiteSuspended(ctx, userID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Status != models.CommentStatusActive {
		return nil, models.NewValidationError("Cannot react to a removed comment")
	}

	existing, err := s.commentRepo.GetReaction(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case existing == nil:
		if err := s.commentRepo.SaveReaction(ctx, &models.CommentReaction{
			CommentID: commentID,
			UserID:    userID,
			Kind:      kind,
		}); err != nil {
			return nil, err
		}
	case existing.Kind == kind:
		if err := s.commentRepo.DeleteReaction(ctx, commentID, userID); err != nil {
			return nil, err
		}
	default:
		existing.Kind = kind
		if err := s.commentRepo.SaveReaction(ctx, existing); err != nil {
			return nil, err
		}
	}

	return s.commentRepo.GetByID(ctx, commentID)
}

// GetComment returns one comment with its body masked for the viewer.
func (s *CommentService) GetComment(ctx context.Context, viewerID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	canModerate, err := s.viewerCanModerate(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	s.maskComment(comment, canModerate)
	return comment, nil
}

// ListComments returns top-level comments (newest first) with their replies
// (oldest first). Hidden bodies are masked unless the viewer can moderate;
// deleted comments stay as placeholders so threads keep their shape.
func (s *CommentService) ListComments(ctx context.Context, viewerID, mangaID uint, chapterID *uint, limit, offset int) ([]*models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if _, err := s.catalogRepo.GetManga(ctx, mangaID); err != nil {
		return nil, err
	}

	canModerate, err := s.viewerCanModerate(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListTopLevel(ctx, mangaID, chapterID, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		s.maskComment(c, canModerate)
	}
	return comments, nil
}

// ListReplies returns the replies of a comment, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, viewerID, parentID uint) ([]*models.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, parentID); err != nil {
		return nil, err
	}
	canModerate, err := s.viewerCanModerate(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	replies, err := s.commentRepo.ListReplies(ctx, parentID)
	if err != nil {
		return nil, err
	}
	for _, c := range replies {
		s.maskComment(c, canModerate)
	}
	return replies, nil
}

// ListByStatus returns comments in a moderation state for the dashboard.
func (s *CommentService) ListByStatus(ctx context.Context, moderatorID uint, status models.CommentStatus, limit, offset int) ([]*models.Comment, error) {
	if err := s.requireModerateComments(ctx, moderatorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.commentRepo.ListByStatus(ctx, status, limit, offset)
}

// Stats returns comment counts for the moderation dashboard.
func (s *CommentService) Stats(ctx context.Context, moderatorID uint) (*models.CommentStats, error) {
	if err := s.requireModerateComments(ctx, moderatorID); err != nil {
		return nil, err
	}
	return s.commentRepo.Stats(ctx)
}

func (s *CommentService) maskComment(c *models.Comment, canModerate bool) {
	switch c.Status {
	case models.CommentStatusHidden:
		if !canModerate {
			c.Content = hiddenPlaceholder
		}
	case models.CommentStatusDeleted:
		c.Content = deletedPlaceholder
	}
}

func (s *CommentService) viewerCanModerate(ctx context.Context, viewerID uint) (bool, error) {
	if viewerID == 0 {
		return false, nil
	}
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		// An unknown viewer reads as a regular member.
		if models.IsBusinessError(err) {
			return false, nil
		}
		return false, err
	}
	return viewer.Permissions().CanModerateComments, nil
}

func (s *CommentService) requireModerateComments(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Permissions().CanModerateComments {
		return models.NewUnauthorizedError("You are not allowed to moderate comments")
	}
	return nil
}
