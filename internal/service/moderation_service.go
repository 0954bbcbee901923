package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mangafas/internal/models"
	"mangafas/internal/observability"
	"mangafas/internal/repository"

	"gorm.io/datatypes"
)

// ModerationService runs the content submission pipeline: uploads from roles
// that need review go through a pending queue, group leaders and above publish
// directly.
type ModerationService struct {
	pendingRepo   repository.PendingContentRepository
	catalogRepo   repository.CatalogRepository
	userRepo      repository.UserRepository
	suspensions   *SuspensionService
	notifications *NotificationService
	now           func() time.Time
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	pendingRepo repository.PendingContentRepository,
	catalogRepo repository.CatalogRepository,
	userRepo repository.UserRepository,
	suspensions *SuspensionService,
	notifications *NotificationService,
) *ModerationService {
	return &ModerationService{
		pendingRepo:   pendingRepo,
		catalogRepo:   catalogRepo,
		userRepo:      userRepo,
		suspensions:   suspensions,
		notifications: notifications,
		now:           time.Now,
	}
}

// SubmitContentInput carries one content submission.
type SubmitContentInput struct {
	UserID  uint
	Kind    models.ContentKind
	Title   *models.MangaPayload
	Chapter *models.ChapterPayload
}

// SubmissionResult says where a submission landed: either queued for review or
// already live in the catalog.
type SubmissionResult struct {
	Pending   *models.PendingContent `json:"pending,omitempty"`
	MangaID   *uint                  `json:"manga_id,omitempty"`
	ChapterID *uint                  `json:"chapter_id,omitempty"`
}

// Submit takes an upload from a contributor. Depending on the submitter's
// role the payload is either queued for moderator review or materialized
// into the catalog immediately.
func (s *ModerationService) Submit(ctx context.Context, in SubmitContentInput) (*SubmissionResult, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.Permissions().CanUpload {
		return nil, models.NewUnauthorizedError("Your role does not allow uploading content")
	}
	if err := s.suspensions.EnsureNotSiteSuspended(ctx, in.UserID); err != nil {
		return nil, err
	}

	payload, err := s.validatePayload(ctx, in)
	if err != nil {
		return nil, err
	}

	if !models.UploadRequiresApproval(user.Role) {
		return s.materializeDirect(ctx, in)
	}

	pc := &models.PendingContent{
		Kind:              in.Kind,
		Payload:           payload,
		SubmittedByUserID: in.UserID,
		SubmittedAt:       s.now(),
		Status:            models.PendingContentStatusPending,
	}
	if err := s.pendingRepo.Create(ctx, pc); err != nil {
		return nil, err
	}

	s.notifications.NotifyAdministrators(ctx, models.NotificationContentPending,
		"Content awaiting review",
		fmt.Sprintf("%s submitted a %s for review.", user.Username, in.Kind),
		models.ContentReviewPayload{
			PendingContentID: pc.ID,
			Kind:             in.Kind,
		})

	return &SubmissionResult{Pending: pc}, nil
}

func (s *ModerationService) validatePayload(ctx context.Context, in SubmitContentInput) (datatypes.JSON, error) {
	switch in.Kind {
	case models.ContentKindTitle:
		if in.Title == nil || in.Title.Title == "" {
			return nil, models.NewValidationError("A title submission needs a name")
		}
		raw, err := json.Marshal(in.Title)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return datatypes.JSON(raw), nil
	case models.ContentKindChapter:
		if in.Chapter == nil || in.Chapter.MangaID == 0 {
			return nil, models.NewValidationError("A chapter submission needs a manga")
		}
		if in.Chapter.Number <= 0 {
			return nil, models.NewValidationError("Chapter number must be positive")
		}
		// The target title must exist before a chapter can point at it.
		if _, err := s.catalogRepo.GetManga(ctx, in.Chapter.MangaID); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(in.Chapter)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return datatypes.JSON(raw), nil
	}
	return nil, models.NewValidationError("Unknown content kind")
}

func (s *ModerationService) materializeDirect(ctx context.Context, in SubmitContentInput) (*SubmissionResult, error) {
	switch in.Kind {
	case models.ContentKindTitle:
		manga, err := s.materializeTitle(ctx, in.Title, in.UserID)
		if err != nil {
			return nil, err
		}
		return &SubmissionResult{MangaID: &manga.ID}, nil
	case models.ContentKindChapter:
		chapter, err := s.materializeChapter(ctx, in.Chapter, in.UserID)
		if err != nil {
			return nil, err
		}
		return &SubmissionResult{MangaID: &chapter.MangaID, ChapterID: &chapter.ID}, nil
	}
	return nil, models.NewValidationError("Unknown content kind")
}

func (s *ModerationService) materializeTitle(ctx context.Context, p *models.MangaPayload, submitterID uint) (*models.Manga, error) {
	genres, err := json.Marshal(p.Genres)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	status := p.Status
	if status == "" {
		status = models.MangaStatusOngoing
	}
	mtype := p.Type
	if mtype == "" {
		mtype = models.MangaTypeManga
	}
	manga := &models.Manga{
		Title:           p.Title,
		Description:     p.Description,
		CoverURL:        p.CoverURL,
		Author:          p.Author,
		Artist:          p.Artist,
		Year:            p.Year,
		Status:          status,
		Type:            mtype,
		Genres:          datatypes.JSON(genres),
		CreatedByUserID: submitterID,
	}
	if err := s.catalogRepo.CreateManga(ctx, manga); err != nil {
		return nil, err
	}
	return manga, nil
}

func (s *ModerationService) materializeChapter(ctx context.Context, p *models.ChapterPayload, submitterID uint) (*models.Chapter, error) {
	pages, err := json.Marshal(p.Pages)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	chapter := &models.Chapter{
		MangaID:         p.MangaID,
		Title:           p.Title,
		Number:          p.Number,
		Pages:           datatypes.JSON(pages),
		PublishedAt:     s.now(),
		CreatedByUserID: submitterID,
	}
	if err := s.catalogRepo.CreateChapter(ctx, chapter); err != nil {
		return nil, err
	}
	s.announceChapter(ctx, chapter)
	return chapter, nil
}

// announceChapter notifies everyone who favorited the title.
func (s *ModerationService) announceChapter(ctx context.Context, chapter *models.Chapter) {
	manga, err := s.catalogRepo.GetManga(ctx, chapter.MangaID)
	if err != nil {
		slog.WarnContext(ctx, "chapter announcement skipped",
			slog.Any("manga_id", chapter.MangaID), slog.String("error", err.Error()))
		return
	}
	// Favorites carry the recipients; walk them via the catalog.
	favorites, err := s.catalogRepo.ListFavoriters(ctx, chapter.MangaID)
	if err != nil {
		slog.WarnContext(ctx, "chapter announcement skipped",
			slog.Any("manga_id", chapter.MangaID), slog.String("error", err.Error()))
		return
	}
	for _, userID := range favorites {
		s.notifications.NotifyBestEffort(ctx, userID, models.NotificationNewChapter,
			"New chapter",
			fmt.Sprintf("Chapter %g of %s is out.", chapter.Number, manga.Title),
			models.NewChapterPayload{
				MangaID:   chapter.MangaID,
				ChapterID: chapter.ID,
			})
	}
}

// Approve accepts a pending submission. The decision is recorded first so the
// one-shot guard is what gates the catalog write: a concurrent second approve
// loses the Decide race and materializes nothing, so no duplicate entries can
// reach the catalog. Then the payload goes live and the submitter is notified.
func (s *ModerationService) Approve(ctx context.Context, reviewerID, pendingID uint, notes string) (*models.PendingContent, error) {
	if err := s.requireAdminister(ctx, reviewerID); err != nil {
		return nil, err
	}

	pc, err := s.pendingRepo.GetByID(ctx, pendingID)
	if err != nil {
		return nil, err
	}
	if pc.Status != models.PendingContentStatusPending {
		return nil, models.NewConflictError("submission has already been reviewed")
	}

	// Decode before deciding so a corrupt payload doesn't burn the one-shot.
	var titlePayload models.MangaPayload
	var chapterPayload models.ChapterPayload
	switch pc.Kind {
	case models.ContentKindTitle:
		if err := json.Unmarshal(pc.Payload, &titlePayload); err != nil {
			return nil, models.NewInternalError(err)
		}
	case models.ContentKindChapter:
		if err := json.Unmarshal(pc.Payload, &chapterPayload); err != nil {
			return nil, models.NewInternalError(err)
		}
	default:
		return nil, models.NewValidationError("Unknown content kind")
	}

	if err := s.pendingRepo.Decide(ctx, pendingID, models.PendingContentStatusApproved, reviewerID, notes); err != nil {
		return nil, err
	}

	var contentID uint
	switch pc.Kind {
	case models.ContentKindTitle:
		manga, err := s.materializeTitle(ctx, &titlePayload, pc.SubmittedByUserID)
		if err != nil {
			return nil, err
		}
		contentID = manga.ID
	case models.ContentKindChapter:
		chapter, err := s.materializeChapter(ctx, &chapterPayload, pc.SubmittedByUserID)
		if err != nil {
			return nil, err
		}
		contentID = chapter.ID
	}

	if err := s.pendingRepo.SetContentID(ctx, pendingID, contentID); err != nil {
		slog.WarnContext(ctx, "approved submission missing its content stamp",
			slog.Any("pending_id", pendingID), slog.String("error", err.Error()))
	}
	observability.ContentReviewDecisions.WithLabelValues(string(pc.Kind), "approved").Inc()

	s.notifications.NotifyBestEffort(ctx, pc.SubmittedByUserID, models.NotificationContentApproved,
		"Submission approved",
		fmt.Sprintf("Your %s submission has been approved and published.", pc.Kind),
		models.ContentReviewPayload{
			PendingContentID: pc.ID,
			Kind:             pc.Kind,
			ContentID:        contentID,
		})

	return s.pendingRepo.GetByID(ctx, pendingID)
}

// Reject declines a pending submission with review notes; nothing reaches the
// catalog and the submitter is notified.
func (s *ModerationService) Reject(ctx context.Context, reviewerID, pendingID uint, notes string) (*models.PendingContent, error) {
	if err := s.requireAdminister(ctx, reviewerID); err != nil {
		return nil, err
	}

	pc, err := s.pendingRepo.GetByID(ctx, pendingID)
	if err != nil {
		return nil, err
	}

	if err := s.pendingRepo.Decide(ctx, pendingID, models.PendingContentStatusRejected, reviewerID, notes); err != nil {
		return nil, err
	}
	observability.ContentReviewDecisions.WithLabelValues(string(pc.Kind), "rejected").Inc()

	message := fmt.Sprintf("Your %s submission has been rejected.", pc.Kind)
	if notes != "" {
		message = fmt.Sprintf("Your %s submission has been rejected: %s", pc.Kind, notes)
	}
	s.notifications.NotifyBestEffort(ctx, pc.SubmittedByUserID, models.NotificationContentRejected,
		"Submission rejected", message,
		models.ContentReviewPayload{
			PendingContentID: pc.ID,
			Kind:             pc.Kind,
		})

	return s.pendingRepo.GetByID(ctx, pendingID)
}

// ListPending returns the review queue, oldest first.
func (s *ModerationService) ListPending(ctx context.Context, reviewerID uint, limit, offset int) ([]models.PendingContent, error) {
	if err := s.requireAdminister(ctx, reviewerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.pendingRepo.ListByStatus(ctx, models.PendingContentStatusPending, limit, offset)
}

// ListMySubmissions returns a contributor's own submissions, newest first.
func (s *ModerationService) ListMySubmissions(ctx context.Context, userID uint, limit, offset int) ([]models.PendingContent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.pendingRepo.ListBySubmitter(ctx, userID, limit, offset)
}

func (s *ModerationService) requireAdminister(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Permissions().CanAdminister {
		return models.NewUnauthorizedError("You are not allowed to review submissions")
	}
	return nil
}
