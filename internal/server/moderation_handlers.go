// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"mangafas/internal/models"
	"mangafas/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitContent takes a title or chapter upload (protected). Contributors whose
// role requires approval get a pending submission back; trusted roles see their
// content published immediately.
// @Summary Submit content
// @Tags content
// @Accept json
// @Produce json
// @Param request body object{kind=string,title=models.MangaPayload,chapter=models.ChapterPayload} true "Submission"
// @Success 201 {object} service.SubmissionResult
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /content [post]
func (s *Server) SubmitContent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req struct {
		Kind    models.ContentKind     `json:"kind"`
		Title   *models.MangaPayload   `json:"title"`
		Chapter *models.ChapterPayload `json:"chapter"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.moderationService.Submit(ctx, service.SubmitContentInput{
		UserID:  userID,
		Kind:    req.Kind,
		Title:   req.Title,
		Chapter: req.Chapter,
	})
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetPendingContent returns the review queue, oldest first (admin only)
// @Summary List pending submissions
// @Tags content
// @Produce json
// @Success 200 {array} models.PendingContent
// @Router /content/pending [get]
func (s *Server) GetPendingContent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	pending, err := s.moderationService.ListPending(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(pending)
}

// GetMySubmissions returns the caller's own submissions, newest first (protected)
// @Summary List own submissions
// @Tags content
// @Produce json
// @Success 200 {array} models.PendingContent
// @Router /content/mine [get]
func (s *Server) GetMySubmissions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	submissions, err := s.moderationService.ListMySubmissions(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(submissions)
}

// ApproveContent publishes a pending submission (admin only)
// @Summary Approve a submission
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Pending content ID"
// @Param request body object{notes=string} false "Review notes"
// @Success 200 {object} models.PendingContent
// @Failure 409 {object} object{error=string}
// @Router /content/{id}/approve [post]
func (s *Server) ApproveContent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reviewerID := c.Locals("userID").(uint)

	pendingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// An empty body is fine for approvals.
	_ = c.BodyParser(&req)

	decided, err := s.moderationService.Approve(ctx, reviewerID, pendingID, req.Notes)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(decided)
}

// RejectContent declines a pending submission (admin only)
// @Summary Reject a submission
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "Pending content ID"
// @Param request body object{notes=string} false "Review notes"
// @Success 200 {object} models.PendingContent
// @Failure 409 {object} object{error=string}
// @Router /content/{id}/reject [post]
func (s *Server) RejectContent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reviewerID := c.Locals("userID").(uint)

	pendingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.BodyParser(&req)

	decided, err := s.moderationService.Reject(ctx, reviewerID, pendingID, req.Notes)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(decided)
}
