// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"mangafas/internal/models"
	"mangafas/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment posts a comment on a manga or one of its chapters (protected)
// @Summary Create a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Manga ID"
// @Param request body object{content=string,chapter_id=int,parent_id=int} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /manga/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	mangaID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content   string `json:"content"`
		ChapterID *uint  `json:"chapter_id"`
		ParentID  *uint  `json:"parent_id"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentService.AddComment(ctx, service.AddCommentInput{
		UserID:    userID,
		MangaID:   mangaID,
		ChapterID: req.ChapterID,
		ParentID:  req.ParentID,
		Content:   req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetComments returns a manga's top-level comments, newest first (public).
// Hidden comments are masked unless the viewer can moderate.
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path int true "Manga ID"
// @Param chapter_id query int false "Restrict to one chapter"
// @Success 200 {array} models.Comment
// @Router /manga/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.UserContext()

	mangaID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	var chapterID *uint
	if raw := c.QueryInt("chapter_id", 0); raw > 0 {
		id := uint(raw)
		chapterID = &id
	}

	viewerID, _ := s.optionalUserID(c)
	comments, err := s.commentService.ListComments(ctx, viewerID, mangaID, chapterID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(comments)
}

// GetReplies returns a comment's replies, oldest first (public)
// @Summary List replies
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {array} models.Comment
// @Router /comments/{id}/replies [get]
func (s *Server) GetReplies(c *fiber.Ctx) error {
	ctx := c.UserContext()

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID, _ := s.optionalUserID(c)
	replies, err := s.commentService.ListReplies(ctx, viewerID, commentID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(replies)
}

// GetComment returns a single comment (protected)
// @Summary Get a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} object{error=string}
// @Router /comments/{id} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetComment(ctx, userID, commentID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(comment)
}

// UpdateComment edits a comment; each comment can be edited once (owner only)
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.Comment
// @Failure 403 {object} object{error=string}
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.commentService.EditComment(ctx, userID, commentID, req.Content)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(updated)
}

// DeleteComment removes a comment (owner, or anyone who can moderate)
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(ctx, userID, commentID); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// HideComment hides an active comment with a reason (moderator only)
// @Summary Hide a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body object{reason=string} true "Reason"
// @Success 200 {object} object{message=string}
// @Failure 409 {object} object{error=string}
// @Router /comments/{id}/hide [post]
func (s *Server) HideComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	moderatorID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.commentService.HideComment(ctx, moderatorID, commentID, req.Reason); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Comment hidden"})
}

// RestoreComment makes a hidden comment visible again (moderator only)
// @Summary Restore a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 409 {object} object{error=string}
// @Router /comments/{id}/restore [post]
func (s *Server) RestoreComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	moderatorID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.RestoreComment(ctx, moderatorID, commentID); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Comment restored"})
}

// ReactToComment toggles a like or dislike (protected). Reacting again with
// the same kind removes it; the other kind switches it.
// @Summary React to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body object{kind=string} true "like or dislike"
// @Success 200 {object} models.Comment
// @Failure 400 {object} object{error=string}
// @Router /comments/{id}/reactions [post]
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Kind models.ReactionKind `json:"kind"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.ToggleReaction(ctx, userID, commentID, req.Kind)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(comment)
}

// GetCommentsByStatus lists comments in one moderation state (moderator only)
// @Summary List comments by status
// @Tags comments
// @Produce json
// @Param status path string true "active, hidden or deleted"
// @Success 200 {array} models.Comment
// @Router /comments/status/{status} [get]
func (s *Server) GetCommentsByStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	moderatorID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	status := models.CommentStatus(c.Params("status"))
	switch status {
	case models.CommentStatusActive, models.CommentStatusHidden, models.CommentStatusDeleted:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown comment status"))
	}

	comments, err := s.commentService.ListByStatus(ctx, moderatorID, status, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(comments)
}

// GetCommentStats returns aggregate comment counts (moderator only)
// @Summary Comment statistics
// @Tags comments
// @Produce json
// @Success 200 {object} models.CommentStats
// @Router /comments/stats [get]
func (s *Server) GetCommentStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	moderatorID := c.Locals("userID").(uint)

	stats, err := s.commentService.Stats(ctx, moderatorID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(stats)
}
