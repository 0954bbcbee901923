// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"time"

	"mangafas/internal/models"
	"mangafas/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IssueSuspension bans a user from the site or from commenting (admin only)
// @Summary Issue a suspension
// @Tags suspensions
// @Accept json
// @Produce json
// @Param request body object{user_id=int,kind=string,duration=string,expires_at=string,reason=string} true "Suspension"
// @Success 201 {object} models.Suspension
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /suspensions [post]
func (s *Server) IssueSuspension(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := c.Locals("userID").(uint)

	var req struct {
		UserID    uint                      `json:"user_id"`
		Kind      models.SuspensionKind     `json:"kind"`
		Duration  models.SuspensionDuration `json:"duration"`
		ExpiresAt *time.Time                `json:"expires_at"`
		Reason    string                    `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	suspension, err := s.suspensionService.Issue(ctx, service.IssueSuspensionInput{
		ActorID:   actorID,
		UserID:    req.UserID,
		Kind:      req.Kind,
		Duration:  req.Duration,
		ExpiresAt: req.ExpiresAt,
		Reason:    req.Reason,
	})
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(suspension)
}

// LiftSuspension ends an active suspension early (admin only)
// @Summary Lift a suspension
// @Tags suspensions
// @Accept json
// @Produce json
// @Param request body object{user_id=int,kind=string} true "Target"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /suspensions/lift [post]
func (s *Server) LiftSuspension(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := c.Locals("userID").(uint)

	var req struct {
		UserID uint                  `json:"user_id"`
		Kind   models.SuspensionKind `json:"kind"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.suspensionService.Lift(ctx, actorID, req.UserID, req.Kind); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Suspension lifted"})
}

// GetActiveSuspensions lists currently active suspensions of one kind (admin only)
// @Summary List active suspensions
// @Tags suspensions
// @Produce json
// @Param kind query string false "site or comment" default(site)
// @Success 200 {array} models.Suspension
// @Router /suspensions/active [get]
func (s *Server) GetActiveSuspensions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	kind := models.SuspensionKind(c.Query("kind", string(models.SuspensionKindSite)))
	if kind != models.SuspensionKindSite && kind != models.SuspensionKindComment {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown suspension kind"))
	}

	suspensions, err := s.suspensionService.ListActive(ctx, kind, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(suspensions)
}
