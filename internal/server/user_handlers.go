// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"mangafas/internal/models"
	"mangafas/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile returns the authenticated user's profile (protected)
// @Summary Get own profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(user)
}

// UpdateMyProfile updates the authenticated user's profile (protected)
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,bio=string,avatar=string} true "Profile fields"
// @Success 200 {object} models.User
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
		Avatar   string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.userService.UpdateProfile(ctx, service.UpdateProfileInput{
		UserID:   userID,
		Username: req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(updated)
}

// GetMyPermissions returns the capability set of the authenticated user's role (protected)
// @Summary Get own permissions
// @Tags users
// @Produce json
// @Success 200 {object} models.Capabilities
// @Router /users/me/permissions [get]
func (s *Server) GetMyPermissions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	caps, err := s.userService.Permissions(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(caps)
}

// GetUserProfile returns another user's public profile (protected)
// @Summary Get user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} object{error=string}
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(user)
}

// GetAllUsers returns a page of users (admin only)
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	users, err := s.userService.ListUsers(ctx, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(users)
}

// SearchUsers finds users by username or email fragment (admin only)
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {array} models.User
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p := parsePagination(c, 50)

	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	users, err := s.userService.SearchUsers(ctx, query, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(users)
}

// ChangeUserRole assigns a new role to a user (admin only)
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body object{role=string} true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Router /users/{id}/role [put]
func (s *Server) ChangeUserRole(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := c.Locals("userID").(uint)

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Role models.Role `json:"role"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.userService.ChangeRole(ctx, actorID, targetID, req.Role)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(updated)
}

// DeleteUser removes an account (self or admin)
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := c.Locals("userID").(uint)

	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteUser(ctx, actorID, targetID); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// GetUserSuspensions returns a user's full suspension history (admin only)
// @Summary List a user's suspensions
// @Tags suspensions
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Suspension
// @Router /users/{id}/suspensions [get]
func (s *Server) GetUserSuspensions(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	suspensions, err := s.suspensionService.ListForUser(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(suspensions)
}

// GetUserStats returns aggregate user counts by role (admin only)
// @Summary User statistics
// @Tags admin
// @Produce json
// @Success 200 {object} service.UserStats
// @Router /admin/stats/users [get]
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	stats, err := s.userService.Stats(ctx)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(stats)
}
