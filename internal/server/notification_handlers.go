// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"mangafas/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications returns the caller's inbox, newest first (protected)
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	items, err := s.notificationService.List(ctx, userID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(items)
}

// GetUnreadCount returns the number of unread notifications (protected)
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} object{count=int}
// @Router /notifications/unread-count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	count, err := s.notificationService.CountUnread(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead marks one notification as read (protected)
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	notificationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.notificationService.MarkRead(ctx, notificationID, userID); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks the whole inbox as read (protected)
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	if err := s.notificationService.MarkAllRead(ctx, userID); err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}
