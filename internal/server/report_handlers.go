// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"

	"mangafas/internal/models"
	"mangafas/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FileReport flags a comment or a user (protected)
// @Summary File a report
// @Tags reports
// @Accept json
// @Produce json
// @Param request body object{target_type=string,target_id=int,reason=string,description=string} true "Report"
// @Success 201 {object} models.Report
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /reports [post]
func (s *Server) FileReport(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reporterID := c.Locals("userID").(uint)

	var req struct {
		TargetType  models.ReportTargetType `json:"target_type"`
		TargetID    uint                    `json:"target_id"`
		Reason      models.ReportReason     `json:"reason"`
		Description string                  `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.reportService.File(ctx, service.FileReportInput{
		ReporterID:  reporterID,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetOpenReports returns the open report queue, oldest first (admin only)
// @Summary List open reports
// @Tags reports
// @Produce json
// @Param target_type query string false "comment or user"
// @Success 200 {array} models.Report
// @Router /reports [get]
func (s *Server) GetOpenReports(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	var targetType *models.ReportTargetType
	if raw := c.Query("target_type"); raw != "" {
		tt := models.ReportTargetType(raw)
		if tt != models.ReportTargetComment && tt != models.ReportTargetUser {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown report target"))
		}
		targetType = &tt
	}

	reports, err := s.reportService.ListOpen(ctx, actorID, targetType, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(reports)
}

// GetReportsForTarget returns every report ever filed against one target (admin only)
// @Summary List reports for a target
// @Tags reports
// @Produce json
// @Param type path string true "comment or user"
// @Param targetId path int true "Target ID"
// @Success 200 {array} models.Report
// @Router /reports/target/{type}/{targetId} [get]
func (s *Server) GetReportsForTarget(c *fiber.Ctx) error {
	ctx := c.UserContext()
	actorID := c.Locals("userID").(uint)

	targetType := models.ReportTargetType(c.Params("type"))
	if targetType != models.ReportTargetComment && targetType != models.ReportTargetUser {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown report target"))
	}

	targetID, err := s.parseID(c, "targetId")
	if err != nil {
		return nil
	}

	reports, err := s.reportService.ListForTarget(ctx, actorID, targetType, targetID)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(reports)
}

// ResolveReport closes a report as actioned (admin only)
// @Summary Resolve a report
// @Tags reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body object{note=string} false "Resolution note"
// @Success 200 {object} models.Report
// @Failure 409 {object} object{error=string}
// @Router /reports/{id}/resolve [post]
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	return s.closeReport(c, s.reportService.Resolve)
}

// DismissReport closes a report without action (admin only)
// @Summary Dismiss a report
// @Tags reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body object{note=string} false "Dismissal note"
// @Success 200 {object} models.Report
// @Failure 409 {object} object{error=string}
// @Router /reports/{id}/dismiss [post]
func (s *Server) DismissReport(c *fiber.Ctx) error {
	return s.closeReport(c, s.reportService.Dismiss)
}

func (s *Server) closeReport(
	c *fiber.Ctx,
	close func(ctx context.Context, actorID, reportID uint, note string) (*models.Report, error),
) error {
	ctx := c.UserContext()
	actorID := c.Locals("userID").(uint)

	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Note string `json:"note"`
	}
	_ = c.BodyParser(&req)

	report, err := close(ctx, actorID, reportID, req.Note)
	if err != nil {
		return models.RespondWithError(c, httpStatusFor(err), err)
	}
	return c.JSON(report)
}
