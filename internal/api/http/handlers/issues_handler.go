package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/emmanuelfore/tarisa-sub001/internal/api/dto"
	"github.com/emmanuelfore/tarisa-sub001/internal/auth"
	"github.com/emmanuelfore/tarisa-sub001/internal/service"
	apperrors "github.com/emmanuelfore/tarisa-sub001/pkg/util/errorutil"
)

// IssuesHandler manages issue endpoints.
type IssuesHandler struct {
	intake *service.IntakeService
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(intake *service.IntakeService, issues *service.IssueService) *IssuesHandler {
	return &IssuesHandler{intake: intake, issues: issues}
}

// Submit POST /v1/issues.
func (h *IssuesHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ReporterID) == "" || strings.TrimSpace(req.Category) == "" {
		return apperrors.NewValidationError("reporter_id and category required", nil)
	}

	res, err := h.intake.Submit(c.UserContext(), service.SubmitInput{
		ReporterID:     req.ReporterID,
		Category:       req.Category,
		Description:    req.Description,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DeclaredRegion: req.DeclaredRegion,
	})
	if err != nil {
		return translate(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SubmitIssueResponse{
		Issue:      dto.NewIssueResponse(res.Issue),
		Resolution: dto.NewResolveResponse(res.Resolution),
		Candidates: res.Candidates,
	}})
}

// Get GET /v1/issues/:id. Accepts the issue id or its tracking id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	issue, err := h.issues.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// History GET /v1/issues/:id/history.
func (h *IssuesHandler) History(c *fiber.Ctx) error {
	entries, err := h.issues.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponse(entries)})
}

// Nearby GET /v1/issues/:id/nearby.
func (h *IssuesHandler) Nearby(c *fiber.Ctx) error {
	return h.search(c, false)
}

// Similar GET /v1/issues/:id/similar.
func (h *IssuesHandler) Similar(c *fiber.Ctx) error {
	return h.search(c, true)
}

func (h *IssuesHandler) search(c *fiber.Ctx, sameCategory bool) error {
	radius, err := parseRadius(c.Query("radius"))
	if err != nil {
		return err
	}
	candidates, err := h.issues.Nearby(c.UserContext(), c.Params("id"), radius, sameCategory)
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": candidates})
}

// UpdateStatus POST /v1/issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	issue, err := h.issues.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, strings.TrimSpace(req.Comment), principal.SubjectID)
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// ConfirmDuplicate POST /v1/issues/:id/duplicate.
func (h *IssuesHandler) ConfirmDuplicate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ConfirmDuplicateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.DuplicateOfID) == "" {
		return apperrors.NewValidationError("duplicate_of_id required", nil)
	}
	issue, err := h.issues.ConfirmDuplicate(c.UserContext(), c.Params("id"), req.DuplicateOfID, principal.SubjectID)
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

// Reroute POST /v1/issues/:id/route.
func (h *IssuesHandler) Reroute(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RerouteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	issue, changed, err := h.intake.Reroute(c.UserContext(), c.Params("id"), req.JurisdictionID, principal.SubjectID)
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue), "changed": changed})
}

// Escalate POST /v1/issues/:id/escalate.
func (h *IssuesHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issue, err := h.issues.Escalate(c.UserContext(), c.Params("id"), principal.SubjectID)
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue)})
}

func parseRadius(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil || radius <= 0 {
		return 0, apperrors.NewValidationError("radius must be a positive number of meters", map[string]any{"radius": raw})
	}
	return radius, nil
}
