package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/emmanuelfore/tarisa-sub001/internal/api/dto"
	"github.com/emmanuelfore/tarisa-sub001/internal/service"
	apperrors "github.com/emmanuelfore/tarisa-sub001/pkg/util/errorutil"
)

// JurisdictionsHandler exposes the resolver.
type JurisdictionsHandler struct {
	intake *service.IntakeService
}

// NewJurisdictionsHandler constructs handler.
func NewJurisdictionsHandler(intake *service.IntakeService) *JurisdictionsHandler {
	return &JurisdictionsHandler{intake: intake}
}

// Resolve GET /v1/jurisdictions/resolve?lat=&lng=&region=.
func (h *JurisdictionsHandler) Resolve(c *fiber.Ctx) error {
	lat, err := parseCoordinate(c.Query("lat"), "lat")
	if err != nil {
		return err
	}
	lng, err := parseCoordinate(c.Query("lng"), "lng")
	if err != nil {
		return err
	}
	region := c.Query("region")
	if lat == nil && lng == nil && region == "" {
		return apperrors.NewValidationError("lat and lng or region required", nil)
	}
	res, err := h.intake.Resolve(lat, lng, region)
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewResolveResponse(res)})
}

func parseCoordinate(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return &v, nil
}
