package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emmanuelfore/tarisa-sub001/internal/api/dto"
	"github.com/emmanuelfore/tarisa-sub001/internal/escalation"
	"github.com/emmanuelfore/tarisa-sub001/internal/refdata"
)

// SweepRunner runs one recorded sweep.
type SweepRunner interface {
	RunOnce(ctx context.Context) (escalation.SweepReport, error)
}

// ReferenceReloader reloads reference data.
type ReferenceReloader interface {
	Refresh(ctx context.Context) (*refdata.Snapshot, error)
}

// AdminHandler covers operational endpoints.
type AdminHandler struct {
	sweeps    SweepRunner
	reference ReferenceReloader
}

// NewAdminHandler constructs handler.
func NewAdminHandler(sweeps SweepRunner, reference ReferenceReloader) *AdminHandler {
	return &AdminHandler{sweeps: sweeps, reference: reference}
}

// Sweep POST /v1/admin/escalations/sweep.
func (h *AdminHandler) Sweep(c *fiber.Ctx) error {
	report, err := h.sweeps.RunOnce(c.UserContext())
	if err != nil {
		return translate(err)
	}
	return c.JSON(fiber.Map{"data": report})
}

// RefreshReference POST /v1/admin/reference/refresh.
func (h *AdminHandler) RefreshReference(c *fiber.Ctx) error {
	snap, err := h.reference.Refresh(c.UserContext())
	if err != nil {
		return translate(err)
	}
	jurisdictions, departments := snap.Counts()
	return c.JSON(fiber.Map{"data": dto.ReferenceSummary{
		Jurisdictions: jurisdictions,
		Departments:   departments,
		LoadedAt:      snap.LoadedAt.UTC().Format(time.RFC3339),
	}})
}
