package handlers

import (
	"errors"
	"net/http"

	"github.com/emmanuelfore/tarisa-sub001/internal/duplicate"
	"github.com/emmanuelfore/tarisa-sub001/internal/escalation"
	"github.com/emmanuelfore/tarisa-sub001/internal/refdata"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
	"github.com/emmanuelfore/tarisa-sub001/internal/service"
	apperrors "github.com/emmanuelfore/tarisa-sub001/pkg/util/errorutil"
)

// translate maps core sentinel errors onto the API error envelope. Anything
// unrecognized is left for the error middleware to report as internal.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("issue", nil)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict("issue was modified concurrently; retry", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		return apperrors.NewDomainError("INVALID_TRANSITION", err.Error(), http.StatusConflict, nil)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownJurisdiction),
		errors.Is(err, service.ErrSelfDuplicate):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, escalation.ErrTerminal), errors.Is(err, escalation.ErrMaxLevel):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, escalation.ErrSweepInProgress):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, refdata.ErrUnavailable):
		return apperrors.NewUnavailable("reference data unavailable", err)
	case errors.Is(err, duplicate.ErrNoLocation):
		return apperrors.NewDomainError("NO_LOCATION", "issue has no usable location", http.StatusUnprocessableEntity, nil)
	}
	return err
}
