// Package escalation advances overdue open issues through levels L1 to L4.
package escalation

import (
	"errors"
	"fmt"
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
)

// ErrInvalidPolicy reports multipliers that would break the level ordering.
var ErrInvalidPolicy = errors.New("invalid escalation policy")

// minStep is added to a level deadline that does not exceed the previous one.
const minStep = time.Hour

// Policy derives per-level deadlines from department or rule SLAs.
type Policy struct {
	L3Multiplier               float64
	L4Multiplier               float64
	UnassignedResolutionFactor float64
}

// DefaultPolicy returns the stock multipliers.
func DefaultPolicy() Policy {
	return Policy{L3Multiplier: 2, L4Multiplier: 3, UnassignedResolutionFactor: 2}
}

// Validate enforces 1 < L3Multiplier < L4Multiplier and a positive factor.
func (p Policy) Validate() error {
	if p.L3Multiplier <= 1 {
		return fmt.Errorf("%w: L3 multiplier %.2f must exceed 1", ErrInvalidPolicy, p.L3Multiplier)
	}
	if p.L4Multiplier <= p.L3Multiplier {
		return fmt.Errorf("%w: L4 multiplier %.2f must exceed L3 multiplier %.2f", ErrInvalidPolicy, p.L4Multiplier, p.L3Multiplier)
	}
	if p.UnassignedResolutionFactor <= 0 {
		return fmt.Errorf("%w: unassigned resolution factor must be positive", ErrInvalidPolicy)
	}
	return nil
}

// Schedule holds the offset from creation after which each level is overdue.
type Schedule [domain.MaxEscalationLevel]time.Duration

// DeadlineFor returns the offset for level. Invalid levels get zero.
func (s Schedule) DeadlineFor(level domain.EscalationLevel) time.Duration {
	if !level.Valid() {
		return 0
	}
	return s[level-1]
}

// Build computes the schedule. adjusted reports that a level had to be bumped
// to stay strictly after the previous one, which points at bad SLA data.
func (p Policy) Build(response, resolution time.Duration) (s Schedule, adjusted bool) {
	s[0] = response
	s[1] = resolution
	s[2] = scale(resolution, p.L3Multiplier)
	s[3] = scale(resolution, p.L4Multiplier)
	if s[0] <= 0 {
		s[0] = minStep
		adjusted = true
	}
	for i := 1; i < len(s); i++ {
		if s[i] <= s[i-1] {
			s[i] = s[i-1] + minStep
			adjusted = true
		}
	}
	return s, adjusted
}

// ForDepartment builds the schedule from department SLA hours.
func (p Policy) ForDepartment(d domain.Department) (Schedule, bool) {
	return p.Build(hours(d.ResponseSLAHours), hours(d.ResolutionSLAHours))
}

// ForUnassigned builds the schedule from a rule SLA for issues without a department.
func (p Policy) ForUnassigned(sla time.Duration) (Schedule, bool) {
	return p.Build(sla, scale(sla, p.UnassignedResolutionFactor))
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func scale(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}
