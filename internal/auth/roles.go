package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/emmanuelfore/tarisa-sub001/pkg/util/errorutil"
)

// Role is an operator role carried in the token.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
	RoleOfficer    Role = "officer"
)

// Capability is a workflow permission checked before a privileged operation.
type Capability string

const (
	CapabilityRoute     Capability = "route"
	CapabilityEscalate  Capability = "escalate"
	CapabilityReference Capability = "reference"
)

var roleCapabilities = map[Role][]Capability{
	RoleSuperAdmin: {CapabilityRoute, CapabilityEscalate, CapabilityReference},
	RoleManager:    {CapabilityRoute, CapabilityEscalate},
	RoleOfficer:    {CapabilityRoute},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants capability.
func (r Role) Can(capability Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == capability {
			return true
		}
	}
	return false
}

// RequireCapability ensures the authenticated principal's role grants capability.
func RequireCapability(capability Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Role.Can(capability) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
