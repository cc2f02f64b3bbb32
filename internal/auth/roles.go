package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RequireOperation rejects callers whose role the policy never admits to op,
// before the request body is read. Ownership narrowing is left to the service.
func RequireOperation(policy *PolicyEngine, op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := policy.Authorize(IdentityFromContext(c), op)
		if err := decision.Err(); err != nil {
			return err
		}
		return c.Next()
	}
}
