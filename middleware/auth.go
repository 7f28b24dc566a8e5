// middleware/auth.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// OperatorContextMiddleware attaches the tournament operator identity the
// Gateway forwards, so handlers can log who triggered an action.
func OperatorContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		operatorID := c.Get("X-Operator-ID")
		if operatorID == "" {
			operatorID = "anonymous"
		}
		c.Locals("operator_id", operatorID)

		log.Printf("👤 [OPERATOR_CTX] OperatorID=%s | %s %s", operatorID, c.Method(), c.Path())
		return c.Next()
	}
}

// OperatorID returns the operator attached by OperatorContextMiddleware.
func OperatorID(c *fiber.Ctx) string {
	if id, ok := c.Locals("operator_id").(string); ok {
		return id
	}
	return "anonymous"
}
