package middleware

import (
	"strings"

	"tcpos-reports/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// DevUserID is the identity injected when authentication is skipped.
const DevUserID = "dev-user"

// AuthMiddleware validates JWT tokens and injects user claims into context.
// Websocket upgrades cannot set headers from browsers, so a "token" query
// parameter is accepted as well.
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			c.Locals(utils.UserClaimsKey, &utils.UserClaims{UserID: DevUserID, Name: "Developer"})
			return c.Next()
		}

		token := c.Query("token")
		if authHeader := c.Get("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization header format",
				})
			}
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

// UserID returns the authenticated user, or "" outside AuthMiddleware.
func UserID(c *fiber.Ctx) string {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}
