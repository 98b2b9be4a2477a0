// Package middleware provides authentication, logging, metrics, rate limiting
// and tracing middleware for the Fiber app.
package middleware

import (
	"context"
	"strings"

	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator verifies a bearer token and returns its claim.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*models.Claim, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's id in c.Locals("userID") and the claim in c.Locals("claim").
// WebSocket upgrades may pass the token as the `token` query parameter since
// browsers cannot set headers on them.
func AuthRequired(v TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			token = c.Query("token")
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claim, err := v.Validate(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", claim.UserID)
		c.Locals("claim", claim)
		ctx := context.WithValue(c.UserContext(), UserIDKey, claim.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
