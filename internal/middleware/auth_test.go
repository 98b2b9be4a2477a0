package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticValidator accepts exactly one token.
type staticValidator struct {
	token  string
	userID uint
}

func (v staticValidator) Validate(_ context.Context, token string) (*models.Claim, error) {
	if token != v.token {
		return nil, errors.New("bad token")
	}
	return &models.Claim{UserID: v.userID, Username: "alice"}, nil
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	v := staticValidator{token: "good-token", userID: 123}

	handler := func(c *fiber.Ctx) error {
		ctxUser, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.JSON(fiber.Map{"userID": c.Locals("userID"), "ctxUserID": ctxUser})
	}
	app.Get("/test", AuthRequired(v), handler)
	app.Get("/api/ws", AuthRequired(v), handler)

	tests := []struct {
		name           string
		path           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "/test", "Bearer good-token", http.StatusOK},
		{"Lowercase scheme", "/test", "bearer good-token", http.StatusOK},
		{"Missing Header", "/test", "", http.StatusUnauthorized},
		{"Invalid Format", "/test", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Rejected Token", "/test", "Bearer forged", http.StatusUnauthorized},
		{"Query token ignored off websocket path", "/test?token=good-token", "", http.StatusUnauthorized},
		{"Query token on websocket path", "/api/ws?token=good-token", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(123), body["userID"])
				assert.Equal(t, float64(123), body["ctxUserID"])
			} else {
				assert.Equal(t, models.CodeUnauthorized, body["code"])
			}
		})
	}
}
