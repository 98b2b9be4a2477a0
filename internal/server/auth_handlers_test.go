package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialhub/internal/config"
	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newAuthTestApp(t *testing.T, repo *MockUserRepository) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "test-secret-key-for-handlers-0123456789",
		UploadDir:        t.TempDir(),
		MediaMaxUploadMB: 1,
	}
	s := &Server{
		config:       cfg,
		authService:  service.NewAuthService(repo, nil, cfg),
		mediaService: service.NewMediaService(cfg),
	}
	app := fiber.New()
	app.Post("/register", s.Register)
	app.Post("/login", s.Login)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	valid := map[string]string{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "secret1",
		"fullName": "Alice A",
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "alice" && u.Email == "alice@example.com" && u.Password != "secret1"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 1
		}).Return(nil)

		resp := postJSON(t, newAuthTestApp(t, repo), "/register", valid)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var body struct {
			Token string       `json:"token"`
			User  *models.User `json:"user"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Token)
		require.NotNil(t, body.User)
		assert.Equal(t, uint(1), body.User.ID)
		assert.Equal(t, "Alice A", body.User.FullName)
		repo.AssertExpectations(t)
	})

	t.Run("Duplicate", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("Create", mock.Anything, mock.Anything).
			Return(models.NewConflictError("User already exists"))

		resp := postJSON(t, newAuthTestApp(t, repo), "/register", valid)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, models.CodeConflict, decodeError(t, resp).Code)
	})

	t.Run("Missing password", func(t *testing.T) {
		repo := new(MockUserRepository)
		resp := postJSON(t, newAuthTestApp(t, repo), "/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"fullName": "Alice",
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, models.CodeValidation, decodeError(t, resp).Code)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	for _, username := range []string{"12345", "profile", "POSTS"} {
		t.Run("Bad username "+username, func(t *testing.T) {
			repo := new(MockUserRepository)
			resp := postJSON(t, newAuthTestApp(t, repo), "/register", map[string]string{
				"username": username,
				"email":    "alice@example.com",
				"password": "secret1",
				"fullName": "Alice",
			})
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("Unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

		resp := postJSON(t, newAuthTestApp(t, repo), "/login", map[string]string{
			"email":    "ghost@example.com",
			"password": "whatever1",
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.CodeInvalidCredentials, decodeError(t, resp).Code)
		repo.AssertExpectations(t)
	})

	t.Run("Missing fields", func(t *testing.T) {
		repo := new(MockUserRepository)
		resp := postJSON(t, newAuthTestApp(t, repo), "/login", map[string]string{"email": "a@b.co"})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})
}
