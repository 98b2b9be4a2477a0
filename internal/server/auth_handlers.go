package server

import (
	"io"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	FullName string `json:"fullName" form:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// readUpload returns the file sent under field, or nil when the request is
// not multipart or carries no such file.
func (s *Server) readUpload(c *fiber.Ctx, field string) (*service.UploadInput, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if fh.Size > s.mediaService.MaxUploadBytes() {
		return nil, models.NewValidationError("File too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, s.mediaService.MaxUploadBytes()+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.UploadInput{
		UserID:      currentUserID(c),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account. Accepts JSON or multipart form data with an optional profileImage file.
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Param request body object{username=string,email=string,password=string,fullName=string} true "Registration"
// @Success 201 {object} models.Session
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	}
	if err := in.Validate(); err != nil {
		return mapServiceError(c, err)
	}

	upload, err := s.readUpload(c, "profileImage")
	if err != nil {
		return mapServiceError(c, err)
	}
	if upload != nil {
		if in.ProfileImage, err = s.mediaService.Store(ctx, *upload); err != nil {
			return mapServiceError(c, err)
		}
	}

	session, err := s.authService.Register(ctx, in)
	if err != nil {
		if in.ProfileImage != "" {
			s.mediaService.Discard(ctx, in.ProfileImage)
		}
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with email and password and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} models.Session
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	session, err := s.authService.Issue(c.UserContext(), service.Credential{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(session)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the bearer token used for this request
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claim, ok := c.Locals("claim").(*models.Claim)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	if err := s.authService.Revoke(c.UserContext(), claim); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMe handles GET /api/auth/me and GET /api/users/profile
// @Summary Current user
// @Description Profile of the authenticated user with post and follow counts
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	uid := currentUserID(c)
	profile, err := s.feedService.GetProfile(c.UserContext(), uid, models.ByID(uid))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(profile)
}
