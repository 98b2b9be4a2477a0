// Package service implements the domain operations behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
	"socialhub/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer     = "socialhub-api"
	TokenAudience   = "socialhub-client"
	DefaultTokenTTL = 24 * time.Hour
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	FullName     string
	ProfileImage string
}

// Credential is an email and password pair presented at login.
type Credential struct {
	Email    string
	Password string
}

// AuthService issues and validates session tokens.
type AuthService struct {
	users      repository.UserRepository
	redis      *redis.Client
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time

	// revocationPolicy decides Validate's outcome when the blacklist is unreadable.
	revocationPolicy middleware.FailPolicy
}

// NewAuthService builds an AuthService. rdb may be nil, which disables revocation.
func NewAuthService(users repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	ttl := DefaultTokenTTL
	if cfg.TokenTTLHours > 0 {
		ttl = time.Duration(cfg.TokenTTLHours) * time.Hour
	}
	svc := &AuthService{
		users:      users,
		redis:      rdb,
		secret:     []byte(cfg.JWTSecret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	if cfg.RevocationFailClosed {
		svc.revocationPolicy = middleware.FailClosed
	}
	return svc
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy burns one bcrypt comparison so a login for an unknown email
// costs the same as one with a wrong password.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("socialhub-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
}

// Validate checks every field without touching storage.
func (in RegisterInput) Validate() error {
	in.normalize()
	if in.Username == "" || in.Email == "" || in.Password == "" || in.FullName == "" {
		return models.NewValidationError("Username, email, password and full name are required")
	}
	for _, check := range []func() error{
		func() error { return validation.ValidateUsername(in.Username) },
		func() error { return validation.ValidateEmail(in.Email) },
		func() error { return validation.ValidatePassword(in.Password) },
		func() error { return validation.ValidateFullName(in.FullName) },
	} {
		if err := check(); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// Register validates in, stores the new user and returns a session for it.
// Nothing is written unless every field passes validation.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Session, error) {
	ctx, span := observability.StartSpan(ctx, "AuthService", "Register")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = in.Validate(); err != nil {
		return nil, err
	}
	in.normalize()

	hash, herr := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if herr != nil {
		err = models.NewInternalError(herr)
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		Password:     string(hash),
		FullName:     in.FullName,
		ProfileImage: in.ProfileImage,
	}
	if err = s.users.Create(ctx, user); err != nil {
		observability.SessionEvents.WithLabelValues("register", "rejected").Inc()
		return nil, err
	}
	observability.SessionEvents.WithLabelValues("register", "success").Inc()

	var session *models.Session
	session, err = s.newSession(user)
	return session, err
}

// Issue checks cred and returns a signed session. Unknown emails and wrong
// passwords fail identically with InvalidCredentials.
func (s *AuthService) Issue(ctx context.Context, cred Credential) (*models.Session, error) {
	ctx, span := observability.StartSpan(ctx, "AuthService", "Issue")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	email := normalizeEmail(cred.Email)
	if email == "" || cred.Password == "" {
		err = models.NewValidationError("Email and password are required")
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		compareDummy(cred.Password)
		observability.SessionEvents.WithLabelValues("issue", "invalid_credentials").Inc()
		err = models.NewInvalidCredentialsError()
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(cred.Password)) != nil {
		observability.SessionEvents.WithLabelValues("issue", "invalid_credentials").Inc()
		err = models.NewInvalidCredentialsError()
		return nil, err
	}

	observability.SessionEvents.WithLabelValues("issue", "success").Inc()
	var session *models.Session
	session, err = s.newSession(user)
	return session, err
}

func (s *AuthService) newSession(user *models.User) (*models.Session, error) {
	now := s.now()
	claim := models.Claim{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"email":    user.Email,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      claim.ExpiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      claim.TokenID,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	safe := *user
	safe.Password = ""
	return &models.Session{Token: signed, Claim: claim, User: &safe}, nil
}

var errUnauthenticated = errors.New("unauthenticated")

// Validate verifies tokenString and returns its claim. Every failure is
// reported as the same Unauthorized error.
func (s *AuthService) Validate(ctx context.Context, tokenString string) (*models.Claim, error) {
	claim, err := s.parse(tokenString)
	if err != nil {
		observability.SessionEvents.WithLabelValues("validate", "rejected").Inc()
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	if s.redis != nil && claim.TokenID != "" {
		revoked, rerr := s.redis.Exists(ctx, cache.BlacklistKey(claim.TokenID)).Result()
		switch {
		case rerr != nil:
			closed := s.revocationPolicy == middleware.FailClosed
			middleware.Logger.WarnContext(ctx, "revocation check failed",
				slog.String("error", rerr.Error()),
				slog.Bool("fail_closed", closed),
			)
			observability.SessionEvents.WithLabelValues("validate", "revocation_unavailable").Inc()
			if closed {
				return nil, models.NewUnauthorizedError("Invalid or expired token")
			}
		case revoked > 0:
			observability.SessionEvents.WithLabelValues("validate", "revoked").Inc()
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claim, nil
}

func (s *AuthService) parse(tokenString string) (*models.Claim, error) {
	token, err := jwt.Parse(tokenString,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, errUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errUnauthenticated
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errUnauthenticated
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errUnauthenticated
	}

	claim := &models.Claim{UserID: uint(userID)}
	claim.Username, _ = claims["username"].(string)
	claim.Email, _ = claims["email"].(string)
	claim.TokenID, _ = claims["jti"].(string)
	if iat, _ := claims.GetIssuedAt(); iat != nil {
		claim.IssuedAt = iat.Time
	}
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		claim.ExpiresAt = exp.Time
	}
	return claim, nil
}

// Revoke blacklists the claim's token id until it would have expired anyway.
func (s *AuthService) Revoke(ctx context.Context, claim *models.Claim) error {
	if s.redis == nil || claim == nil || claim.TokenID == "" {
		return nil
	}
	ttl := claim.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, cache.BlacklistKey(claim.TokenID), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	observability.SessionEvents.WithLabelValues("revoke", "success").Inc()
	return nil
}
