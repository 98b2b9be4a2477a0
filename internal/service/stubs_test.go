package service

import (
	"context"
	"errors"
	"testing"

	"socialhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	existsFn        func(context.Context, uint) (bool, error)
	createFn        func(context.Context, *models.User) error
	createCalls     int
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	s.createCalls++
	return s.createFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:        func(_ context.Context, _ uint) (bool, error) { return true, nil },
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn func(context.Context, *models.Post) error
	existsFn func(context.Context, uint) (bool, error)
	authorFn func(context.Context, uint) (uint, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) AuthorID(ctx context.Context, id uint) (uint, error) {
	if s.authorFn == nil {
		return 0, nil
	}
	return s.authorFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		existsFn: func(_ context.Context, _ uint) (bool, error) { return true, nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	toggleFn    func(context.Context, uint, uint) (*models.LikeResult, error)
	countFn     func(context.Context, uint) (int64, error)
	toggleCalls int
}

func (s *likeRepoStub) Toggle(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	s.toggleCalls++
	return s.toggleFn(ctx, userID, postID)
}
func (s *likeRepoStub) Count(ctx context.Context, postID uint) (int64, error) {
	return s.countFn(ctx, postID)
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	toggleFn    func(context.Context, uint, uint) (*models.FollowResult, error)
	countsFn    func(context.Context, uint) (*models.FollowCounts, error)
	listFn      func(context.Context, uint, int, int) ([]models.UserSummary, error)
	toggleCalls int
}

func (s *followRepoStub) Toggle(ctx context.Context, followerID, followingID uint) (*models.FollowResult, error) {
	s.toggleCalls++
	return s.toggleFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Counts(ctx context.Context, userID uint) (*models.FollowCounts, error) {
	return s.countsFn(ctx, userID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return s.listFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return s.listFn(ctx, userID, limit, offset)
}

// feedRepoStub is a stub for repository.FeedRepository.
type feedRepoStub struct {
	pageFn     func(context.Context, uint, models.Cursor) ([]models.FeedItem, error)
	totalFn    func(context.Context) (int64, error)
	byAuthorFn func(context.Context, uint, uint) ([]models.FeedItem, error)
	profileFn  func(context.Context, uint, models.ProfileKey) (*models.Profile, error)
}

func (s *feedRepoStub) Page(ctx context.Context, viewerID uint, cursor models.Cursor) ([]models.FeedItem, error) {
	return s.pageFn(ctx, viewerID, cursor)
}
func (s *feedRepoStub) Total(ctx context.Context) (int64, error) {
	return s.totalFn(ctx)
}
func (s *feedRepoStub) ByAuthor(ctx context.Context, viewerID, authorID uint) ([]models.FeedItem, error) {
	return s.byAuthorFn(ctx, viewerID, authorID)
}
func (s *feedRepoStub) Profile(ctx context.Context, viewerID uint, key models.ProfileKey) (*models.Profile, error) {
	return s.profileFn(ctx, viewerID, key)
}

// assertAppErrorCode asserts that err is an AppError with the given code.
func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}
