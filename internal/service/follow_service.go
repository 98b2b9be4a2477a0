package service

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
)

const maxListLimit = 100

// FollowService owns the relationship ledger.
type FollowService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewFollowService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *FollowService {
	return &FollowService{userRepo: userRepo, followRepo: followRepo}
}

func (s *FollowService) requireUser(ctx context.Context, userID uint) error {
	if userID == 0 {
		return models.NewValidationError("Invalid user ID")
	}
	ok, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

// ToggleFollow flips the followerID -> targetID edge. Self follows are
// rejected before any storage access; a missing target is NotFound.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, targetID uint) (*models.FollowResult, error) {
	if followerID == targetID {
		return nil, models.NewSelfFollowError()
	}

	ctx, span := observability.StartSpan(ctx, "FollowService", "ToggleFollow")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}
	var res *models.FollowResult
	res, err = s.followRepo.Toggle(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	observability.RecordToggle("follow", res.Following)
	return res, nil
}

// Counts returns how many users follow userID and how many it follows.
func (s *FollowService) Counts(ctx context.Context, userID uint) (*models.FollowCounts, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.Counts(ctx, userID)
}

// Followers lists users following userID, newest edge first.
func (s *FollowService) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset, 20)
	return s.followRepo.Followers(ctx, userID, limit, offset)
}

// Following lists users userID follows, newest edge first.
func (s *FollowService) Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset, 20)
	return s.followRepo.Following(ctx, userID, limit, offset)
}

func clampPage(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
