package service

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
)

const DefaultFeedLimit = 5

// FeedService composes feeds and profiles from the content store and both ledgers.
type FeedService struct {
	feedRepo     repository.FeedRepository
	userRepo     repository.UserRepository
	defaultLimit int
}

// NewFeedService builds a FeedService. defaultLimit <= 0 means DefaultFeedLimit.
func NewFeedService(feedRepo repository.FeedRepository, userRepo repository.UserRepository, defaultLimit int) *FeedService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultFeedLimit
	}
	if defaultLimit > maxListLimit {
		defaultLimit = maxListLimit
	}
	return &FeedService{feedRepo: feedRepo, userRepo: userRepo, defaultLimit: defaultLimit}
}

// NormalizeCursor applies the default and maximum page size.
func (s *FeedService) NormalizeCursor(c models.Cursor) models.Cursor {
	c.Limit, c.Offset = clampPage(c.Limit, c.Offset, s.defaultLimit)
	return c
}

// ComposeFeed returns one page of all posts, newest first, annotated for viewerID.
// Pages are not snapshot-isolated: posts created between reads shift later pages.
func (s *FeedService) ComposeFeed(ctx context.Context, viewerID uint, cursor models.Cursor) (*models.FeedPage, error) {
	ctx, span := observability.StartSpan(ctx, "FeedService", "ComposeFeed")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	cursor = s.NormalizeCursor(cursor)

	var total int64
	if total, err = s.feedRepo.Total(ctx); err != nil {
		return nil, err
	}
	var items []models.FeedItem
	if items, err = s.feedRepo.Page(ctx, viewerID, cursor); err != nil {
		return nil, err
	}
	observability.FeedRequests.WithLabelValues("global").Inc()
	return models.NewFeedPage(items, total, cursor), nil
}

// ComposeUserFeed returns every post of subjectID, newest first.
func (s *FeedService) ComposeUserFeed(ctx context.Context, viewerID, subjectID uint) ([]models.FeedItem, error) {
	if subjectID == 0 {
		return nil, models.NewValidationError("Invalid user ID")
	}
	ok, err := s.userRepo.Exists(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User", subjectID)
	}
	items, err := s.feedRepo.ByAuthor(ctx, viewerID, subjectID)
	if err != nil {
		return nil, err
	}
	observability.FeedRequests.WithLabelValues("author").Inc()
	return items, nil
}

// ComposeUserFeedByKey resolves key to a user and returns their posts.
func (s *FeedService) ComposeUserFeedByKey(ctx context.Context, viewerID uint, key models.ProfileKey) ([]models.FeedItem, error) {
	if key.Kind == models.ProfileKeyByID {
		return s.ComposeUserFeed(ctx, viewerID, key.ID)
	}
	user, err := s.userRepo.GetByUsername(ctx, key.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", key.String())
	}
	return s.ComposeUserFeed(ctx, viewerID, user.ID)
}

// GetProfile returns the user addressed by key with derived counts.
func (s *FeedService) GetProfile(ctx context.Context, viewerID uint, key models.ProfileKey) (*models.Profile, error) {
	if key.Kind == models.ProfileKeyByID && key.ID == 0 {
		return nil, models.NewValidationError("Invalid user ID")
	}
	if key.Kind == models.ProfileKeyByUsername && key.Username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	profile, err := s.feedRepo.Profile(ctx, viewerID, key)
	if err != nil {
		return nil, err
	}
	observability.FeedRequests.WithLabelValues("profile").Inc()
	return profile, nil
}
