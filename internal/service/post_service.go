package service

import (
	"context"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
	"socialhub/internal/validation"
)

// PostService owns the content store and the engagement ledger.
type PostService struct {
	postRepo repository.PostRepository
	likeRepo repository.LikeRepository
}

// CreatePostInput is the payload for a new post. ImageURL comes from MediaService.
type CreatePostInput struct {
	AuthorID uint
	Content  string
	ImageURL string
}

func NewPostService(postRepo repository.PostRepository, likeRepo repository.LikeRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		likeRepo: likeRepo,
	}
}

// CreatePost stores a post. It fails with EmptyPost when neither content
// nor an image is supplied.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	imageURL := strings.TrimSpace(in.ImageURL)

	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	if content == "" && imageURL == "" {
		return nil, models.NewEmptyPostError()
	}
	if err := validation.ValidatePostContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		UserID:   in.AuthorID,
		Content:  content,
		ImageURL: imageURL,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) requirePost(ctx context.Context, postID uint) error {
	if postID == 0 {
		return models.NewValidationError("Invalid post ID")
	}
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// ToggleLike flips viewerID's like on postID.
func (s *PostService) ToggleLike(ctx context.Context, viewerID, postID uint) (*models.LikeResult, error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "ToggleLike")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	var res *models.LikeResult
	res, err = s.likeRepo.Toggle(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	observability.RecordToggle("like", res.Liked)
	return res, nil
}

// LikeCount returns the live like count of postID.
func (s *PostService) LikeCount(ctx context.Context, postID uint) (int64, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return 0, err
	}
	return s.likeRepo.Count(ctx, postID)
}

// AuthorOf returns the author of postID or NotFound.
func (s *PostService) AuthorOf(ctx context.Context, postID uint) (uint, error) {
	if postID == 0 {
		return 0, models.NewValidationError("Invalid post ID")
	}
	authorID, err := s.postRepo.AuthorID(ctx, postID)
	if err != nil {
		return 0, err
	}
	if authorID == 0 {
		return 0, models.NewNotFoundError("Post", postID)
	}
	return authorID, nil
}
