package repository

import (
	"context"

	"socialhub/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Exists(ctx context.Context, id uint) (bool, error)
	// AuthorID returns 0 when the post does not exist.
	AuthorID(ctx context.Context, id uint) (uint, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", post.UserID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *postRepository) AuthorID(ctx context.Context, id uint) (uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Limit(1).Pluck("user_id", &ids).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}
