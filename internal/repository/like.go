package repository

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository is the engagement ledger.
type LikeRepository interface {
	// Toggle flips the (user, post) like inside one transaction and returns
	// the new state with the post's like count.
	Toggle(ctx context.Context, userID, postID uint) (*models.LikeResult, error)
	Count(ctx context.Context, postID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Toggle(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	defer observability.TrackQuery("toggle", "likes")()

	var result models.LikeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.Like{UserID: userID, PostID: postID}
			// The savepoint keeps the transaction usable for the count when a
			// concurrent toggle of the same pair inserted first.
			err := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Omit(clause.Associations).
					Clauses(clause.OnConflict{DoNothing: true}).
					Create(&like).Error
			})
			if err != nil && !isUniqueConstraintError(err) {
				return err
			}
			result.Liked = true
		}
		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&result.LikeCount).Error
	})
	if err != nil {
		if isForeignKeyError(err) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	return &result, nil
}

func (r *likeRepository) Count(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
