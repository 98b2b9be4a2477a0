package repository

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository is the relationship ledger.
type FollowRepository interface {
	// Toggle flips the follower -> following edge inside one transaction.
	// Callers reject self edges before calling.
	Toggle(ctx context.Context, followerID, followingID uint) (*models.FollowResult, error)
	Counts(ctx context.Context, userID uint) (*models.FollowCounts, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followingID uint) (*models.FollowResult, error) {
	defer observability.TrackQuery("toggle", "follows")()

	var result models.FollowResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
			// The savepoint keeps the transaction usable for the count when a
			// concurrent toggle of the same pair inserted first.
			err := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Omit(clause.Associations).
					Clauses(clause.OnConflict{DoNothing: true}).
					Create(&edge).Error
			})
			if err != nil && !isUniqueConstraintError(err) {
				return err
			}
			result.Following = true
		}
		return tx.Model(&models.Follow{}).Where("following_id = ?", followingID).Count(&result.FollowersCount).Error
	})
	if err != nil {
		if isForeignKeyError(err) {
			return nil, models.NewNotFoundError("User", followingID)
		}
		return nil, models.NewInternalError(err)
	}
	return &result, nil
}

const followCountsSQL = `SELECT
	(SELECT COUNT(*) FROM follows WHERE following_id = ?) AS followers,
	(SELECT COUNT(*) FROM follows WHERE follower_id = ?) AS following`

func (r *followRepository) Counts(ctx context.Context, userID uint) (*models.FollowCounts, error) {
	var counts models.FollowCounts
	if err := r.db.WithContext(ctx).Raw(followCountsSQL, userID, userID).Scan(&counts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &counts, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return r.listEdges(ctx, "follows.follower_id = users.id", "follows.following_id = ?", userID, limit, offset)
}

func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	return r.listEdges(ctx, "follows.following_id = users.id", "follows.follower_id = ?", userID, limit, offset)
}

func (r *followRepository) listEdges(ctx context.Context, join, where string, userID uint, limit, offset int) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.username, users.full_name, COALESCE(users.profile_image, '') AS profile_image").
		Joins("JOIN follows ON "+join).
		Where(where, userID).
		Order("follows.created_at DESC, follows.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
