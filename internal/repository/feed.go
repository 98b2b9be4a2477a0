package repository

import (
	"context"
	"time"

	"socialhub/internal/models"
	"socialhub/internal/observability"

	"gorm.io/gorm"
)

// FeedRepository reads posts joined with authors and viewer-relative
// engagement state. Each read is a single SELECT.
type FeedRepository interface {
	Page(ctx context.Context, viewerID uint, cursor models.Cursor) ([]models.FeedItem, error)
	Total(ctx context.Context) (int64, error)
	ByAuthor(ctx context.Context, viewerID, authorID uint) ([]models.FeedItem, error)
	// Profile returns a NotFound AppError when no user matches key.
	Profile(ctx context.Context, viewerID uint, key models.ProfileKey) (*models.Profile, error)
}

type feedRepository struct {
	db *gorm.DB
}

// NewFeedRepository returns a new FeedRepository implementation.
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

// feedColumns takes the viewer id twice: liked_by_viewer, followed_by_viewer.
const feedColumns = `p.id, COALESCE(p.content, '') AS content, COALESCE(p.image_url, '') AS image_url, p.created_at,
	u.id AS author_id, u.username AS author_username, u.full_name AS author_full_name,
	COALESCE(u.profile_image, '') AS author_profile_image,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?) AS liked_by_viewer,
	EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.following_id = p.user_id) AS followed_by_viewer`

const feedOrder = "p.created_at DESC, p.id DESC"

type feedRow struct {
	ID                 uint
	Content            string
	ImageURL           string
	CreatedAt          time.Time
	AuthorID           uint
	AuthorUsername     string
	AuthorFullName     string
	AuthorProfileImage string
	LikeCount          int64
	LikedByViewer      bool
	FollowedByViewer   bool
}

func (row feedRow) item() models.FeedItem {
	return models.FeedItem{
		ID:        row.ID,
		Content:   row.Content,
		ImageURL:  row.ImageURL,
		CreatedAt: row.CreatedAt,
		Author: models.UserSummary{
			ID:           row.AuthorID,
			Username:     row.AuthorUsername,
			FullName:     row.AuthorFullName,
			ProfileImage: row.AuthorProfileImage,
		},
		LikeCount:        row.LikeCount,
		LikedByViewer:    row.LikedByViewer,
		FollowedByViewer: row.FollowedByViewer,
	}
}

func (r *feedRepository) feedQuery(ctx context.Context, viewerID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts AS p").
		Select(feedColumns, viewerID, viewerID).
		Joins("JOIN users u ON u.id = p.user_id").
		Order(feedOrder)
}

func scanFeed(q *gorm.DB) ([]models.FeedItem, error) {
	var rows []feedRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	items := make([]models.FeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item())
	}
	return items, nil
}

func (r *feedRepository) Page(ctx context.Context, viewerID uint, cursor models.Cursor) ([]models.FeedItem, error) {
	defer observability.TrackQuery("select", "feed")()
	return scanFeed(r.feedQuery(ctx, viewerID).Limit(cursor.Limit).Offset(cursor.Offset))
}

func (r *feedRepository) Total(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *feedRepository) ByAuthor(ctx context.Context, viewerID, authorID uint) ([]models.FeedItem, error) {
	defer observability.TrackQuery("select", "feed_author")()
	return scanFeed(r.feedQuery(ctx, viewerID).Where("p.user_id = ?", authorID))
}

// profileColumns takes the viewer id once for followed_by_viewer.
const profileColumns = `u.id, u.username, u.full_name, COALESCE(u.profile_image, '') AS profile_image,
	COALESCE(u.bio, '') AS bio, u.created_at,
	(SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id) AS posts_count,
	(SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id) AS followers_count,
	(SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id) AS following_count,
	EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.following_id = u.id) AS followed_by_viewer`

type profileRow struct {
	ID               uint
	Username         string
	FullName         string
	ProfileImage     string
	Bio              string
	CreatedAt        time.Time
	PostsCount       int64
	FollowersCount   int64
	FollowingCount   int64
	FollowedByViewer bool
}

func (r *feedRepository) Profile(ctx context.Context, viewerID uint, key models.ProfileKey) (*models.Profile, error) {
	defer observability.TrackQuery("select", "profile")()

	q := r.db.WithContext(ctx).Table("users AS u").Select(profileColumns, viewerID)
	switch key.Kind {
	case models.ProfileKeyByUsername:
		q = q.Where("u.username = ?", key.Username)
	default:
		q = q.Where("u.id = ?", key.ID)
	}

	var rows []profileRow
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("User", key.String())
	}

	row := rows[0]
	return &models.Profile{
		UserSummary: models.UserSummary{
			ID:           row.ID,
			Username:     row.Username,
			FullName:     row.FullName,
			ProfileImage: row.ProfileImage,
		},
		Bio:              row.Bio,
		CreatedAt:        row.CreatedAt,
		PostsCount:       row.PostsCount,
		FollowersCount:   row.FollowersCount,
		FollowingCount:   row.FollowingCount,
		FollowedByViewer: row.FollowedByViewer,
	}, nil
}
