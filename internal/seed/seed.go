package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"socialhub/internal/middleware"
	"socialhub/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	NumUsers int
	NumPosts int
	// MaxLikesPerPost and MaxFollowsPerUser bound the random fan-out.
	MaxLikesPerPost   int
	MaxFollowsPerUser int
	// MaxDays spreads post timestamps over this many days back from now.
	MaxDays    int
	BatchSize  int
	SkipBcrypt bool
	RandomSeed int64
}

// DefaultOptions is a small but connected demo graph.
func DefaultOptions() Options {
	return Options{
		NumUsers:          50,
		NumPosts:          200,
		MaxLikesPerPost:   15,
		MaxFollowsPerUser: 10,
		MaxDays:           90,
		BatchSize:         100,
	}
}

// Result counts what a run inserted.
type Result struct {
	Users   int `json:"users"`
	Posts   int `json:"posts"`
	Likes   int `json:"likes"`
	Follows int `json:"follows"`
}

// Seeder populates users, posts, likes and follows.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	if opts.NumUsers < 0 || opts.NumPosts < 0 {
		return nil, errors.New("seed counts must not be negative")
	}
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: f}, nil
}

// ClearAll removes every row the seeder can create.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE likes, follows, posts, users RESTART IDENTITY CASCADE`).Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"likes", "follows", "posts", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run inserts a fresh graph on top of whatever the database already holds.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	middleware.Logger.InfoContext(ctx, "seeding started",
		slog.Int("users", s.opts.NumUsers),
		slog.Int("posts", s.opts.NumPosts),
	)

	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	res := &Result{Users: len(users)}
	if len(users) == 0 {
		return res, nil
	}

	posts, err := s.SeedPosts(ctx, users, s.opts.NumPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	res.Posts = len(posts)

	if res.Likes, err = s.SeedLikes(ctx, users, posts); err != nil {
		return nil, fmt.Errorf("failed to create likes: %w", err)
	}
	if res.Follows, err = s.SeedFollows(ctx, users); err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "seeding completed",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("likes", res.Likes),
		slog.Int("follows", res.Follows),
	)
	return res, nil
}

// SeedUsers creates n users in batches.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, s.factory.BuildUser())
	}
	if err := s.factory.CreateUsersBatch(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// SeedPosts creates n posts with random authors drawn from users.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.factory.faker.Number(0, len(users)-1)]
		posts = append(posts, s.factory.BuildPost(author))
	}
	if err := s.factory.CreatePostsBatch(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SeedLikes gives every post up to MaxLikesPerPost likes from distinct users.
func (s *Seeder) SeedLikes(ctx context.Context, users []*models.User, posts []*models.Post) (int, error) {
	var likes []*models.Like
	for _, p := range posts {
		k := s.factory.faker.Number(0, max(s.opts.MaxLikesPerPost, 0))
		for _, idx := range s.factory.pickDistinct(len(users), k, -1) {
			likes = append(likes, &models.Like{UserID: users[idx].ID, PostID: p.ID, CreatedAt: p.CreatedAt})
		}
	}
	if err := s.factory.CreateLikes(ctx, likes); err != nil {
		return 0, err
	}
	return len(likes), nil
}

// SeedFollows makes every user follow up to MaxFollowsPerUser others.
func (s *Seeder) SeedFollows(ctx context.Context, users []*models.User) (int, error) {
	var follows []*models.Follow
	for i, u := range users {
		k := s.factory.faker.Number(0, max(s.opts.MaxFollowsPerUser, 0))
		for _, idx := range s.factory.pickDistinct(len(users), k, i) {
			follows = append(follows, &models.Follow{FollowerID: u.ID, FollowingID: users[idx].ID})
		}
	}
	if err := s.factory.CreateFollows(ctx, follows); err != nil {
		return 0, err
	}
	return len(follows), nil
}
