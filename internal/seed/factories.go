// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded user can log in with.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	hash  string
	seq   int
}

// NewFactory creates a Factory bound to db. A zero opts.RandomSeed picks a
// time-based seed.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f := &Factory{db: db, opts: opts, faker: gofakeit.New(seed)}

	// One hash shared by every user keeps large seeds fast.
	if opts.SkipBcrypt {
		f.hash = DefaultPassword
	} else {
		h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		f.hash = string(h)
	}
	return f, nil
}

// BuildUser returns an unsaved user with a unique username and email.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.seq++
	base := strings.ToLower(f.faker.FirstName())
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if len(base) < 2 {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	username := fmt.Sprintf("%s_%d", base, f.seq)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		Password:     f.hash,
		FullName:     f.faker.Name(),
		Bio:          f.faker.Sentence(10),
		ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists one user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author with a created_at spread over
// the last MaxDays days. Roughly a third of posts carry an image.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	now := time.Now()

	post := &models.Post{
		UserID:    author.ID,
		Content:   f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "),
		CreatedAt: f.faker.DateRange(now.AddDate(0, 0, -maxDays), now),
	}
	if f.faker.Number(1, 3) == 1 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreateUsersBatch persists users in chunks of BatchSize.
func (f *Factory) CreateUsersBatch(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(users, f.batchSize()).Error
}

// CreatePostsBatch persists posts in chunks of BatchSize.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).CreateInBatches(posts, f.batchSize()).Error
}

// CreateLikes persists like rows, skipping pairs that already exist.
func (f *Factory) CreateLikes(ctx context.Context, likes []*models.Like) error {
	if len(likes) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(likes, f.batchSize()).Error
}

// CreateFollows persists follow edges, skipping pairs that already exist.
func (f *Factory) CreateFollows(ctx context.Context, follows []*models.Follow) error {
	if len(follows) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(follows, f.batchSize()).Error
}

// pickDistinct returns up to n distinct indexes in [0, size) other than skip.
// Pass skip < 0 to allow every index.
func (f *Factory) pickDistinct(size, n, skip int) []int {
	pool := make([]int, 0, size)
	for i := 0; i < size; i++ {
		if i != skip {
			pool = append(pool, i)
		}
	}
	f.faker.ShuffleAnySlice(pool)
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

func (f *Factory) batchSize() int {
	if f.opts.BatchSize > 0 {
		return f.opts.BatchSize
	}
	return 100
}
