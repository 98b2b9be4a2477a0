package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"socialhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost(t *testing.T) {
	tests := []struct {
		name     string
		in       CreatePostInput
		wantCode string
		want     *models.Post
	}{
		{
			name: "content only",
			in:   CreatePostInput{AuthorID: 1, Content: "  hello  "},
			want: &models.Post{ID: 1, UserID: 1, Content: "hello"},
		},
		{
			name: "image only",
			in:   CreatePostInput{AuthorID: 1, ImageURL: "/uploads/a.jpg"},
			want: &models.Post{ID: 1, UserID: 1, ImageURL: "/uploads/a.jpg"},
		},
		{
			name:     "both absent",
			in:       CreatePostInput{AuthorID: 1},
			wantCode: models.CodeEmptyPost,
		},
		{
			name:     "whitespace only",
			in:       CreatePostInput{AuthorID: 1, Content: " \n\t "},
			wantCode: models.CodeEmptyPost,
		},
		{
			name:     "too long",
			in:       CreatePostInput{AuthorID: 1, Content: strings.Repeat("x", 5001)},
			wantCode: models.CodeValidation,
		},
		{
			name:     "no author",
			in:       CreatePostInput{Content: "hi"},
			wantCode: models.CodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			repo := noopPostRepo()
			repo.createFn = func(_ context.Context, p *models.Post) error {
				created = true
				p.ID = 1
				return nil
			}
			svc := NewPostService(repo, &likeRepoStub{})

			post, err := svc.CreatePost(context.Background(), tt.in)
			if tt.wantCode != "" {
				assertAppErrorCode(t, err, tt.wantCode)
				assert.False(t, created, "nothing may be stored on failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, post)
		})
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	t.Run("missing post is NotFound and never toggles", func(t *testing.T) {
		repo := noopPostRepo()
		repo.existsFn = func(_ context.Context, _ uint) (bool, error) { return false, nil }
		likes := &likeRepoStub{}
		svc := NewPostService(repo, likes)

		_, err := svc.ToggleLike(context.Background(), 2, 99)
		assertAppErrorCode(t, err, models.CodeNotFound)
		assert.Zero(t, likes.toggleCalls)
	})

	t.Run("zero post id", func(t *testing.T) {
		svc := NewPostService(noopPostRepo(), &likeRepoStub{})
		_, err := svc.ToggleLike(context.Background(), 2, 0)
		assertValidationError(t, err)
	})

	t.Run("delegates to ledger", func(t *testing.T) {
		likes := &likeRepoStub{toggleFn: func(_ context.Context, userID, postID uint) (*models.LikeResult, error) {
			assert.Equal(t, uint(2), userID)
			assert.Equal(t, uint(7), postID)
			return &models.LikeResult{Liked: true, LikeCount: 3}, nil
		}}
		svc := NewPostService(noopPostRepo(), likes)

		res, err := svc.ToggleLike(context.Background(), 2, 7)
		require.NoError(t, err)
		assert.Equal(t, &models.LikeResult{Liked: true, LikeCount: 3}, res)
	})

	t.Run("storage failure passes through", func(t *testing.T) {
		repo := noopPostRepo()
		repo.existsFn = func(_ context.Context, _ uint) (bool, error) {
			return false, models.NewInternalError(errors.New("db down"))
		}
		svc := NewPostService(repo, &likeRepoStub{})
		_, err := svc.ToggleLike(context.Background(), 2, 7)
		assertAppErrorCode(t, err, models.CodeInternal)
	})
}

func TestPostService_LikeCount(t *testing.T) {
	likes := &likeRepoStub{countFn: func(_ context.Context, _ uint) (int64, error) { return 4, nil }}
	svc := NewPostService(noopPostRepo(), likes)

	n, err := svc.LikeCount(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	repo := noopPostRepo()
	repo.existsFn = func(_ context.Context, _ uint) (bool, error) { return false, nil }
	_, err = NewPostService(repo, likes).LikeCount(context.Background(), 3)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestPostService_AuthorOf(t *testing.T) {
	repo := noopPostRepo()
	repo.authorFn = func(_ context.Context, id uint) (uint, error) {
		if id == 5 {
			return 9, nil
		}
		return 0, nil
	}
	svc := NewPostService(repo, &likeRepoStub{})

	author, err := svc.AuthorOf(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint(9), author)

	_, err = svc.AuthorOf(context.Background(), 6)
	assertAppErrorCode(t, err, models.CodeNotFound)

	_, err = svc.AuthorOf(context.Background(), 0)
	assertValidationError(t, err)
}
