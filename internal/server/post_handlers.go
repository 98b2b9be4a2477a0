package server

import (
	"context"
	"log/slog"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Content  string `json:"content" form:"content"`
	ImageURL string `json:"image_url" form:"image_url"`
}

// GetFeed handles GET /api/posts
// @Summary Feed
// @Description Page through all posts, newest first, with viewer-relative like and follow state
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (default 5, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} models.FeedPage
// @Router /posts [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, s.feedService.NormalizeCursor(models.Cursor{}).Limit)
	feed, err := s.feedService.ComposeFeed(c.UserContext(), currentUserID(c), models.Cursor{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(feed)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Create a post from JSON or multipart form data with an optional image file
// @Tags posts
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param request body object{content=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	uid := currentUserID(c)

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.ImageURL != "" && !service.IsLocalURL(req.ImageURL) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image_url must reference an uploaded image"))
	}

	upload, err := s.readUpload(c, "image")
	if err != nil {
		return mapServiceError(c, err)
	}
	stored := ""
	if upload != nil {
		if stored, err = s.mediaService.Store(ctx, *upload); err != nil {
			return mapServiceError(c, err)
		}
		req.ImageURL = stored
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID: uid,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		if stored != "" {
			s.mediaService.Discard(ctx, stored)
		}
		return mapServiceError(c, err)
	}

	s.events.ToAll(ctx, notifications.EventPostCreated, notifications.PostCreatedPayload{
		PostID: post.ID,
		Author: actorFrom(c),
	})

	return c.Status(fiber.StatusCreated).JSON(post)
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike
// @Description Flip the caller's like on a post and return the new state and count
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	uid := currentUserID(c)

	res, err := s.postService.ToggleLike(ctx, uid, postID)
	if err != nil {
		return mapServiceError(c, err)
	}

	s.notifyLike(ctx, actorFrom(c), postID, res)
	return c.JSON(res)
}

func (s *Server) notifyLike(ctx context.Context, actor notifications.Actor, postID uint, res *models.LikeResult) {
	authorID, err := s.postService.AuthorOf(ctx, postID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "like notification skipped",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
		return
	}
	if authorID == actor.ID {
		return
	}
	s.events.ToUser(ctx, authorID, notifications.EventPostLiked, notifications.PostLikedPayload{
		PostID:    postID,
		Actor:     actor,
		Liked:     res.Liked,
		LikeCount: res.LikeCount,
	})
}

// GetLikeCount handles GET /api/posts/:id/likes
// @Summary Like count
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post_id=int,like_count=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/likes [get]
func (s *Server) GetLikeCount(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	n, err := s.postService.LikeCount(c.UserContext(), postID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"post_id":    postID,
		"like_count": n,
	})
}

// actorFrom describes the authenticated caller for realtime payloads.
func actorFrom(c *fiber.Ctx) notifications.Actor {
	actor := notifications.Actor{ID: currentUserID(c)}
	if claim, ok := c.Locals("claim").(*models.Claim); ok {
		actor.Username = claim.Username
	}
	return actor
}
