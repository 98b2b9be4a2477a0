package server

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

const defaultFollowListLimit = 20

// GetUserProfile handles GET /api/users/:key
// @Summary User profile
// @Description Look up a user by numeric id or username
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param key path string true "User ID or username"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{key} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	key, err := models.ParseProfileKey(c.Params("key"))
	if err != nil {
		return mapServiceError(c, err)
	}
	profile, err := s.feedService.GetProfile(c.UserContext(), currentUserID(c), key)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(profile)
}

// GetUserPosts handles GET /api/users/:key/posts
// @Summary Posts by user
// @Description Every post of one author, newest first
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param key path string true "User ID or username"
// @Success 200 {array} models.FeedItem
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{key}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	key, err := models.ParseProfileKey(c.Params("key"))
	if err != nil {
		return mapServiceError(c, err)
	}
	items, err := s.feedService.ComposeUserFeedByKey(c.UserContext(), currentUserID(c), key)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(items)
}

// GetMyPosts handles GET /api/users/posts
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	uid := currentUserID(c)
	items, err := s.feedService.ComposeUserFeed(c.UserContext(), uid, uid)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(items)
}

// ToggleFollow handles POST /api/users/:id/follow
// @Summary Follow or unfollow
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	res, err := s.followService.ToggleFollow(ctx, currentUserID(c), targetID)
	if err != nil {
		return mapServiceError(c, err)
	}

	s.events.ToUser(ctx, targetID, notifications.EventUserFollowed, notifications.UserFollowedPayload{
		Actor:     actorFrom(c),
		Following: res.Following,
	})
	return c.JSON(res)
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary Followers
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} userList
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	return s.listEdges(c, s.followService.Followers)
}

// GetFollowing handles GET /api/users/:id/following
// @Summary Following
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} userList
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	return s.listEdges(c, s.followService.Following)
}

type userList struct {
	Users  []models.UserSummary `json:"users"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type edgeLister func(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error)

func (s *Server) listEdges(c *fiber.Ctx, list edgeLister) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultFollowListLimit)
	users, err := list(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return c.JSON(userList{Users: users, Limit: page.Limit, Offset: page.Offset})
}
