package models

import (
	"strconv"
	"strings"
	"time"
)

// Cursor identifies one page of a feed.
type Cursor struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FeedItem is a post joined with its author and viewer-relative engagement state.
type FeedItem struct {
	ID               uint        `json:"id"`
	Content          string      `json:"content"`
	ImageURL         string      `json:"image_url,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	Author           UserSummary `json:"author"`
	LikeCount        int64       `json:"like_count"`
	LikedByViewer    bool        `json:"liked_by_viewer"`
	FollowedByViewer bool        `json:"followed_by_viewer"`
}

// FeedPage is one page of the composed feed.
// HasMore is true while Offset plus the number of returned items is below Total.
type FeedPage struct {
	Items   []FeedItem `json:"posts"`
	HasMore bool       `json:"hasMore"`
	Total   int64      `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}

// NewFeedPage assembles a page and derives HasMore.
func NewFeedPage(items []FeedItem, total int64, cursor Cursor) *FeedPage {
	if items == nil {
		items = []FeedItem{}
	}
	return &FeedPage{
		Items:   items,
		HasMore: int64(cursor.Offset+len(items)) < total,
		Total:   total,
		Limit:   cursor.Limit,
		Offset:  cursor.Offset,
	}
}

// Profile is a user's public record with derived counts.
type Profile struct {
	UserSummary
	Bio              string    `json:"bio,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	PostsCount       int64     `json:"posts_count"`
	FollowersCount   int64     `json:"followers_count"`
	FollowingCount   int64     `json:"following_count"`
	FollowedByViewer bool      `json:"followed_by_viewer"`
}

// ProfileKeyKind tags which field a ProfileKey refers to.
type ProfileKeyKind int

const (
	ProfileKeyByID ProfileKeyKind = iota
	ProfileKeyByUsername
)

// ProfileKey selects a user either by numeric id or by username.
type ProfileKey struct {
	Kind     ProfileKeyKind
	ID       uint
	Username string
}

// ByID returns a key addressing a user by id.
func ByID(id uint) ProfileKey {
	return ProfileKey{Kind: ProfileKeyByID, ID: id}
}

// ByUsername returns a key addressing a user by username.
func ByUsername(username string) ProfileKey {
	return ProfileKey{Kind: ProfileKeyByUsername, Username: username}
}

// ParseProfileKey turns a raw path segment into a ProfileKey.
// Positive integers address ids; anything else is a username.
func ParseProfileKey(raw string) (ProfileKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ProfileKey{}, NewValidationError("User identifier is required")
	}
	if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
		if id == 0 {
			return ProfileKey{}, NewValidationError("Invalid user ID")
		}
		return ByID(uint(id)), nil
	}
	return ByUsername(raw), nil
}

func (k ProfileKey) String() string {
	if k.Kind == ProfileKeyByUsername {
		return k.Username
	}
	return strconv.FormatUint(uint64(k.ID), 10)
}
