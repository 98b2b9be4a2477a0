package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is authored content with an optional image reference.
// Content and ImageURL are never both empty.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text" json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Like marks a post as liked by a user. Row existence is the liked state.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// Follow is a directed edge FollowerID -> FollowingID.
// Row existence is the following state; self edges are rejected.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index;check:chk_follows_not_self,follower_id <> following_id" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// FollowResult is the outcome of a follow toggle.
type FollowResult struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
}

// FollowCounts holds both directions of a user's follow edges.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// BeforeCreate stores CreatedAt in UTC. SQLite keeps timestamps as text,
// so mixed offsets would not sort chronologically.
func (p *Post) BeforeCreate(*gorm.DB) error {
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

func (l *Like) BeforeCreate(*gorm.DB) error {
	l.CreatedAt = l.CreatedAt.UTC()
	return nil
}

func (f *Follow) BeforeCreate(*gorm.DB) error {
	f.CreatedAt = f.CreatedAt.UTC()
	return nil
}
