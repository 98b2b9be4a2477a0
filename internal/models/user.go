// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account in the credential store.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"column:password_hash;not null" json:"-"`
	FullName     string    `gorm:"size:100;not null" json:"full_name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Bio          string    `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the public projection of a user embedded in feed items and lists.
type UserSummary struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
	}
}
