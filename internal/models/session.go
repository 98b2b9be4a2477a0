package models

import "time"

// Claim is the verified payload of a bearer token.
type Claim struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is an issued token together with its claim.
type Session struct {
	Token string `json:"token"`
	Claim Claim  `json:"-"`
	User  *User  `json:"user"`
}
