// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinPasswordLength and MaxPasswordLength bound accepted passwords (bytes).
	MinPasswordLength = 6
	MaxPasswordLength = 128
	// MaxPostContentLength bounds post text in characters.
	MaxPostContentLength = 5000
	// MaxFullNameLength matches the users.full_name column.
	MaxFullNameLength = 100
)

// reservedUsernames shadow fixed routes under /api/users. Routing is case
// insensitive, so they are compared with EqualFold.
var reservedUsernames = []string{"profile", "posts"}

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidatePassword checks the password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	// all digits would be ambiguous with a user id in /api/users/:key
	if strings.Trim(username, "0123456789") == "" {
		return fmt.Errorf("username cannot be only digits")
	}
	for _, r := range reservedUsernames {
		if strings.EqualFold(username, r) {
			return fmt.Errorf("username %q is reserved", username)
		}
	}
	first, last := username[0], username[len(username)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateFullName checks the display name is present and fits the column.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("full name is required")
	}
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return fmt.Errorf("full name must not exceed %d characters", MaxFullNameLength)
	}
	return nil
}

// ValidatePostContent bounds post text. Empty content is allowed here;
// the caller decides whether an image makes up for it.
func ValidatePostContent(content string) error {
	if utf8.RuneCountInString(content) > MaxPostContentLength {
		return fmt.Errorf("content must not exceed %d characters", MaxPostContentLength)
	}
	return nil
}
