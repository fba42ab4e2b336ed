package auth

import (
	"errors"
	"regexp"
)

// usernamePattern defines the valid format for usernames: alphanumeric,
// dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an authorisation tier.
type Role string

const (
	// RoleViewer can read component status and run history.
	RoleViewer Role = "viewer"

	// RoleAdmin can additionally trigger component re-initialisation.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of roles accepted in configuration.
var ValidRoles = []Role{RoleViewer, RoleAdmin}

// IsValidRole returns true if the role is one of the configured tiers.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an operator account loaded from configuration.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never serialised
	Role         Role   `json:"role"`
}

// Sentinel errors for authentication flows.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient role")
)
