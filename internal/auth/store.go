package auth

import (
	"fmt"

	"github.com/pitchside/pitchside-core/internal/infrastructure/config"
)

// Store holds the operator accounts declared in configuration. It is
// immutable after construction; account changes need a config reload.
type Store struct {
	users map[string]User
}

// NewStore builds a store from the security.users config section.
func NewStore(users []config.UserConfig) (*Store, error) {
	s := &Store{users: make(map[string]User, len(users))}

	for _, u := range users {
		if !IsValidUsername(u.Username) {
			return nil, fmt.Errorf("invalid username %q", u.Username)
		}
		role := Role(u.Role)
		if role == "" {
			role = RoleViewer
		}
		if !IsValidRole(role) {
			return nil, fmt.Errorf("invalid role %q for user %q", u.Role, u.Username)
		}
		if _, exists := s.users[u.Username]; exists {
			return nil, fmt.Errorf("duplicate user %q", u.Username)
		}
		s.users[u.Username] = User{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Role:         role,
		}
	}
	return s, nil
}

// Authenticate verifies a username/password pair. An unknown user and a
// wrong password both return ErrInvalidCredentials so responses do not
// reveal which accounts exist.
func (s *Store) Authenticate(username, password string) (*User, error) {
	user, exists := s.users[username]
	if !exists {
		// Burn a hash verification so unknown users take the same time
		// as wrong passwords.
		_, _ = VerifyPassword(password, dummyHash) //nolint:errcheck
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for %q: %w", username, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Lookup returns the user for a username.
func (s *Store) Lookup(username string) (*User, error) {
	user, exists := s.users[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// Count returns the number of configured accounts.
func (s *Store) Count() int {
	return len(s.users)
}

// dummyHash is a valid Argon2id hash of a random string, used to equalise
// timing for unknown usernames.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$i9PCLg3zd968JgOlDAAlkG2fAuYXVBrMGoYJTcEU4ZM"
