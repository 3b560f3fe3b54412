// Package session models the client-held authenticated session.
package session

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidSession rejects a stored session missing its user.
	ErrInvalidSession = errors.New("session: invalid session")
)

// User is the authenticated dashboard user.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the persisted login. ExpiresAt is epoch milliseconds.
type Session struct {
	User      User  `json:"user"`
	ExpiresAt int64 `json:"expiresAt"`
}

// New builds a session for user expiring ttl after now.
func New(user User, now time.Time, ttl time.Duration) Session {
	return Session{User: user, ExpiresAt: now.Add(ttl).UnixMilli()}
}

// ValidAt reports whether the session is still live at now. Expiry is
// strict: a session whose expiry equals now is expired.
func (s Session) ValidAt(now time.Time) bool {
	return s.ExpiresAt > now.UnixMilli()
}

// Expiry returns ExpiresAt as a time.
func (s Session) Expiry() time.Time {
	return time.UnixMilli(s.ExpiresAt).UTC()
}

// Validate checks the stored shape.
func (s Session) Validate() error {
	if strings.TrimSpace(s.User.ID) == "" || strings.TrimSpace(s.User.Email) == "" {
		return ErrInvalidSession
	}
	if s.ExpiresAt <= 0 {
		return ErrInvalidSession
	}
	return nil
}

// Account is a user with a bcrypt password hash.
type Account struct {
	User         User
	PasswordHash []byte
}

// NormalizeEmail lowercases and trims an email for lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
