// Package session persists the signed-in user's tokens and profile.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/recipeserver/cloudcmd/internal/config"
)

// ErrNotLoggedIn is returned when no session has been saved.
var ErrNotLoggedIn = errors.New("not logged in")

// Profile is the user profile returned by the server.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Session holds the tokens issued at login and the cached profile.
type Session struct {
	Access  string   `json:"access"`
	Refresh string   `json:"refresh,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
	SavedAt string   `json:"saved_at,omitempty"`
}

func sessionPath() (string, error) {
	d, err := config.EnsureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "session.json"), nil
}

// Save writes s to disk, readable only by the current user.
func Save(s Session) error {
	p, err := sessionPath()
	if err != nil {
		return err
	}
	if s.SavedAt == "" {
		s.SavedAt = time.Now().UTC().Format(time.RFC3339)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// Load reads the saved session. A missing file returns ErrNotLoggedIn.
func Load() (Session, error) {
	p, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNotLoggedIn
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if s.Access == "" {
		return Session{}, ErrNotLoggedIn
	}
	return s, nil
}

// Clear removes the saved session.
func Clear() error {
	p, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// ExpiresAt returns the access token's exp claim. The signature is not
// checked; the server remains the authority on token validity.
func (s Session) ExpiresAt() (time.Time, bool) {
	if s.Access == "" {
		return time.Time{}, false
	}
	tok, _, err := jwt.NewParser().ParseUnverified(s.Access, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the access token has expired at now. Tokens without
// a readable exp claim are treated as live.
func (s Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(exp)
}
