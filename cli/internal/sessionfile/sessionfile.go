// ABOUTME: Persists the eonctl login between invocations
// ABOUTME: Stores the API token in a user-only JSON file that expires after 24h

package sessionfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/eondash/eon-dashboard/models"
)

// TTL matches the server-side session lifetime.
const TTL = 24 * time.Hour

var (
	// ErrNoSession is returned when no usable login is stored.
	ErrNoSession = errors.New("not logged in")
	// ErrIncompleteLogin rejects a login response missing a session field.
	ErrIncompleteLogin = errors.New("login response is missing token, userId, username or roleId")
)

// record is the on-disk shape. The token is kept here, unlike the server
// session which never serializes it.
type record struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	RoleID    string    `json:"role_id"`
	APIURL    string    `json:"api_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// File is a session stored at a fixed path.
type File struct {
	path string
	now  func() time.Time
}

// New returns a session file at path.
func New(path string) *File {
	return &File{path: path, now: time.Now}
}

// DefaultPath is eonctl/session.json under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "eonctl", "session.json"), nil
}

// Path returns where the session is stored.
func (f *File) Path() string {
	return f.path
}

// Load returns the stored session for apiURL. A missing, expired or foreign
// session yields ErrNoSession.
func (f *File) Load(apiURL string) (*models.Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	if rec.Token == "" || rec.APIURL != apiURL || !f.now().Before(rec.ExpiresAt) {
		return nil, ErrNoSession
	}

	return &models.Session{
		Token:     rec.Token,
		UserID:    rec.UserID,
		Username:  rec.Username,
		RoleID:    rec.RoleID,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Save stores login for apiURL, replacing any previous session.
func (f *File) Save(apiURL string, login *models.LoginResult) (*models.Session, error) {
	if !login.Complete() {
		return nil, ErrIncompleteLogin
	}
	rec := record{
		Token:     login.Token,
		UserID:    login.UserID,
		Username:  login.Username,
		RoleID:    login.RoleID,
		APIURL:    apiURL,
		ExpiresAt: f.now().Add(TTL),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding session file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("writing session file: %w", err)
	}

	return &models.Session{
		Token:     rec.Token,
		UserID:    rec.UserID,
		Username:  rec.Username,
		RoleID:    rec.RoleID,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
