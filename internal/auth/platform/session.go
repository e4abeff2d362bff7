package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/config"
	"gopkg.in/yaml.v3"
)

// SessionStore persists the signed-in user between runs.
// Load returns (nil, nil) when nobody is signed in.
type SessionStore interface {
	Load() (*models.User, error)
	Save(user *models.User) error
	Clear() error
}

// FileSessionStore keeps the session as a YAML file readable only by the
// current user
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

func NewFileSessionStore(cfg *config.Config) *FileSessionStore {
	return &FileSessionStore{path: cfg.Session.Path}
}

func (s *FileSessionStore) Load() (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", s.path, err)
	}

	var user models.User
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	if user.UID == "" {
		return nil, nil
	}
	return &user, nil
}

func (s *FileSessionStore) Save(user *models.User) error {
	if user == nil || user.UID == "" {
		return fmt.Errorf("session: missing user id")
	}

	data, err := yaml.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: create %s: %w", dir, err)
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the session file; clearing an empty session is not an error
func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}
