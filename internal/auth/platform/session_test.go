package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) *FileSessionStore {
	t.Helper()
	return NewFileSessionStore(&config.Config{
		Session: config.SessionConfig{Path: filepath.Join(t.TempDir(), "nested", "session.yaml")},
	})
}

func TestFileSessionStore(t *testing.T) {
	s := newTestSessions(t)

	user, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, user, "no session before the first save")

	saved := &models.User{UID: "u1", Email: "a@b.c", Provider: "google.com"}
	require.NoError(t, s.Save(saved))

	info, err := os.Stat(s.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	user, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, user)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear(), "clearing twice is fine")

	user, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestFileSessionStoreRejectsAnonymousUser(t *testing.T) {
	s := newTestSessions(t)
	assert.Error(t, s.Save(nil))
	assert.Error(t, s.Save(&models.User{Email: "a@b.c"}))
}
