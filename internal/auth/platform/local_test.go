package platform

import (
	"context"
	"testing"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPlatform(t *testing.T) {
	ctx := context.Background()
	docs := store.NewMemoryStore()
	sessions := newTestSessions(t)
	local := NewLocal(docs, sessions)

	created, err := local.CreateUser(ctx, " Ada@Example.com ", "correct-horse", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.Equal(t, "ada@example.com", created.Email)

	doc, found, err := docs.Get(ctx, constants.CredentialsCollection, "ada@example.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEqual(t, "correct-horse", doc["password_hash"], "passwords are stored hashed")

	_, err = local.CreateUser(ctx, "ada@example.com", "another-one", "Ada")
	assert.ErrorIs(t, err, ErrEmailExists)

	t.Run("password sign-in", func(t *testing.T) {
		user, err := local.SignInWithPassword(ctx, "ADA@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, created.UID, user.UID)
		assert.Equal(t, "Ada", user.Name)

		session, err := sessions.Load()
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, created.UID, session.UID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := local.SignInWithPassword(ctx, "ada@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := local.SignInWithPassword(ctx, "nobody@example.com", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("popup unsupported", func(t *testing.T) {
		user, err := local.SignInWithPopup(ctx, providers.NewHandle(providers.Google, "google.com", nil))
		assert.ErrorIs(t, err, ErrPopupUnsupported)
		assert.Nil(t, user)
	})

	t.Run("sign out clears the session", func(t *testing.T) {
		require.NoError(t, local.SignOut(ctx))
		session, err := sessions.Load()
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}

func TestLocalCreateUserValidation(t *testing.T) {
	local := NewLocal(store.NewMemoryStore(), newTestSessions(t))

	_, err := local.CreateUser(context.Background(), "", "long-enough", "")
	assert.Error(t, err)

	_, err = local.CreateUser(context.Background(), "a@b.c", "short", "")
	assert.Error(t, err)
}
