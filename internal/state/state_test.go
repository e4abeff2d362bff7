package state

import (
	"sync"
	"testing"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduceAll(notifications ...models.Notification) State {
	var s State
	for _, n := range notifications {
		s = Reduce(s, n)
	}
	return s
}

func TestReduceSignInFlow(t *testing.T) {
	user := &models.User{UID: "u1"}
	profile := models.Profile{"uid": "u1", "name": "A"}

	s := reduceAll(models.Notification{Kind: constants.SignInInit})
	assert.True(t, s.SigningIn)
	assert.False(t, s.SignedIn())

	s = Reduce(s, models.Notification{Kind: constants.SignedIn, Payload: user})
	assert.False(t, s.SigningIn)
	assert.True(t, s.SignedIn())
	assert.Same(t, user, s.User)

	s = Reduce(s, models.Notification{Kind: constants.GetUserAccountOK, Payload: profile})
	assert.Equal(t, profile, s.Account)
	assert.False(t, s.NewUser)

	s = Reduce(s, models.Notification{Kind: constants.SignedOut})
	assert.Equal(t, State{}, s)
}

func TestReduceNewUserRegistration(t *testing.T) {
	profile := models.Profile{"uid": "u1"}

	s := reduceAll(
		models.Notification{Kind: constants.SignInInit},
		models.Notification{Kind: constants.SignedIn, Payload: &models.User{UID: "u1"}},
		models.Notification{Kind: constants.SignInNewUser},
	)
	assert.True(t, s.NewUser)
	assert.Nil(t, s.Account)

	s = Reduce(s, models.Notification{Kind: constants.RegisterInit})
	assert.True(t, s.Registering)

	s = Reduce(s, models.Notification{Kind: constants.RegisterSuccessful, Payload: profile})
	assert.False(t, s.Registering)
	assert.False(t, s.NewUser)
	assert.Equal(t, profile, s.Account)
}

func TestReduceFailures(t *testing.T) {
	s := reduceAll(
		models.Notification{Kind: constants.SignInInit},
		models.Notification{Kind: constants.SignInFailed},
	)
	assert.False(t, s.SigningIn)
	assert.True(t, s.SignInFailed)

	// a retry clears the previous failure
	s = Reduce(s, models.Notification{Kind: constants.SignInInit})
	assert.False(t, s.SignInFailed)

	s = reduceAll(
		models.Notification{Kind: constants.RegisterInit},
		models.Notification{Kind: constants.RegisterFailed},
	)
	assert.False(t, s.Registering)
	assert.True(t, s.RegisterFailed)
}

func TestReduceUnknownKind(t *testing.T) {
	before := State{SigningIn: true}
	assert.Equal(t, before, Reduce(before, models.Notification{Kind: "SOMETHING_ELSE"}))
}

func TestStoreDispatchAndSubscribe(t *testing.T) {
	s := NewStore()
	changes := s.Subscribe(4)

	s.Dispatch(models.Notification{Kind: constants.SignInInit})
	s.Dispatch(models.Notification{Kind: constants.SignInFailed})

	first := <-changes
	assert.Equal(t, constants.SignInInit, first.Notification.Kind)
	assert.True(t, first.State.SigningIn)

	second := <-changes
	assert.Equal(t, constants.SignInFailed, second.Notification.Kind)
	assert.True(t, second.State.SignInFailed)

	assert.Equal(t, second.State, s.Snapshot())
}

func TestStoreDropsWhenSubscriberIsFull(t *testing.T) {
	s := NewStore()
	changes := s.Subscribe(1)

	s.Dispatch(models.Notification{Kind: constants.RegisterInit})
	s.Dispatch(models.Notification{Kind: constants.RegisterFailed})

	require.Len(t, changes, 1)
	assert.Equal(t, constants.RegisterInit, (<-changes).Notification.Kind)
	assert.True(t, s.Snapshot().RegisterFailed, "state still advances")
}

func TestStoreConcurrentDispatch(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(models.Notification{Kind: constants.RegisterInit})
			s.Dispatch(models.Notification{Kind: constants.RegisterSuccessful, Payload: models.Profile{"uid": "u"}})
		}()
	}
	wg.Wait()

	assert.Equal(t, models.Profile{"uid": "u"}, s.Snapshot().Account)
}
