// Package state holds the application state that auth notifications feed.
package state

import (
	"sync"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"go.uber.org/fx"
)

// State is what the UI renders from
type State struct {
	User           *models.User
	Account        models.Profile
	SigningIn      bool
	SignInFailed   bool
	NewUser        bool
	Registering    bool
	RegisterFailed bool
}

// SignedIn reports whether a user is currently signed in
func (s State) SignedIn() bool {
	return s.User != nil
}

// Reduce returns the state after applying n. Unknown kinds leave the state
// unchanged.
func Reduce(s State, n models.Notification) State {
	switch n.Kind {
	case constants.SignInInit:
		s.SigningIn = true
		s.SignInFailed = false
	case constants.SignInFailed:
		s.SigningIn = false
		s.SignInFailed = true
	case constants.SignedIn:
		user, _ := n.Payload.(*models.User)
		s.User = user
		s.SigningIn = false
		s.SignInFailed = false
	case constants.SignedOut:
		return State{}
	case constants.SignInNewUser:
		s.NewUser = true
		s.Account = nil
	case constants.GetUserAccountOK:
		s.Account, _ = n.Payload.(models.Profile)
		s.NewUser = false
	case constants.RegisterInit:
		s.Registering = true
		s.RegisterFailed = false
	case constants.RegisterSuccessful:
		s.Account, _ = n.Payload.(models.Profile)
		s.Registering = false
		s.NewUser = false
	case constants.RegisterFailed:
		s.Registering = false
		s.RegisterFailed = true
	}
	return s
}

// Store serializes notifications from concurrent workflow calls into one
// state and fans every transition out to subscribers.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers []chan Change
}

// Change is a single applied notification and the state it produced
type Change struct {
	Notification models.Notification
	State        State
}

func NewStore() *Store {
	return &Store{}
}

// Dispatch applies n. It has the models.Sink signature.
func (s *Store) Dispatch(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, n)
	change := Change{Notification: n, State: s.state}
	for _, ch := range s.subscribers {
		// subscribers own their buffer, a full one drops the change
		select {
		case ch <- change:
		default:
		}
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel receiving every subsequent change
func (s *Store) Subscribe(buffer int) <-chan Change {
	ch := make(chan Change, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Module provides the shared state store
var Module = fx.Module("state",
	fx.Provide(
		NewStore,
	),
)
