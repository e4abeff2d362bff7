// Package workflow drives sign-in, sign-out, profile lookup and registration
// against the identity platform and document store, reporting every step to
// a notification sink.
//
// Each call runs its chain on the caller's goroutine: the "started"
// notification goes out before any collaborator is called and the terminal
// one last. Concurrent calls are independent and their notifications may
// interleave. Sign-in and registration always end with a terminal
// notification; sign-out and profile lookup failures are only logged.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/auth/platform"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/logger"
	"github.com/brizzai/volunteer-auth/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingUID         = errors.New("user record has no uid")
)

// HandleSource resolves a provider selector to its shared handle
type HandleSource interface {
	Lookup(p providers.Provider) (*providers.Handle, error)
}

type Controller struct {
	platform platform.Platform
	docs     store.DocumentStore
	handles  HandleSource
}

type ControllerParams struct {
	fx.In

	Platform  platform.Platform
	Documents store.DocumentStore
	Handles   *providers.Registry
}

func NewController(params ControllerParams) *Controller {
	return New(params.Platform, params.Documents, params.Handles)
}

func New(p platform.Platform, docs store.DocumentStore, handles HandleSource) *Controller {
	return &Controller{
		platform: p,
		docs:     docs,
		handles:  handles,
	}
}

func emit(sink models.Sink, kind models.Kind, payload interface{}) {
	sink(models.Notification{Kind: kind, Payload: payload})
}

// SignIn authenticates with the given method. On success it reports
// SIGNED_IN and goes on to CheckRegistered for the returned user.
func (c *Controller) SignIn(ctx context.Context, method providers.Method, sink models.Sink) {
	emit(sink, constants.SignInInit, nil)

	user, err := c.signIn(ctx, method)
	if err != nil {
		logger.Error("Sign-in failed", zap.Stringer("method", method), zap.Error(err))
		emit(sink, constants.SignInFailed, nil)
		return
	}
	if user == nil {
		logger.Info("Sign-in returned no user", zap.Stringer("method", method))
		emit(sink, constants.SignInFailed, nil)
		return
	}

	emit(sink, constants.SignedIn, user)
	c.CheckRegistered(ctx, user.UID, sink)
}

func (c *Controller) signIn(ctx context.Context, method providers.Method) (user *models.User, err error) {
	defer func() {
		if r := recover(); r != nil {
			user, err = nil, fmt.Errorf("identity platform panicked: %v", r)
		}
	}()

	if method.Provider == providers.Password {
		if method.Email == "" || method.Password == "" {
			return nil, ErrMissingCredentials
		}
		user, err = c.platform.SignInWithPassword(ctx, method.Email, method.Password)
		if err != nil {
			return nil, err
		}
		// only popup flows may legitimately end without a user
		if user == nil {
			return nil, fmt.Errorf("identity platform returned no user for password sign-in")
		}
		return user, nil
	}

	if !method.Provider.Federated() {
		return nil, fmt.Errorf("%w: %s", providers.ErrUnknownProvider, method.Provider)
	}
	handle, err := c.handles.Lookup(method.Provider)
	if err != nil {
		return nil, err
	}
	return c.platform.SignInWithPopup(ctx, handle)
}

// SignOut reports SIGNED_OUT on success. Failures are logged and nothing
// is reported.
func (c *Controller) SignOut(ctx context.Context, sink models.Sink) {
	if err := c.platform.SignOut(ctx); err != nil {
		logger.Error("Sign-out failed", zap.Error(err))
		return
	}
	emit(sink, constants.SignedOut, nil)
}

// CheckRegistered looks up the user's profile. It reports
// GET_USER_ACCOUNT_SUCCESSFUL with the profile, or SIGNIN_NEW_USER when there
// is none. Lookup failures are logged and nothing is reported.
func (c *Controller) CheckRegistered(ctx context.Context, uid string, sink models.Sink) {
	profile, found, err := c.docs.Get(ctx, constants.UsersCollection, uid)
	if err != nil {
		logger.Error("Profile lookup failed", zap.String("uid", uid), zap.Error(err))
		return
	}
	if !found {
		emit(sink, constants.SignInNewUser, nil)
		return
	}
	emit(sink, constants.GetUserAccountOK, profile)
}

// Register stores the profile under its uid
func (c *Controller) Register(ctx context.Context, profile models.Profile, sink models.Sink) {
	emit(sink, constants.RegisterInit, nil)

	uid := profile.UID()
	if uid == "" {
		logger.Error("Registration failed", zap.Error(ErrMissingUID))
		emit(sink, constants.RegisterFailed, nil)
		return
	}

	if err := c.docs.Set(ctx, constants.UsersCollection, uid, profile); err != nil {
		logger.Error("Registration failed", zap.String("uid", uid), zap.Error(err))
		emit(sink, constants.RegisterFailed, nil)
		return
	}
	emit(sink, constants.RegisterSuccessful, profile)
}

// Module provides the workflow controller
var Module = fx.Module("workflow",
	fx.Provide(
		NewController,
	),
)
