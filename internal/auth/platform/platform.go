// Package platform is the identity platform client: password and popup
// sign-in, sign-out, and the persisted session that goes with them.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/brizzai/volunteer-auth/internal/store"
	"go.uber.org/fx"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPopupUnsupported   = errors.New("popup sign-in is not supported by this identity platform")
	ErrEmailExists        = errors.New("an account with this email already exists")
)

// Platform signs users in and out. SignInWithPopup returns a nil user and a
// nil error when the user closes or declines the popup.
type Platform interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.User, error)
	SignInWithPopup(ctx context.Context, handle *providers.Handle) (*models.User, error)
	SignOut(ctx context.Context) error
}

// NewPlatform returns the identity platform client selected by
// cfg.Identity.Mode
func NewPlatform(cfg *config.Config, docs store.DocumentStore, sessions SessionStore, popup *Popup) (Platform, error) {
	switch cfg.Identity.Mode {
	case config.IdentityModeRemote, "":
		return NewIdentityToolkit(cfg.Identity, popup, sessions), nil
	case config.IdentityModeLocal:
		return NewLocal(docs, sessions), nil
	default:
		return nil, fmt.Errorf("unsupported identity mode: %s", cfg.Identity.Mode)
	}
}

// Module provides the identity platform, its popup flow and session store
var Module = fx.Module("platform",
	fx.Provide(
		NewPlatform,
		NewPopup,
		fx.Annotate(
			NewFileSessionStore,
			fx.As(new(SessionStore)),
		),
	),
)
