// Package store is the document store client: one JSON-like document per
// (collection, key), with get and set. Profiles live in the users collection.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/brizzai/volunteer-auth/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrUnsupportedDriver is returned by New for an unknown store driver
var ErrUnsupportedDriver = errors.New("unsupported store driver")

// DocumentStore reads and writes documents by collection and key.
// Get reports a missing document as (nil, false, nil).
type DocumentStore interface {
	Get(ctx context.Context, collection, key string) (models.Profile, bool, error)
	Set(ctx context.Context, collection, key string, doc models.Profile) error
	Close() error
}

// New opens the document store selected by cfg.Store.Driver
func New(cfg *config.Config) (DocumentStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory, "":
		return NewMemoryStore(), nil
	case config.StoreDriverRedis:
		return NewRedisStore(cfg.Store, cfg.Identity.ProjectID)
	case config.StoreDriverSQLite:
		return OpenSQLite(cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Store.Driver)
	}
}

func newWithLifecycle(lc fx.Lifecycle, cfg *config.Config) (DocumentStore, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := s.Close(); err != nil {
				logger.Error("Failed to close document store", zap.Error(err))
				return err
			}
			return nil
		},
	})
	return s, nil
}

// Module provides the configured DocumentStore and closes it on shutdown
var Module = fx.Module("store",
	fx.Provide(
		newWithLifecycle,
	),
)
