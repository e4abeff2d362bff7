package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/logger"
	"github.com/brizzai/volunteer-auth/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Local is an offline identity emulator. Accounts live in the document
// store's credentials collection keyed by lower-cased email.
type Local struct {
	docs     store.DocumentStore
	sessions SessionStore
}

func NewLocal(docs store.DocumentStore, sessions SessionStore) *Local {
	return &Local{docs: docs, sessions: sessions}
}

func credentialKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser adds an email/password account and returns its user
func (l *Local) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	key := credentialKey(email)
	if key == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	_, exists, err := l.docs.Get(ctx, constants.CredentialsCollection, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UID:      uuid.NewString(),
		Email:    key,
		Name:     name,
		Provider: providers.Password.String(),
	}
	doc := models.Profile{
		"uid":           user.UID,
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": string(hash),
	}
	if err := l.docs.Set(ctx, constants.CredentialsCollection, key, doc); err != nil {
		return nil, err
	}
	return user, nil
}

func (l *Local) SignInWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	doc, found, err := l.docs.Get(ctx, constants.CredentialsCollection, credentialKey(email))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidCredentials
	}

	hash, _ := doc["password_hash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	name, _ := doc["name"].(string)
	user := &models.User{
		UID:      doc.UID(),
		Email:    credentialKey(email),
		Name:     name,
		Provider: providers.Password.String(),
	}
	if err := l.sessions.Save(user); err != nil {
		logger.Warn("Failed to persist session", zap.String("uid", user.UID), zap.Error(err))
	}
	return user, nil
}

func (l *Local) SignInWithPopup(context.Context, *providers.Handle) (*models.User, error) {
	return nil, ErrPopupUnsupported
}

func (l *Local) SignOut(context.Context) error {
	return l.sessions.Clear()
}
