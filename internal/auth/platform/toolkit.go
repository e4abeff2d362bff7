package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/brizzai/volunteer-auth/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Authorizer runs the browser half of a federated sign-in
type Authorizer interface {
	Authorize(ctx context.Context, handle *providers.Handle) (*oauth2.Token, error)
}

// IdentityToolkit talks to the hosted identity platform over its
// Identity Toolkit v1 REST API
type IdentityToolkit struct {
	client   *http.Client
	endpoint string
	apiKey   string
	popup    Authorizer
	sessions SessionStore
}

func NewIdentityToolkit(cfg config.IdentityConfig, popup Authorizer, sessions SessionStore) *IdentityToolkit {
	return &IdentityToolkit{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		popup:    popup,
		sessions: sessions,
	}
}

type signInResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
	ProviderID  string `json:"providerId"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// credentialErrors are the API messages that mean "wrong email or password"
var credentialErrors = map[string]bool{
	"EMAIL_NOT_FOUND":           true,
	"INVALID_PASSWORD":          true,
	"INVALID_LOGIN_CREDENTIALS": true,
	"USER_DISABLED":             true,
	"INVALID_EMAIL":             true,
}

func (t *IdentityToolkit) SignInWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := t.call(ctx, "accounts:signInWithPassword", body, &resp); err != nil {
		return nil, err
	}
	resp.ProviderID = providers.Password.String()
	return t.startSession(resp), nil
}

func (t *IdentityToolkit) SignInWithPopup(ctx context.Context, handle *providers.Handle) (*models.User, error) {
	if t.popup == nil {
		return nil, ErrPopupUnsupported
	}

	token, err := t.popup.Authorize(ctx, handle)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}

	postBody := url.Values{"providerId": {handle.ProviderID()}}
	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		if _, err := handle.VerifyIDToken(ctx, rawIDToken); err != nil {
			return nil, err
		}
		postBody.Set("id_token", rawIDToken)
	} else {
		postBody.Set("access_token", token.AccessToken)
	}

	body := map[string]interface{}{
		"postBody":            postBody.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}

	var resp signInResponse
	if err := t.call(ctx, "accounts:signInWithIdp", body, &resp); err != nil {
		return nil, err
	}
	if resp.LocalID == "" {
		return nil, nil
	}
	if resp.ProviderID == "" {
		resp.ProviderID = handle.ProviderID()
	}
	return t.startSession(resp), nil
}

// SignOut forgets the persisted session
func (t *IdentityToolkit) SignOut(_ context.Context) error {
	return t.sessions.Clear()
}

func (t *IdentityToolkit) startSession(resp signInResponse) *models.User {
	user := &models.User{
		UID:      resp.LocalID,
		Email:    resp.Email,
		Name:     resp.DisplayName,
		Picture:  resp.PhotoURL,
		Provider: resp.ProviderID,
		IDToken:  resp.IDToken,
	}
	if err := t.sessions.Save(user); err != nil {
		logger.Warn("Failed to persist session", zap.String("uid", user.UID), zap.Error(err))
	}
	return user
}

func (t *IdentityToolkit) call(ctx context.Context, method string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", t.endpoint, method, url.QueryEscape(t.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			// messages can carry a detail suffix, e.g. "TOO_MANY_ATTEMPTS_TRY_LATER : ..."
			code := strings.TrimSpace(strings.SplitN(apiErr.Error.Message, ":", 2)[0])
			if credentialErrors[code] {
				return fmt.Errorf("%w: %s", ErrInvalidCredentials, code)
			}
			return fmt.Errorf("%s failed with status %d: %s", method, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("%s failed with status %d", method, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
