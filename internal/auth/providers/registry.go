package providers

import (
	"context"
	"fmt"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/fx"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer  = "https://accounts.google.com"
	googleKeysURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// twitterEndpoint is the OAuth 2.0 endpoint for Twitter/X, which
// golang.org/x/oauth2 does not ship
var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Handle is the provider-specific object the identity platform signs in
// against. Handles are built once by NewRegistry and never mutated.
type Handle struct {
	provider   Provider
	providerID string
	oauth2     *oauth2.Config
	verifier   *oidc.IDTokenVerifier
}

// NewHandle builds a handle outside the registry, for custom endpoints
func NewHandle(p Provider, providerID string, cfg *oauth2.Config) *Handle {
	return &Handle{provider: p, providerID: providerID, oauth2: cfg}
}

func (h *Handle) Provider() Provider {
	return h.provider
}

// ProviderID is the identity platform's id for the provider, e.g. "google.com"
func (h *Handle) ProviderID() string {
	return h.providerID
}

// OAuth2Config returns a copy of the provider's OAuth2 client configuration,
// or nil for the password provider
func (h *Handle) OAuth2Config() *oauth2.Config {
	if h.oauth2 == nil {
		return nil
	}
	cfg := *h.oauth2 // copy
	cfg.Scopes = append([]string(nil), h.oauth2.Scopes...)
	return &cfg
}

// VerifyIDToken verifies an OpenID Connect ID token. Providers without an
// ID token verifier return the token unverified as nil.
func (h *Handle) VerifyIDToken(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
	if h.verifier == nil {
		return nil, nil
	}
	idToken, err := h.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return idToken, nil
}

// Registry maps every provider selector to its shared handle
type Registry struct {
	handles map[Provider]*Handle
}

// NewRegistry builds the four provider handles from configuration. It does
// no network I/O; Google signing keys are fetched on first verification.
func NewRegistry(cfg *config.Config) *Registry {
	redirectURL := cfg.Callback.RedirectURL()

	googleCfg := oauthConfig(cfg.Providers.Google, google.Endpoint, redirectURL, constants.DefaultScopes)
	keySet := oidc.NewRemoteKeySet(context.Background(), googleKeysURL)

	return &Registry{
		handles: map[Provider]*Handle{
			Password: {provider: Password, providerID: "password"},
			Google: {
				provider:   Google,
				providerID: "google.com",
				oauth2:     googleCfg,
				verifier:   oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{ClientID: googleCfg.ClientID}),
			},
			Facebook: {
				provider:   Facebook,
				providerID: "facebook.com",
				oauth2:     oauthConfig(cfg.Providers.Facebook, facebook.Endpoint, redirectURL, []string{"email", "public_profile"}),
			},
			Twitter: {
				provider:   Twitter,
				providerID: "twitter.com",
				oauth2:     oauthConfig(cfg.Providers.Twitter, twitterEndpoint, redirectURL, []string{"users.read", "tweet.read"}),
			},
		},
	}
}

func oauthConfig(cfg config.OAuthConfig, endpoint oauth2.Endpoint, redirectURL string, defaultScopes []string) *oauth2.Config {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}

// Lookup returns the shared handle for p
func (r *Registry) Lookup(p Provider) (*Handle, error) {
	h, ok := r.handles[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	return h, nil
}

// Module provides the provider registry
var Module = fx.Module("providers",
	fx.Provide(
		NewRegistry,
	),
)
