package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/brizzai/volunteer-auth/internal/auth/constants"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/brizzai/volunteer-auth/internal/logger"
	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const shutdownTimeout = 2 * time.Second

// Opener shows the provider's consent page to the user
type Opener func(authURL string) error

type openerKey struct{}

// WithOpener returns a context whose popup flows hand the authorization URL
// to open instead of printing it
func WithOpener(ctx context.Context, open Opener) context.Context {
	return context.WithValue(ctx, openerKey{}, open)
}

// PrintOpener prints the authorization URL for the user to follow
func PrintOpener(authURL string) error {
	pterm.Info.Println("Open this URL in your browser to continue signing in:")
	pterm.Println(authURL)
	return nil
}

func openerFrom(ctx context.Context) Opener {
	if open, ok := ctx.Value(openerKey{}).(Opener); ok && open != nil {
		return open
	}
	return PrintOpener
}

// Popup runs the browser half of a federated sign-in: an OAuth 2.0
// authorization code flow with PKCE, redirected to a loopback listener.
type Popup struct {
	addr string
}

func NewPopup(cfg *config.Config) *Popup {
	return &Popup{addr: cfg.Callback.Address()}
}

type callbackResult struct {
	code   string
	denied string
	err    error
}

// Authorize sends the user to the provider and waits for the redirect.
// A nil token with a nil error means the user declined or closed the popup.
func (p *Popup) Authorize(ctx context.Context, handle *providers.Handle) (*oauth2.Token, error) {
	cfg := handle.OAuth2Config()
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s has no popup flow", providers.ErrUnknownProvider, handle.Provider())
	}

	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for callback on %s: %w", p.addr, err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://%s%s", ln.Addr().String(), constants.CallbackPath)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(constants.CallbackPath, callbackHandler(state, results))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: fmt.Errorf("callback server error: %w", err)}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down callback server", zap.Error(err))
		}
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	logger.Debug("Opening provider consent page",
		zap.String("provider", handle.Provider().String()),
		zap.String("redirect_uri", cfg.RedirectURL),
	)
	if err := openerFrom(ctx)(authURL); err != nil {
		return nil, fmt.Errorf("failed to open consent page: %w", err)
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}

	if res.err != nil {
		return nil, res.err
	}
	if res.denied != "" {
		logger.Info("Popup sign-in declined",
			zap.String("provider", handle.Provider().String()),
			zap.String("reason", res.denied),
		)
		return nil, nil
	}

	token, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// callbackHandler accepts exactly one redirect carrying the expected state
func callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}

		var res callbackResult
		switch {
		case query.Get("error") != "":
			res.denied = query.Get("error")
		case query.Get("code") != "":
			res.code = query.Get("code")
		default:
			http.Error(w, "Code is required", http.StatusBadRequest)
			return
		}

		select {
		case results <- res:
			_, _ = fmt.Fprintln(w, "Sign-in finished, you can close this window.")
		default:
			http.Error(w, "Sign-in already completed", http.StatusConflict)
		}
	}
}
