package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("code") != "good-code" || r.FormValue("code_verifier") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "provider-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testHandle(tokenURL string) *providers.Handle {
	return providers.NewHandle(providers.Twitter, "twitter.com", &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://provider.example/authorize",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	})
}

// redirectOpener plays the browser: it follows the consent page straight
// back to the callback with the given query
func redirectOpener(t *testing.T, query func(state string) url.Values, status *int) Opener {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		params := u.Query()
		assert.Equal(t, "S256", params.Get("code_challenge_method"))
		assert.NotEmpty(t, params.Get("code_challenge"))

		callback := params.Get("redirect_uri") + "?" + query(params.Get("state")).Encode()
		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		*status = resp.StatusCode
		return nil
	}
}

func TestPopupAuthorize(t *testing.T) {
	tokenSrv := newTokenServer(t)
	popup := &Popup{addr: "127.0.0.1:0"}

	var status int
	ctx := WithOpener(context.Background(), redirectOpener(t, func(state string) url.Values {
		return url.Values{"code": {"good-code"}, "state": {state}}
	}, &status))

	token, err := popup.Authorize(ctx, testHandle(tokenSrv.URL))
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "provider-access", token.AccessToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestPopupDeclined(t *testing.T) {
	tokenSrv := newTokenServer(t)
	popup := &Popup{addr: "127.0.0.1:0"}

	var status int
	ctx := WithOpener(context.Background(), redirectOpener(t, func(state string) url.Values {
		return url.Values{"error": {"access_denied"}, "state": {state}}
	}, &status))

	token, err := popup.Authorize(ctx, testHandle(tokenSrv.URL))
	require.NoError(t, err)
	assert.Nil(t, token, "a declined popup yields no credential")
}

func TestPopupBadCode(t *testing.T) {
	tokenSrv := newTokenServer(t)
	popup := &Popup{addr: "127.0.0.1:0"}

	var status int
	ctx := WithOpener(context.Background(), redirectOpener(t, func(state string) url.Values {
		return url.Values{"code": {"stolen-code"}, "state": {state}}
	}, &status))

	_, err := popup.Authorize(ctx, testHandle(tokenSrv.URL))
	assert.Error(t, err)
}

func TestPopupStateMismatchKeepsWaiting(t *testing.T) {
	tokenSrv := newTokenServer(t)
	popup := &Popup{addr: "127.0.0.1:0"}

	var status int
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	ctx = WithOpener(ctx, redirectOpener(t, func(string) url.Values {
		return url.Values{"code": {"good-code"}, "state": {"forged"}}
	}, &status))

	_, err := popup.Authorize(ctx, testHandle(tokenSrv.URL))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPopupRequiresOAuthHandle(t *testing.T) {
	popup := &Popup{addr: "127.0.0.1:0"}
	_, err := popup.Authorize(context.Background(), providers.NewHandle(providers.Password, "password", nil))
	assert.ErrorIs(t, err, providers.ErrUnknownProvider)
}

func TestOpenerFromContext(t *testing.T) {
	assert.NotNil(t, openerFrom(context.Background()))

	var opened string
	ctx := WithOpener(context.Background(), func(u string) error {
		opened = u
		return nil
	})
	require.NoError(t, openerFrom(ctx)("https://example.com"))
	assert.Equal(t, "https://example.com", opened)

	failing := WithOpener(context.Background(), func(string) error { return fmt.Errorf("no browser") })
	assert.EqualError(t, openerFrom(failing)("x"), "no browser")
}
