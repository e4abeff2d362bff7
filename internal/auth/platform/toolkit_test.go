package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/auth/providers"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeAuthorizer stands in for the browser step
type fakeAuthorizer struct {
	token *oauth2.Token
	err   error
	calls int
}

func (f *fakeAuthorizer) Authorize(context.Context, *providers.Handle) (*oauth2.Token, error) {
	f.calls++
	return f.token, f.err
}

type recordedCall struct {
	path string
	key  string
	body map[string]interface{}
}

func newToolkitServer(t *testing.T, status int, response interface{}) (*httptest.Server, *[]recordedCall) {
	t.Helper()

	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, recordedCall{path: r.URL.Path, key: r.URL.Query().Get("key"), body: body})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestToolkit(t *testing.T, endpoint string, popup Authorizer) (*IdentityToolkit, *FileSessionStore) {
	sessions := newTestSessions(t)
	tk := NewIdentityToolkit(config.IdentityConfig{Endpoint: endpoint + "/", APIKey: "api-key"}, popup, sessions)
	return tk, sessions
}

func TestIdentityToolkitSignInWithPassword(t *testing.T) {
	srv, calls := newToolkitServer(t, http.StatusOK, map[string]interface{}{
		"localId":     "uid-1",
		"email":       "a@b.c",
		"displayName": "A",
		"idToken":     "id-token",
	})
	tk, sessions := newTestToolkit(t, srv.URL, nil)

	user, err := tk.SignInWithPassword(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "A", user.Name)
	assert.Equal(t, "password", user.Provider)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/accounts:signInWithPassword", call.path)
	assert.Equal(t, "api-key", call.key)
	assert.Equal(t, "a@b.c", call.body["email"])
	assert.Equal(t, "secret", call.body["password"])
	assert.Equal(t, true, call.body["returnSecureToken"])

	session, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, user, session)
}

func TestIdentityToolkitErrors(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		message         string
		wantCredentials bool
	}{
		{name: "wrong password", status: http.StatusBadRequest, message: "INVALID_PASSWORD", wantCredentials: true},
		{name: "new credential error", status: http.StatusBadRequest, message: "INVALID_LOGIN_CREDENTIALS", wantCredentials: true},
		{name: "rate limited", status: http.StatusBadRequest, message: "TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled"},
		{name: "server error", status: http.StatusInternalServerError, message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := map[string]interface{}{"error": map[string]interface{}{"code": tt.status, "message": tt.message}}
			srv, _ := newToolkitServer(t, tt.status, resp)
			tk, _ := newTestToolkit(t, srv.URL, nil)

			user, err := tk.SignInWithPassword(context.Background(), "a@b.c", "nope")
			require.Error(t, err)
			assert.Nil(t, user)
			assert.Equal(t, tt.wantCredentials, errors.Is(err, ErrInvalidCredentials))
		})
	}
}

func TestIdentityToolkitSignInWithPopup(t *testing.T) {
	handle := providers.NewHandle(providers.Facebook, "facebook.com", &oauth2.Config{ClientID: "fb"})

	t.Run("access token is exchanged with signInWithIdp", func(t *testing.T) {
		srv, calls := newToolkitServer(t, http.StatusOK, map[string]interface{}{
			"localId":    "uid-fb",
			"email":      "fb@b.c",
			"providerId": "facebook.com",
		})
		popup := &fakeAuthorizer{token: &oauth2.Token{AccessToken: "fb-access"}}
		tk, _ := newTestToolkit(t, srv.URL, popup)

		user, err := tk.SignInWithPopup(context.Background(), handle)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "uid-fb", user.UID)
		assert.Equal(t, "facebook.com", user.Provider)
		assert.Equal(t, 1, popup.calls)

		require.Len(t, *calls, 1)
		assert.Equal(t, "/accounts:signInWithIdp", (*calls)[0].path)
		postBody, err := url.ParseQuery((*calls)[0].body["postBody"].(string))
		require.NoError(t, err)
		assert.Equal(t, "fb-access", postBody.Get("access_token"))
		assert.Equal(t, "facebook.com", postBody.Get("providerId"))
	})

	t.Run("id token is forwarded when present", func(t *testing.T) {
		srv, calls := newToolkitServer(t, http.StatusOK, map[string]interface{}{"localId": "uid-x"})
		token := (&oauth2.Token{AccessToken: "at"}).WithExtra(map[string]interface{}{"id_token": "raw-id-token"})
		tk, _ := newTestToolkit(t, srv.URL, &fakeAuthorizer{token: token})

		user, err := tk.SignInWithPopup(context.Background(), handle)
		require.NoError(t, err)
		assert.Equal(t, "uid-x", user.UID)
		assert.Equal(t, "facebook.com", user.Provider)

		postBody, err := url.ParseQuery((*calls)[0].body["postBody"].(string))
		require.NoError(t, err)
		assert.Equal(t, "raw-id-token", postBody.Get("id_token"))
		assert.Empty(t, postBody.Get("access_token"))
	})

	t.Run("declined popup returns no user", func(t *testing.T) {
		srv, calls := newToolkitServer(t, http.StatusOK, map[string]interface{}{})
		tk, _ := newTestToolkit(t, srv.URL, &fakeAuthorizer{})

		user, err := tk.SignInWithPopup(context.Background(), handle)
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.Empty(t, *calls)
	})

	t.Run("authorizer failure", func(t *testing.T) {
		srv, _ := newToolkitServer(t, http.StatusOK, map[string]interface{}{})
		tk, _ := newTestToolkit(t, srv.URL, &fakeAuthorizer{err: errors.New("boom")})

		_, err := tk.SignInWithPopup(context.Background(), handle)
		assert.EqualError(t, err, "boom")
	})
}

func TestIdentityToolkitSignOut(t *testing.T) {
	tk, sessions := newTestToolkit(t, "http://unused", nil)
	require.NoError(t, sessions.Save(&models.User{UID: "u1"}))
	require.NoError(t, tk.SignOut(context.Background()))

	session, err := sessions.Load()
	require.NoError(t, err)
	assert.Nil(t, session)
}
