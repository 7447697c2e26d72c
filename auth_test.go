package pikpak

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestNewClient_BadBundle(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"not json", base64.StdEncoding.EncodeToString([]byte("{broken"))},
		{"missing refresh token", bundleFor("access-only", "")},
		{"missing access token", bundleFor("", "refresh-only")},
		{"empty object", base64.StdEncoding.EncodeToString([]byte("{}"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(WithCredentialBundle(tt.encoded))
			assert.Error(t, err)
		})
	}
}

func TestBundleRoundTrip(t *testing.T) {
	c, err := NewClient(WithCredentialBundle(bundleFor("acc-1", "ref-1")))
	require.NoError(t, err)

	access, refresh, err := decodeBundle(c.ExportBundle())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", access)
	assert.Equal(t, "ref-1", refresh)
}

func TestEncodeBundle(t *testing.T) {
	c, err := NewClient(WithCredentialBundle(EncodeBundle("acc-1", "ref-1")))
	require.NoError(t, err)

	info := c.UserInfo()
	assert.Equal(t, "acc-1", info.AccessToken)
	assert.Equal(t, "ref-1", info.RefreshToken)
}

func TestLogin(t *testing.T) {
	var captchaSeen, signinSeen bool

	var signinCaptcha string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/shield/captcha/init":
			captchaSeen = true

			var req captchaInitRequest
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, signinAction, req.Action)
			assert.Equal(t, clientID, req.ClientID)
			assert.NotEmpty(t, req.Meta.CaptchaSign)
			assert.NotEmpty(t, req.Meta.Timestamp)

			_, _ = w.Write([]byte(`{"captcha_token":"cap-1","expires_in":300}`))

		case "/v1/auth/signin":
			signinSeen = true
			signinCaptcha = r.Header.Get("x-captcha-token")

			var req signinRequest
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "alice", req.Username)
			assert.Equal(t, "hunter2", req.Password)
			assert.Equal(t, clientID, req.ClientID)
			assert.Equal(t, clientSecret, req.ClientSecret)
			assert.Empty(t, r.Header.Get("Authorization"))

			_, _ = w.Write([]byte(`{"access_token":"tok-1","refresh_token":"ref-1","sub":"user-9"}`))

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c, err := NewClient(
		WithCredentials("alice", "hunter2"),
		WithBaseURLs(srv.URL, srv.URL),
	)
	require.NoError(t, err)

	c.sleepFunc = noopSleep

	require.NoError(t, c.Login(context.Background()))
	assert.True(t, captchaSeen)
	assert.True(t, signinSeen)

	// The captcha token from the init exchange rides on the sign-in call.
	assert.Equal(t, "cap-1", signinCaptcha)

	info := c.UserInfo()
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, "user-9", info.UserID)
	assert.Equal(t, "tok-1", info.AccessToken)
	assert.Equal(t, "ref-1", info.RefreshToken)
}

func TestLogin_InvalidPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/shield/captcha/init" {
			_, _ = w.Write([]byte(`{"captcha_token":"cap-1","expires_in":300}`))

			return
		}

		_, _ = w.Write([]byte(`{"error":"invalid_account_or_password","error_code":4022,"error_description":"wrong password"}`))
	}))
	defer srv.Close()

	c, err := NewClient(
		WithCredentials("alice", "wrong"),
		WithBaseURLs(srv.URL, srv.URL),
	)
	require.NoError(t, err)

	c.sleepFunc = noopSleep

	err = c.Login(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/auth/token", r.URL.Path)

		var req refreshRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "refresh_token", req.GrantType)
		assert.Equal(t, "refresh-1", req.RefreshToken)

		_, _ = w.Write([]byte(`{"access_token":"tok-2","refresh_token":"refresh-2","sub":"user-1"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	require.NoError(t, c.RefreshAccessToken(context.Background()))

	info := c.UserInfo()
	assert.Equal(t, "tok-2", info.AccessToken)
	assert.Equal(t, "refresh-2", info.RefreshToken)
}

func TestRefreshAccessToken_NoRefreshToken(t *testing.T) {
	c, err := NewClient(WithCredentials("alice", "hunter2"))
	require.NoError(t, err)

	err = c.RefreshAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
}
