package pikpak

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
)

// signinAction is the captcha action tag for the password sign-in exchange.
const signinAction = "POST:/v1/auth/signin"

// signinRequest is the body of the password sign-in exchange.
type signinRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// refreshRequest is the body of the refresh-token exchange.
type refreshRequest struct {
	ClientID     string `json:"client_id"`
	RefreshToken string `json:"refresh_token"`
	GrantType    string `json:"grant_type"`
}

// tokenResponse is the shape both auth exchanges return: a fresh token
// pair plus the subject (user) identifier.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Sub          string `json:"sub"`
}

// Login authenticates with the stored username/password pair and replaces
// the session credentials. It first performs the anti-bot captcha exchange
// for the sign-in action; the sign-in call itself carries no bearer header.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" {
		return ErrNoCredentials
	}

	if err := c.captchaInit(ctx, signinAction); err != nil {
		return err
	}

	req := signinRequest{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Username:     c.username,
		Password:     c.password,
	}

	var resp tokenResponse
	if err := c.doNoAuth(ctx, "POST", c.userBase+"/v1/auth/signin", nil, req, &resp); err != nil {
		return err
	}

	c.setSession(resp.AccessToken, resp.RefreshToken, resp.Sub)

	c.logger.Info("logged in",
		slog.String("user_id", resp.Sub),
	)

	return nil
}

// RefreshAccessToken exchanges the refresh token for a fresh token pair
// and replaces the session credentials in place. All in-flight and
// subsequent requests pick up the new access token.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.sess.refreshToken
	c.mu.Unlock()

	if refresh == "" {
		return ErrTokenExpired
	}

	req := refreshRequest{
		ClientID:     clientID,
		RefreshToken: refresh,
		GrantType:    "refresh_token",
	}

	var resp tokenResponse
	if err := c.doNoAuth(ctx, "POST", c.userBase+"/v1/auth/token", nil, req, &resp); err != nil {
		return err
	}

	c.setSession(resp.AccessToken, resp.RefreshToken, resp.Sub)

	c.logger.Info("access token refreshed",
		slog.String("user_id", resp.Sub),
	)

	return nil
}

// UserInfo returns a snapshot of the current session.
func (c *Client) UserInfo() UserInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	return UserInfo{
		Username:     c.username,
		UserID:       c.sess.userID,
		AccessToken:  c.sess.accessToken,
		RefreshToken: c.sess.refreshToken,
	}
}

// credentialBundle is the exported credential format: exactly the token
// pair, JSON-encoded and then base64-encoded.
type credentialBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ExportBundle serializes the current token pair as a base64-encoded JSON
// bundle suitable for WithCredentialBundle.
func (c *Client) ExportBundle() string {
	c.mu.Lock()
	b := credentialBundle{
		AccessToken:  c.sess.accessToken,
		RefreshToken: c.sess.refreshToken,
	}
	c.mu.Unlock()

	data, _ := json.Marshal(b)

	return base64.StdEncoding.EncodeToString(data)
}

// EncodeBundle builds a credential bundle from a token pair, in the same
// format ExportBundle produces. Useful when tokens come from external
// storage rather than a live session.
func EncodeBundle(accessToken, refreshToken string) string {
	data, _ := json.Marshal(credentialBundle{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})

	return base64.StdEncoding.EncodeToString(data)
}

// decodeBundle parses an exported credential bundle. A bundle that fails
// to decode, parse, or carry both tokens is a configuration error.
func decodeBundle(encoded string) (access, refresh string, err error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("pikpak: decoding credential bundle: %w", err)
	}

	var b credentialBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return "", "", fmt.Errorf("pikpak: parsing credential bundle: %w", err)
	}

	if b.AccessToken == "" || b.RefreshToken == "" {
		return "", "", fmt.Errorf("pikpak: credential bundle missing token fields")
	}

	return b.AccessToken, b.RefreshToken, nil
}
