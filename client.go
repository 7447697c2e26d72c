package pikpak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Service endpoints and the application credentials the service expects.
const (
	defaultAPIBase  = "https://api-drive.mypikpak.com"
	defaultUserBase = "https://user.mypikpak.com"

	clientID     = "YNxT9w7GMdWvEOKa"
	clientSecret = "dbw2OtmVEeuUvIptb1Coygx"
)

// Retry and backoff constants.
const (
	defaultMaxAttempts = 3
	defaultBaseBackoff = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second
	backoffFactor      = 2.0
	jitterFraction     = 0.25
)

// browserUserAgent is the User-Agent the web client presents. The service
// rejects requests with an unrecognized agent string.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/103.0.0.0 Safari/537.36"

// session is the credential triple owned by the client. Mutated only by
// Login and RefreshAccessToken, always under Client.mu.
type session struct {
	accessToken  string
	refreshToken string
	userID       string
}

// Client is a PikPak API client. It owns the session credentials and the
// path cache, and runs every request through a bounded retry loop with
// transparent token refresh on auth expiry.
//
// A Client is safe for concurrent use. Concurrent operations that both hit
// auth expiry may each trigger a refresh; refresh exchanges are idempotent
// and the last writer wins on the stored token pair.
type Client struct {
	apiBase  string
	userBase string

	httpClient *http.Client
	logger     *slog.Logger

	username string
	password string
	deviceID string

	mu           sync.Mutex
	sess         session
	captchaToken string

	cacheMu   sync.RWMutex
	pathCache map[string]PathEntry

	maxAttempts int
	baseBackoff time.Duration

	// sleepFunc is called to wait between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error

	bundle string
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials sets the username/password pair used by Login.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithCredentialBundle seeds the session from a previously exported
// credential bundle (see Client.ExportBundle). A malformed bundle makes
// NewClient fail.
func WithCredentialBundle(encoded string) Option {
	return func(c *Client) {
		c.bundle = encoded
	}
}

// WithHTTPClient sets the HTTP client used for all requests. The client's
// Timeout bounds each individual call; a timed-out call is treated as a
// transient failure and retried.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDeviceID fixes the device identifier instead of generating a random
// one. Reusing a device ID across sessions reduces captcha challenges.
func WithDeviceID(id string) Option {
	return func(c *Client) {
		c.deviceID = id
	}
}

// WithMaxAttempts sets the total attempt budget per logical request,
// shared across transient retries and token-refresh cycles.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBaseBackoff sets the initial delay between attempts. The delay
// doubles on each subsequent attempt, capped at 30s.
func WithBaseBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseBackoff = d
		}
	}
}

// WithBaseURLs overrides the drive and user API endpoints. Tests point
// these at a local fake server.
func WithBaseURLs(apiBase, userBase string) Option {
	return func(c *Client) {
		c.apiBase = apiBase
		c.userBase = userBase
	}
}

// NewClient creates a PikPak client. Either WithCredentials or
// WithCredentialBundle must be supplied; a missing or malformed bundle is
// a fatal configuration error raised here, not later at request time.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		apiBase:     defaultAPIBase,
		userBase:    defaultUserBase,
		httpClient:  http.DefaultClient,
		logger:      slog.Default(),
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
		pathCache:   make(map[string]PathEntry),
		sleepFunc:   timeSleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.bundle != "" {
		access, refresh, err := decodeBundle(c.bundle)
		if err != nil {
			return nil, err
		}

		c.sess = session{accessToken: access, refreshToken: refresh}
	}

	if c.username == "" && c.sess.accessToken == "" {
		return nil, ErrNoCredentials
	}

	if c.deviceID == "" {
		c.deviceID = newDeviceID()
	}

	return c, nil
}

// DeviceID returns the device identifier this client presents, whether
// supplied via WithDeviceID or generated at construction. Callers persist
// it so later sessions reuse the same fingerprint.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// apiEnvelope is the error shape embedded in every response body. A body
// without an "error" field is a success and is decoded per-operation.
type apiEnvelope struct {
	Error            string `json:"error"`
	ErrorCode        int    `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// do executes an authenticated request against the API and decodes a
// successful payload into out (skipped when out is nil).
func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, body, out any) error {
	return c.doRequest(ctx, method, rawURL, query, body, out, true)
}

// doNoAuth executes a request without the bearer header. Used by the
// sign-in, token-refresh, and captcha exchanges, which must never trigger
// a recursive refresh.
func (c *Client) doNoAuth(ctx context.Context, method, rawURL string, query url.Values, body, out any) error {
	return c.doRequest(ctx, method, rawURL, query, body, out, false)
}

// doRequest is the resilient request pipeline: a bounded attempt loop with
// geometric backoff between attempts. Transient failures (network errors,
// empty or unparseable bodies) re-enter the loop; an auth-expiry envelope
// triggers exactly one refresh exchange per failure and then re-enters the
// loop; every other remote error is terminal. The attempt budget is shared
// across refresh cycles, so repeated expiry signals cannot loop forever.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, query url.Values, body, out any, auth bool) error {
	var payload []byte

	if body != nil {
		var err error

		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("pikpak: encoding request body: %w", err)
		}
	}

	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.calcBackoff(attempt - 1)
			c.logger.Warn("retrying request",
				slog.String("method", method),
				slog.String("url", rawURL),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.String("error", lastErr.Error()),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return fmt.Errorf("pikpak: request canceled: %w", err)
			}
		}

		raw, err := c.send(ctx, method, rawURL, query, payload, auth)
		if err != nil {
			// Context cancellation is not retryable.
			if ctx.Err() != nil {
				return fmt.Errorf("pikpak: request canceled: %w", ctx.Err())
			}

			lastErr = err

			continue
		}

		var env apiEnvelope
		if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil {
			// Empty or malformed bodies are a known-transient shape.
			lastErr = fmt.Errorf("pikpak: malformed response body: %w", jsonErr)

			continue
		}

		if env.Error == "" {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("url", rawURL),
			)

			if out == nil {
				return nil
			}

			if decErr := json.Unmarshal(raw, out); decErr != nil {
				return fmt.Errorf("pikpak: decoding response: %w", decErr)
			}

			return nil
		}

		if auth && env.ErrorCode == errCodeTokenExpired {
			c.logger.Info("access token expired, refreshing",
				slog.String("method", method),
				slog.String("url", rawURL),
			)

			if refErr := c.RefreshAccessToken(ctx); refErr != nil {
				return fmt.Errorf("pikpak: refreshing expired token: %w", refErr)
			}

			lastErr = ErrTokenExpired

			continue
		}

		return &APIError{
			Code:        env.ErrorCode,
			Reason:      env.Error,
			Description: env.ErrorDescription,
			Err:         classifyReason(env.Error, env.ErrorCode),
		}
	}

	return fmt.Errorf("pikpak: %s %s failed after %d attempts: %w", method, rawURL, c.maxAttempts, lastErr)
}

// send executes a single HTTP exchange (no retry) and returns the raw body.
func (c *Client) send(ctx context.Context, method, rawURL string, query url.Values, payload []byte, auth bool) ([]byte, error) {
	u := rawURL
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("pikpak: creating request: %w", err)
	}

	// Drive API calls present the web client's agent string. The
	// unauthenticated auth and captcha exchanges present the Android
	// client fingerprint instead, matching the official app.
	ua := browserUserAgent
	if !auth {
		ua = buildUserAgent(c.deviceID, c.currentUserID())
	}

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("x-device-id", c.deviceID)

	if auth {
		if tok := c.currentAccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	if ct := c.currentCaptchaToken(); ct != "" {
		req.Header.Set("x-captcha-token", ct)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pikpak: reading response body: %w", err)
	}

	return raw, nil
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(c.baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// currentAccessToken returns the access token under the session lock.
func (c *Client) currentAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.accessToken
}

// currentUserID returns the user ID under the session lock.
func (c *Client) currentUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sess.userID
}

// currentCaptchaToken returns the captcha token under the session lock.
func (c *Client) currentCaptchaToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.captchaToken
}

// setSession replaces the credential triple. Last writer wins when
// concurrent refreshes race.
func (c *Client) setSession(access, refresh, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sess = session{accessToken: access, refreshToken: refresh, userID: userID}
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Client.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
