package pikpak

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote error classification.
// Use errors.Is(err, pikpak.ErrInvalidCredentials) to check.
var (
	// ErrNoCredentials is returned by NewClient when neither a
	// username/password pair nor a credential bundle is supplied.
	ErrNoCredentials = errors.New("pikpak: username/password or credential bundle required")

	// ErrInvalidCredentials means the service rejected the username or
	// password. Never retried.
	ErrInvalidCredentials = errors.New("pikpak: invalid username or password")

	// ErrTokenExpired means the access token has expired. The request
	// pipeline recovers from this transparently by refreshing; callers only
	// see it when refresh is impossible (no refresh token).
	ErrTokenExpired = errors.New("pikpak: access token expired")

	// ErrNotFound means the referenced file, folder, or task does not exist.
	ErrNotFound = errors.New("pikpak: not found")
)

// errCodeTokenExpired is the well-known error_code sentinel the service
// returns when the bearer token has expired.
const errCodeTokenExpired = 16

// invalidCredentialsReason is the error value the sign-in endpoint returns
// for a wrong username or password.
const invalidCredentialsReason = "invalid_account_or_password"

// notFoundReason is the error value returned for missing files and tasks.
const notFoundReason = "file_not_found"

// APIError wraps a remote-reported error with the service's error code,
// reason, and human-readable description. It wraps a sentinel error where
// the reason has a well-known meaning, for errors.Is().
type APIError struct {
	Code        int
	Reason      string
	Description string
	Err         error // sentinel, may be nil
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("pikpak: %s (error_code %d): %s", e.Reason, e.Code, e.Description)
	}

	return fmt.Sprintf("pikpak: %s (error_code %d)", e.Reason, e.Code)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyReason maps a remote error reason/code to a sentinel error.
// Returns nil when the reason has no well-known meaning.
func classifyReason(reason string, code int) error {
	switch {
	case code == errCodeTokenExpired:
		return ErrTokenExpired
	case reason == invalidCredentialsReason:
		return ErrInvalidCredentials
	case reason == notFoundReason:
		return ErrNotFound
	default:
		return nil
	}
}
