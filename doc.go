// Package pikpak is a client for the PikPak cloud-storage REST API.
//
// The client authenticates with a username/password pair or a previously
// exported credential bundle, transparently refreshes the access token when
// the service reports expiry, and retries transient failures with
// exponential backoff. On top of the raw file, offline-task, sharing, and
// quota operations it provides a path resolver that translates
// slash-delimited logical paths into remote folder identifier chains,
// backed by an in-memory cache.
//
// All network operations take a context.Context and return an error. Remote
// failures are surfaced as *APIError values wrapping sentinel errors that
// can be tested with errors.Is.
package pikpak
