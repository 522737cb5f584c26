package oauth

import "errors"

// Error taxonomy for the authentication lifecycle. Handlers map these to
// HTTP statuses; none of them carries upstream response detail, which stays
// in server-side logs.
var (
	// ErrNotConfigured means clientID or redirectURI is missing. This is a
	// deployment problem, surfaced at setup rather than per request.
	ErrNotConfigured = errors.New("oauth client id and redirect uri are not configured")

	// ErrStateMismatch means the callback state did not match the value
	// bound to this browser session. Possible CSRF; the authorization code
	// is never sent upstream.
	ErrStateMismatch = errors.New("state parameter mismatch")

	// ErrTokenExchangeFailed means the upstream rejected the code/verifier
	// pair. The attempt cannot be retried; a new flow must be started.
	ErrTokenExchangeFailed = errors.New("token exchange rejected by upstream")

	// ErrInvalidToken means a manually submitted access token was rejected
	// by the upstream.
	ErrInvalidToken = errors.New("access token rejected by upstream")

	// ErrUpstreamUnavailable means the upstream could not be reached or
	// answered 5xx. Retryable at the caller's discretion; the session, if
	// any, is kept.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUnauthorized means the stored session token is no longer accepted
	// by the upstream. The session is cleared as a side effect.
	ErrUnauthorized = errors.New("session token no longer authorized")
)
