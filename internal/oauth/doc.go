// Package oauth implements the authentication lifecycle against a Stack
// Overflow for Teams instance: the OAuth2 authorization-code flow with PKCE,
// the manual personal-access-token fallback, and the cookie-backed session
// that results from either.
//
// # Flow
//
// An attempt starts with Manager.Start, which generates a PKCE
// verifier/challenge pair and a CSRF state token, binds both to the browser
// through short-lived http-only cookies, and hands back the authorization
// URL. The callback leg (Manager.HandleCallback) consumes the attempt: the
// state is compared in constant time against the cookie copy, and on any
// mismatch the flow aborts before the authorization code is ever sent
// upstream. A matched attempt exchanges code plus verifier for an access
// token, verifies the token against the who-am-I endpoint, and commits the
// session.
//
// # Session
//
// The session lives entirely in one signed cookie: the access token is
// wrapped in an HS256 JWT so tampering is detectable without any
// server-side session table. Manager.Status re-validates the token against
// the upstream on every call; an upstream 401/403 clears the cookie, while
// network failures keep it (retryable, see ErrUpstreamUnavailable).
//
// # Single use
//
// State tokens and code verifiers are consumed on first callback, whatever
// its outcome. A failed exchange cannot be retried with the same verifier;
// callers restart with Manager.Start.
package oauth
