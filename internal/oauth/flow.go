package oauth

import (
	"context"
	"fmt"
	"net/http"

	"stackbridge/internal/stackoverflow"
	"stackbridge/pkg/logging"
	"stackbridge/pkg/pkce"
)

// Validator probes the upstream "who am I" endpoint with a candidate token.
// *stackoverflow.Client satisfies this.
type Validator interface {
	Me(ctx context.Context, token string) (*stackoverflow.User, error)
}

// Manager orchestrates the authentication lifecycle: the PKCE authorization
// flow (start, callback), the manual personal-access-token path, session
// status checks and logout.
//
// A session only comes into existence after its token has been verified
// against the upstream at least once; there is no partially valid state.
type Manager struct {
	sessions  *SessionStore
	exchanger *Exchanger
	upstream  Validator
}

// NewManager wires the flow manager.
func NewManager(sessions *SessionStore, exchanger *Exchanger, upstream Validator) *Manager {
	return &Manager{
		sessions:  sessions,
		exchanger: exchanger,
		upstream:  upstream,
	}
}

// Start begins a new authorization attempt: it generates a PKCE challenge
// and CSRF state, binds them to the browser via the attempt cookies, and
// returns the authorization URL to redirect the user to.
func (m *Manager) Start(w http.ResponseWriter) (string, error) {
	if !m.exchanger.Configured() {
		return "", ErrNotConfigured
	}

	challenge, err := pkce.Generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate PKCE challenge: %w", err)
	}
	state, err := pkce.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	authURL, err := m.exchanger.AuthorizeURL(challenge, state)
	if err != nil {
		return "", err
	}

	m.sessions.BeginAttempt(w, challenge, state)
	logging.Debug("OAuth", "Authorization attempt started")
	return authURL, nil
}

// HandleCallback completes an authorization attempt. The state is checked
// before anything else: on mismatch the authorization code never reaches
// the upstream. On success the exchanged token is verified against the
// who-am-I endpoint and only then committed to the session cookie.
func (m *Manager) HandleCallback(ctx context.Context, w http.ResponseWriter, r *http.Request, code, state string) error {
	verifier, err := m.sessions.ConsumeAttempt(w, r, state)
	if err != nil {
		logging.Warn("OAuth", "Callback rejected: state mismatch")
		return err
	}

	token, expiresIn, err := m.exchanger.ExchangeCode(ctx, code, verifier)
	if err != nil {
		// The verifier was consumed above; a retry needs a fresh Start.
		logging.Error("OAuth", err, "Token exchange failed")
		return err
	}

	if _, err := m.upstream.Me(ctx, token); err != nil {
		if stackoverflow.IsAuthError(err) {
			logging.Error("OAuth", err, "Exchanged token rejected by upstream")
			return ErrTokenExchangeFailed
		}
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if err := m.sessions.CommitSession(w, token, expiresIn, MethodOAuth); err != nil {
		return err
	}

	logging.Info("OAuth", "Authorization flow completed")
	return nil
}

// SubmitManualToken validates a personal access token against the upstream
// and commits a session on acceptance. Deployments without OAuth app
// registration (basic/business tiers) use this path exclusively.
func (m *Manager) SubmitManualToken(ctx context.Context, w http.ResponseWriter, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	if _, err := m.upstream.Me(ctx, token); err != nil {
		if stackoverflow.IsAuthError(err) {
			return ErrInvalidToken
		}
		// Network or 5xx: retryable by the caller, nothing committed.
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	// Personal access tokens carry no expiry metadata; the session cookie
	// runs for the browser session.
	if err := m.sessions.CommitSession(w, token, 0, MethodManualPAT); err != nil {
		return err
	}

	logging.Info("OAuth", "Session established from manual token")
	return nil
}

// Status re-validates the stored session token against the upstream on
// every call; there is no trust-without-verification window. A 401/403
// clears the session as a side effect. Network or 5xx failures keep the
// session and surface ErrUpstreamUnavailable instead.
func (m *Manager) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) (*stackoverflow.User, error) {
	sess := m.sessions.CurrentSession(r)
	if sess == nil {
		return nil, ErrUnauthorized
	}

	user, err := m.upstream.Me(ctx, sess.AccessToken)
	if err != nil {
		if stackoverflow.IsAuthError(err) {
			m.sessions.ClearSession(w)
			logging.Info("OAuth", "Stored token no longer accepted, session cleared")
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	return user, nil
}

// Token returns the current session's access token without contacting the
// upstream. List handlers attach it to their requests; an upstream 401/403
// on those requests is what invalidates the session.
func (m *Manager) Token(r *http.Request) (string, bool) {
	sess := m.sessions.CurrentSession(r)
	if sess == nil {
		return "", false
	}
	return sess.AccessToken, true
}

// InvalidateSession clears the session cookie after an upstream rejection
// observed outside Status.
func (m *Manager) InvalidateSession(w http.ResponseWriter) {
	m.sessions.ClearSession(w)
}

// Logout clears the session. Always succeeds.
func (m *Manager) Logout(w http.ResponseWriter) {
	m.sessions.ClearSession(w)
	logging.Debug("OAuth", "Session logged out")
}
