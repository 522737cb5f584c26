package oauth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stackbridge/pkg/logging"
	"stackbridge/pkg/pkce"
)

// Cookie names are fixed for interoperability with the existing portal flow.
const (
	// CookieVerifier holds the PKCE code verifier between authorization
	// redirect and callback.
	CookieVerifier = "socodeverifier"

	// CookieState holds the CSRF state token, same lifecycle as the
	// verifier.
	CookieState = "state"

	// CookieSession holds the long-lived session token.
	CookieSession = "stackoverflow-access-token"
)

const (
	// attemptTTL bounds how long an authorization attempt may stay open
	// between redirect and callback.
	attemptTTL = 10 * time.Minute

	// defaultSessionTTL is used when the upstream omits the token expiry.
	defaultSessionTTL = 24 * time.Hour
)

// AuthMethod records how a session was established.
type AuthMethod string

const (
	MethodOAuth     AuthMethod = "oauth"
	MethodManualPAT AuthMethod = "pat"
)

// Session is the authenticated state carried by the session cookie. The
// server holds no session table; the signed cookie is the only copy.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Method      AuthMethod
}

// sessionClaims is the JWT payload of the session cookie. The upstream
// access token is wrapped in a signed JWT so a tampered cookie fails
// verification instead of reaching the upstream.
type sessionClaims struct {
	Token  string `json:"token"`
	Method string `json:"method"`
	jwt.RegisteredClaims
}

// SessionStore reads and writes the cookie-backed session and the
// short-lived PKCE/state cookies of an authorization attempt. It keeps no
// server-side state.
type SessionStore struct {
	secret       []byte
	secure       bool
	callbackPath string
}

// NewSessionStore creates a session store signing cookies with the given
// secret. secure controls the cookies' Secure flag (on in production).
// callbackPath scopes the transient attempt cookies to the callback route.
func NewSessionStore(secret string, secure bool, callbackPath string) (*SessionStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if callbackPath == "" {
		callbackPath = "/"
	}
	return &SessionStore{
		secret:       []byte(secret),
		secure:       secure,
		callbackPath: callbackPath,
	}, nil
}

// BeginAttempt stores the verifier and state of a new authorization attempt
// in two short-lived http-only cookies scoped to the callback path.
func (s *SessionStore) BeginAttempt(w http.ResponseWriter, challenge *pkce.Challenge, state string) {
	maxAge := int(attemptTTL.Seconds())
	http.SetCookie(w, s.cookie(CookieVerifier, challenge.CodeVerifier, s.callbackPath, maxAge))
	http.SetCookie(w, s.cookie(CookieState, state, s.callbackPath, maxAge))
}

// ConsumeAttempt validates the callback state against the cookie-stored
// value and returns the stored code verifier. Attempts are single-use: both
// transient cookies are cleared on every outcome, so a replayed callback
// fails with ErrStateMismatch and a failed exchange cannot reuse the
// verifier.
func (s *SessionStore) ConsumeAttempt(w http.ResponseWriter, r *http.Request, receivedState string) (string, error) {
	verifierCookie, verifierErr := r.Cookie(CookieVerifier)
	stateCookie, stateErr := r.Cookie(CookieState)

	s.clearAttempt(w)

	if verifierErr != nil || stateErr != nil {
		return "", ErrStateMismatch
	}
	if receivedState == "" || stateCookie.Value == "" {
		return "", ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(receivedState), []byte(stateCookie.Value)) != 1 {
		return "", ErrStateMismatch
	}

	return verifierCookie.Value, nil
}

// CommitSession wraps the access token in a signed JWT and sets the session
// cookie. expiresIn of zero means the upstream did not report an expiry; the
// JWT then expires after defaultSessionTTL and the cookie lives for the
// browser session.
func (s *SessionStore) CommitSession(w http.ResponseWriter, accessToken string, expiresIn time.Duration, method AuthMethod) error {
	ttl := expiresIn
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	claims := sessionClaims{
		Token:  accessToken,
		Method: string(method),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	maxAge := 0 // session-length cookie when the upstream omits an expiry
	if expiresIn > 0 {
		maxAge = int(expiresIn.Seconds())
	}

	http.SetCookie(w, s.cookie(CookieSession, signed, "/", maxAge))
	logging.Debug("Session", "Session committed (method=%s, ttl=%s)", method, ttl)
	return nil
}

// CurrentSession returns the session carried by the request's cookie, or
// nil if there is none or the cookie fails verification. A tampered or
// expired cookie is treated the same as an absent one.
func (s *SessionStore) CurrentSession(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieSession)
	if err != nil || cookie.Value == "" {
		return nil
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &Session{
		AccessToken: claims.Token,
		ExpiresAt:   expiresAt,
		Method:      AuthMethod(claims.Method),
	}
}

// ClearSession clears the session cookie. Idempotent.
func (s *SessionStore) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(CookieSession, "", "/", -1))
}

func (s *SessionStore) clearAttempt(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(CookieVerifier, "", s.callbackPath, -1))
	http.SetCookie(w, s.cookie(CookieState, "", s.callbackPath, -1))
}

func (s *SessionStore) cookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
