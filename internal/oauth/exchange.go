package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stackbridge/pkg/logging"
	"stackbridge/pkg/pkce"
)

// defaultScope is requested during authorization; posting questions needs
// write access.
const defaultScope = "write_access"

// ExchangeConfig configures the authorization and token endpoints of the
// Stack Overflow for Teams instance.
type ExchangeConfig struct {
	// BaseURL is the instance root (e.g. "https://soe.example.com"), which
	// hosts /oauth and /oauth/access_token/json.
	BaseURL string

	// ClientID identifies the registered OAuth application.
	ClientID string

	// RedirectURI is where the instance redirects after authorization.
	RedirectURI string

	// Scope overrides defaultScope when set.
	Scope string

	// Timeout bounds the token exchange round trip. Zero means 30s.
	Timeout time.Duration
}

// Exchanger builds authorization URLs and exchanges authorization codes for
// access tokens.
type Exchanger struct {
	cfg        ExchangeConfig
	httpClient *http.Client
}

// NewExchanger creates an exchanger. A missing clientID or redirectURI is
// not an error here: deployments on tiers without OAuth app registration
// run with the manual-token path only, and Configured reports that state.
func NewExchanger(cfg ExchangeConfig) *Exchanger {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Exchanger{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the OAuth flow can run at all.
func (e *Exchanger) Configured() bool {
	return e.cfg.ClientID != "" && e.cfg.RedirectURI != ""
}

// AuthorizeURL builds the full authorization URL for a new attempt.
func (e *Exchanger) AuthorizeURL(challenge *pkce.Challenge, state string) (string, error) {
	if !e.Configured() {
		return "", ErrNotConfigured
	}

	scope := e.cfg.Scope
	if scope == "" {
		scope = defaultScope
	}

	query := url.Values{}
	query.Set("client_id", e.cfg.ClientID)
	query.Set("redirect_uri", e.cfg.RedirectURI)
	query.Set("code_challenge", challenge.CodeChallenge)
	query.Set("code_challenge_method", challenge.CodeChallengeMethod)
	query.Set("state", state)
	query.Set("scope", scope)

	return e.cfg.BaseURL + "/oauth?" + query.Encode(), nil
}

// tokenResponse is the upstream token endpoint's payload. The instance
// reports the token lifetime in an "expires" field, seconds from now.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Expires     int64  `json:"expires"`
}

// ExchangeCode exchanges an authorization code plus PKCE verifier for an
// access token. The verifier must not be reused after this call regardless
// of outcome; a failed exchange requires a fresh attempt.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, codeVerifier string) (token string, expiresIn time.Duration, err error) {
	if !e.Configured() {
		return "", 0, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("client_id", e.cfg.ClientID)
	params.Set("code", code)
	params.Set("redirect_uri", e.cfg.RedirectURI)
	params.Set("code_verifier", codeVerifier)

	endpoint := e.cfg.BaseURL + "/oauth/access_token/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The body may carry upstream error hints; log, never forward.
		logging.Debug("OAuth", "Token exchange failed: status=%d body=%s", resp.StatusCode, string(body))
		return "", 0, ErrTokenExchangeFailed
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, fmt.Errorf("%w: unparseable token response", ErrTokenExchangeFailed)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: empty access token", ErrTokenExchangeFailed)
	}

	return tr.AccessToken, time.Duration(tr.Expires) * time.Second, nil
}
