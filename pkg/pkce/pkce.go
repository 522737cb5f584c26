package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// verifierBytes is the number of random bytes for the code verifier.
	// 32 bytes provides 256 bits of entropy and encodes to 43 base64url
	// characters, the RFC 7636 minimum verifier length.
	verifierBytes = 32

	// stateBytes is the number of random bytes for the CSRF state token.
	// RFC 6749 only requires unguessability; 32 bytes matches the verifier
	// entropy.
	stateBytes = 32
)

// Challenge holds a PKCE code verifier and its derived challenge.
type Challenge struct {
	// CodeVerifier is the client-held secret, base64url-encoded.
	CodeVerifier string

	// CodeChallenge is the S256 (SHA256) hash of the verifier,
	// base64url-encoded without padding.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}

// Generate creates a new PKCE code verifier and challenge pair.
// The verifier is 32 random bytes, base64url-encoded; the challenge is the
// base64url-encoded SHA256 digest of the verifier.
func Generate() (*Challenge, error) {
	raw := make([]byte, verifierBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes for PKCE verifier: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(raw)

	hash := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	return &Challenge{
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: "S256",
	}, nil
}

// GenerateState generates a random CSRF state token for the authorization
// redirect. Returns a base64url-encoded random string.
func GenerateState() (string, error) {
	raw := make([]byte, stateBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}
