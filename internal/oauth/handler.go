package oauth

import (
	"encoding/json"
	"errors"
	"net/http"

	"stackbridge/pkg/logging"
)

// Handler exposes the authentication lifecycle over HTTP. Error responses
// carry generic messages only; detail stays in server logs.
type Handler struct {
	manager *Manager
}

// NewHandler creates the auth HTTP handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// HandleStart handles GET /auth/start. It opens a new authorization attempt
// and returns the authorization URL for the browser to follow.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.manager.Start(w)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, "authentication is not configured")
			return
		}
		logging.Error("OAuth", err, "Failed to start authorization attempt")
		writeError(w, http.StatusInternalServerError, "failed to start authentication")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"authUrl": authURL})
}

// HandleCallback handles GET /callback?code&state, the browser's return leg
// of the authorization flow.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "missing code or state parameter")
		return
	}

	err := h.manager.HandleCallback(r.Context(), w, r, code, state)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "authenticated"})
	case errors.Is(err, ErrStateMismatch):
		writeError(w, http.StatusUnauthorized, "authentication session is invalid or expired")
	case errors.Is(err, ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "the Stack Overflow instance could not be reached")
	default:
		writeError(w, http.StatusInternalServerError, "authentication failed")
	}
}

// HandleStatus handles GET /authStatus: 200 when the stored token still
// validates against the upstream, 401 otherwise.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.manager.Status(r.Context(), w, r)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": user})
	case errors.Is(err, ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "the Stack Overflow instance could not be reached")
	default:
		writeError(w, http.StatusUnauthorized, "not authenticated")
	}
}

// manualTokenRequest is the body of POST /auth/token.
type manualTokenRequest struct {
	AccessToken string `json:"accessToken"`
}

// HandleManualToken handles POST /auth/token, the personal-access-token
// fallback path.
func (h *Handler) HandleManualToken(w http.ResponseWriter, r *http.Request) {
	var req manualTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.manager.SubmitManualToken(r.Context(), w, req.AccessToken)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "authenticated"})
	case errors.Is(err, ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "access token was rejected")
	case errors.Is(err, ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "the Stack Overflow instance could not be reached")
	default:
		logging.Error("OAuth", err, "Manual token submission failed")
		writeError(w, http.StatusInternalServerError, "failed to validate token")
	}
}

// HandleLogout handles POST /logout. Unconditionally succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.manager.Logout(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("OAuth", err, "Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
