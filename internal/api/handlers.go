package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"stackbridge/internal/pagecache"
	"stackbridge/internal/stackoverflow"
	"stackbridge/pkg/logging"
)

// listResponse is the envelope for paginated list endpoints. Page and
// PageSize describe display pages, not the upstream pages behind them.
type listResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func newListResponse[T any](res *pagecache.Result[T], page, pageSize int) listResponse[T] {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: res.TotalClientPages,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListQuestions serves GET /questions?page&sort&order&isAnswered.
// Parameters are whitelisted before anything reaches the upstream, and
// results come through the page cache.
func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	params := stackoverflow.QuestionParams{
		Sort:  r.URL.Query().Get("sort"),
		Order: r.URL.Query().Get("order"),
	}
	if params.Sort == "" {
		params.Sort = stackoverflow.SortActivity
	}
	if params.Order == "" {
		params.Order = "desc"
	}
	if raw := r.URL.Query().Get("isAnswered"); raw != "" {
		answered, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid isAnswered parameter")
			return
		}
		params.IsAnswered = &answered
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.questions.Fetch(r.Context(), questionFilterKey(token, params), page)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(res, page, s.cfg.Cache.ClientPageSize))
}

// handleSearch serves GET /search?query&page through the search page cache.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter")
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	res, err := s.search.Fetch(r.Context(), searchFilterKey(token, query), page)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(res, page, s.cfg.Cache.ClientPageSize))
}

// handleListTags serves GET /tags?partialName as a direct pass-through.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}

	page, err := s.client.Tags(r.Context(), token, r.URL.Query().Get("partialName"))
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleListUsers serves GET /users?page as a direct pass-through.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	users, err := s.client.Users(r.Context(), token, page)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleMe serves GET /users/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}

	user, err := s.client.Me(r.Context(), token)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// postQuestionRequest is the body of POST /questions.
type postQuestionRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// handlePostQuestion creates a question and invalidates the list caches so
// the new question shows up on the next page load.
func (s *Server) handlePostQuestion(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w, r)
	if !ok {
		return
	}

	var req postQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "title and body are required")
		return
	}

	question, err := s.client.PostQuestion(r.Context(), token, req.Title, req.Body, req.Tags)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	s.questions.InvalidateAll()
	s.search.InvalidateAll()

	writeJSON(w, http.StatusCreated, question)
}

// requireToken resolves the session token or writes a 401.
func (s *Server) requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := s.manager.Token(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return "", false
	}
	return token, true
}

// parsePage reads the 1-based page parameter, defaulting to 1.
func parsePage(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "invalid page parameter")
		return 0, false
	}
	return page, true
}

// writeUpstreamError maps upstream failures onto client responses. An
// upstream 401/403 means the stored token was revoked: the session is
// cleared so the frontend re-enters the auth flow. Everything else is
// reported as a retryable upstream failure with a generic message; detail
// stays in the logs.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	if stackoverflow.IsAuthError(err) {
		s.manager.InvalidateSession(w)
		logging.Info("API", "Upstream rejected stored token, session cleared")
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	logging.Error("API", err, "Upstream request failed")
	writeJSON(w, http.StatusBadGateway, map[string]any{
		"error":     "the Stack Overflow instance could not be reached",
		"retryable": true,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("API", err, "Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
