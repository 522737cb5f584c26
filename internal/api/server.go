package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"stackbridge/internal/config"
	"stackbridge/internal/oauth"
	"stackbridge/internal/pagecache"
	"stackbridge/internal/stackoverflow"
)

// Server is the HTTP surface: the authentication lifecycle endpoints plus
// the Stack Overflow list and write endpoints. List endpoints are served
// through per-type page caches that translate display pages onto upstream
// API pages and deduplicate concurrent fetches.
type Server struct {
	cfg     config.Config
	manager *oauth.Manager
	auth    *oauth.Handler
	client  *stackoverflow.Client
	router  chi.Router

	questions *pagecache.Cache[stackoverflow.Question]
	search    *pagecache.Cache[stackoverflow.SearchItem]
}

// NewServer wires the router, handlers and page caches.
func NewServer(cfg config.Config, manager *oauth.Manager, client *stackoverflow.Client) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		manager: manager,
		auth:    oauth.NewHandler(manager),
		client:  client,
	}

	cacheCfg := pagecache.Config{
		ClientPageSize: cfg.Cache.ClientPageSize,
		ServerPageSize: cfg.Cache.ServerPageSize,
		EntryTTL:       cfg.Cache.EntryTTL.Std(),
		RequestTimeout: cfg.StackOverflow.RequestTimeout.Std(),
	}

	var err error
	s.questions, err = pagecache.New(cacheCfg, s.fetchQuestions)
	if err != nil {
		return nil, fmt.Errorf("failed to create question cache: %w", err)
	}
	s.search, err = pagecache.New(cacheCfg, s.fetchSearch)
	if err != nil {
		s.questions.Stop()
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger)

	r.Get("/health", s.handleHealth)

	r.Get("/auth/start", s.auth.HandleStart)
	r.Get("/callback", s.auth.HandleCallback)
	r.Get("/authStatus", s.auth.HandleStatus)
	r.Post("/auth/token", s.auth.HandleManualToken)
	r.Post("/logout", s.auth.HandleLogout)

	r.Get("/questions", s.handleListQuestions)
	r.Post("/questions", s.handlePostQuestion)
	r.Get("/search", s.handleSearch)
	r.Get("/tags", s.handleListTags)
	r.Get("/users", s.handleListUsers)
	r.Get("/users/me", s.handleMe)

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the cache janitors.
func (s *Server) Close() {
	s.questions.Stop()
	s.search.Stop()
}

// fetchQuestions loads one upstream page of questions. The filter key is the
// canonical encoding produced by questionFilterKey, so decoding it here
// recovers the token and list parameters of the original request.
func (s *Server) fetchQuestions(ctx context.Context, filterKey string, serverPage int) ([]stackoverflow.Question, int, error) {
	v, err := url.ParseQuery(filterKey)
	if err != nil {
		return nil, 0, fmt.Errorf("malformed filter key: %w", err)
	}

	params := stackoverflow.QuestionParams{
		Page:     serverPage,
		PageSize: s.cfg.Cache.ServerPageSize,
		Sort:     v.Get("sort"),
		Order:    v.Get("order"),
	}
	if raw := v.Get("isAnswered"); raw != "" {
		answered := raw == "true"
		params.IsAnswered = &answered
	}

	page, err := s.client.Questions(ctx, v.Get("token"), params)
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.TotalCount, nil
}

// fetchSearch loads one upstream page of search results.
func (s *Server) fetchSearch(ctx context.Context, filterKey string, serverPage int) ([]stackoverflow.SearchItem, int, error) {
	v, err := url.ParseQuery(filterKey)
	if err != nil {
		return nil, 0, fmt.Errorf("malformed filter key: %w", err)
	}

	page, err := s.client.Search(ctx, v.Get("token"), v.Get("query"), serverPage, s.cfg.Cache.ServerPageSize)
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.TotalCount, nil
}

// questionFilterKey canonically encodes the parameters that identify a
// question list. url.Values.Encode sorts keys, so logically equal filters
// produce identical keys.
func questionFilterKey(token string, params stackoverflow.QuestionParams) string {
	v := url.Values{}
	v.Set("token", token)
	v.Set("sort", params.Sort)
	v.Set("order", params.Order)
	if params.IsAnswered != nil {
		v.Set("isAnswered", fmt.Sprintf("%t", *params.IsAnswered))
	}
	return v.Encode()
}

// searchFilterKey canonically encodes a search query for one token.
func searchFilterKey(token, query string) string {
	v := url.Values{}
	v.Set("token", token)
	v.Set("query", query)
	return v.Encode()
}
