package stackoverflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stackbridge/pkg/logging"
)

const (
	// defaultTimeout bounds every upstream round trip. A request that never
	// resolves would otherwise pin its page-cache entry in a pending state.
	defaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an upstream error body is retained for
	// logging.
	maxErrorBody = 2048
)

// Sort orders accepted for question lists. Anything else is rejected before
// it reaches the upstream API.
const (
	SortActivity = "activity"
	SortCreation = "creation"
	SortScore    = "score"
)

// Config configures the upstream API client.
type Config struct {
	// BaseURL is the API root, including the version path segment
	// (e.g. "https://api.stackoverflowteams.com/api/v3").
	BaseURL string

	// TeamName scopes requests to /teams/{name}. Only supported by API v3.
	TeamName string

	// APIVersion is the upstream API version ("v3" or "v2.3"). Team scoping
	// against v2.3 is rejected at construction: the two versions have
	// incompatible authentication contracts.
	APIVersion string

	// Timeout bounds each request. Zero means defaultTimeout.
	Timeout time.Duration
}

// Client executes typed requests against the Stack Overflow for Teams REST
// API. It attaches the caller-supplied bearer token and never retries;
// retry policy belongs to the caller.
type Client struct {
	baseURL    string
	teamName   string
	httpClient *http.Client
}

// NewClient validates the configuration and creates a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("stackoverflow: baseURL is required")
	}
	if cfg.TeamName != "" && cfg.APIVersion != "" && cfg.APIVersion != "v3" {
		return nil, fmt.Errorf("stackoverflow: team scoping requires API v3, got %q", cfg.APIVersion)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		teamName:   cfg.TeamName,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// endpointURL builds the full URL for an endpoint, inserting the
// /teams/{name} prefix for team-scoped deployments.
func (c *Client) endpointURL(path string, query url.Values) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	if c.teamName != "" {
		b.WriteString("/teams/")
		b.WriteString(url.PathEscape(c.teamName))
	}
	b.WriteString(path)
	if len(query) > 0 {
		b.WriteString("?")
		b.WriteString(query.Encode())
	}
	return b.String()
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, token, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, token, path, query, nil, out)
}

// Post performs a POST request with a JSON body and decodes the response
// into out.
func (c *Client) Post(ctx context.Context, token, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, token, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, token, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(path, query), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		// Body may contain upstream error detail; keep it server-side.
		logging.Debug("Upstream", "%s %s failed: status=%d body=%s", method, path, resp.StatusCode, snippet)
		return &APIError{StatusCode: resp.StatusCode, Body: snippet}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse upstream response: %w", err)
	}
	return nil
}

// QuestionParams are the validated, whitelisted parameters for question lists.
type QuestionParams struct {
	Page       int
	PageSize   int
	Sort       string
	Order      string
	IsAnswered *bool
}

// Validate checks sort and order against the accepted values.
func (p QuestionParams) Validate() error {
	switch p.Sort {
	case "", SortActivity, SortCreation, SortScore:
	default:
		return fmt.Errorf("unsupported sort %q (want activity, creation or score)", p.Sort)
	}
	switch p.Order {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("unsupported order %q (want asc or desc)", p.Order)
	}
	return nil
}

func (p QuestionParams) query() url.Values {
	q := url.Values{}
	sort := p.Sort
	if sort == "" {
		sort = SortCreation
	}
	order := p.Order
	if order == "" {
		order = "desc"
	}
	q.Set("sort", sort)
	q.Set("order", order)
	if p.IsAnswered != nil {
		q.Set("isAnswered", strconv.FormatBool(*p.IsAnswered))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	return q
}

// Questions fetches one server page of questions.
func (c *Client) Questions(ctx context.Context, token string, params QuestionParams) (*Page[Question], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var page Page[Question]
	if err := c.Get(ctx, token, "/questions", params.query(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Tags fetches tags sorted by post count, optionally filtered by a partial
// name match.
func (c *Client) Tags(ctx context.Context, token, partialName string) (*Page[Tag], error) {
	q := url.Values{}
	q.Set("sort", "postCount")
	q.Set("order", "desc")
	if partialName != "" {
		q.Set("partialName", partialName)
	}
	var page Page[Tag]
	if err := c.Get(ctx, token, "/tags", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Users fetches one server page of team members.
func (c *Client) Users(ctx context.Context, token string, pageNum int) (*Page[User], error) {
	q := url.Values{}
	if pageNum > 0 {
		q.Set("page", strconv.Itoa(pageNum))
	}
	var page Page[User]
	if err := c.Get(ctx, token, "/users", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Me fetches the profile belonging to the bearer token. A successful
// response is what validates a token; a 401/403 means the token is not
// accepted by the upstream.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.Get(ctx, token, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PostQuestion creates a new question.
func (c *Client) PostQuestion(ctx context.Context, token, title, body string, tags []string) (*Question, error) {
	payload := map[string]any{
		"title": title,
		"body":  body,
		"tags":  tags,
	}
	var question Question
	if err := c.Post(ctx, token, "/questions", payload, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

// Search maps a free-text query plus server page number onto the upstream
// search endpoint.
func (c *Client) Search(ctx context.Context, token, query string, pageNum, pageSize int) (*Page[SearchItem], error) {
	q := url.Values{}
	q.Set("query", query)
	if pageNum > 0 {
		q.Set("page", strconv.Itoa(pageNum))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	var page Page[SearchItem]
	if err := c.Get(ctx, token, "/search", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
