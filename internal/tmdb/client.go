package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"showmark/internal/services"
)

// ErrNoMatch is returned when TMDB has no series for a query.
var ErrNoMatch = errors.New("tmdb: no matching series")

// Result represents a single TMDB TV match.
type Result struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	Overview         string  `json:"overview"`
	FirstAirDate     string  `json:"first_air_date"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteCount        int64   `json:"vote_count"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Query identifies a series for canonical name lookup. It is also the cache
// key material for memoized lookups, so every field must be JSON encodable.
type Query struct {
	Name   string `json:"name"`
	TMDBID int64  `json:"tmdb_id,omitempty"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP timeout on the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchTV performs a TMDB TV search.
func (c *Client) SearchTV(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)

	var payload Response
	if err := c.getJSON(ctx, "/search/tv", params, "tv search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetTVDetails fetches TV show details by TMDB ID.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*Result, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload Result
	if err := c.getJSON(ctx, fmt.Sprintf("/tv/%d", showID), url.Values{}, "tv details", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CanonicalName returns TMDB's title for the queried series. A TMDB id in the
// query is authoritative; otherwise the search result whose name matches the
// query case-insensitively wins, falling back to the top result.
func (c *Client) CanonicalName(ctx context.Context, q Query) (string, error) {
	if q.TMDBID > 0 {
		details, err := c.GetTVDetails(ctx, q.TMDBID)
		if err != nil {
			return "", services.Wrap(services.ErrLookup, "tmdb", "tv details", "Failed to fetch series details", err)
		}
		if name := strings.TrimSpace(details.Name); name != "" {
			return name, nil
		}
		return "", services.Wrap(services.ErrLookup, "tmdb", "tv details", "Series has no name", ErrNoMatch)
	}

	resp, err := c.SearchTV(ctx, q.Name)
	if err != nil {
		return "", services.Wrap(services.ErrLookup, "tmdb", "tv search", "Failed to search series", err)
	}
	best, ok := BestMatch(q.Name, resp.Results)
	if !ok {
		return "", services.Wrap(services.ErrLookup, "tmdb", "tv search", fmt.Sprintf("No series named %q", q.Name), ErrNoMatch)
	}
	return best.Name, nil
}

// BestMatch selects the result whose name or original name folds equal to
// name, else the first result with a non-empty name.
func BestMatch(name string, results []Result) (Result, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	for _, r := range results {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		if fold.String(r.Name) == want || fold.String(r.OriginalName) == want {
			return r, true
		}
	}
	for _, r := range results {
		if strings.TrimSpace(r.Name) != "" {
			return r, true
		}
	}
	return Result{}, false
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, label string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s returned %d (latency=%v)", label, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", label, err)
	}
	return nil
}
