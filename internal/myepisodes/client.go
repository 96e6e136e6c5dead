package myepisodes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"showmark/internal/logging"
	"showmark/internal/services"
)

const (
	defaultBaseURL      = "http://myepisodes.com"
	defaultTimeout      = 30 * time.Second
	defaultRetryBackoff = 2 * time.Second
	maxBodyBytes        = 4 << 20
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues tracker requests. Cookies set by the login response are kept
// in the client's jar, so one Client corresponds to one tracker session.
type Client struct {
	baseURL       string
	httpClient    HTTPDoer
	limiter       *rate.Limiter
	searchRetries int
	retryBackoff  time.Duration
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default cookie-carrying HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if hc, ok := c.httpClient.(*http.Client); ok && timeout > 0 {
			hc.Timeout = timeout
		}
	}
}

// WithRateLimit paces requests to at most rps per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithSearchRetries retries failed search requests up to n extra times,
// waiting backoff (doubling) between attempts. Login and mark requests are
// never retried.
func WithSearchRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.searchRetries = n
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "myepisodes")
	}
}

// New creates a tracker client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse tracker url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: defaultTimeout, Jar: jar},
		retryBackoff: defaultRetryBackoff,
		logger:       logging.NewComponentLogger(nil, "myepisodes"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Login posts the account credentials and returns the response body for
// classification. Only transport failures are errors here.
func (c *Client) Login(ctx context.Context, username, password string) ([]byte, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("action", "Login")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login.php", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "myepisodes", "login", "Failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "myepisodes", "login", "Request failed", err)
	}
	return body, nil
}

// Search queries the tracker's show search and returns the results page.
func (c *Client) Search(ctx context.Context, showName string) ([]byte, error) {
	params := url.Values{}
	params.Set("tvshow", showName)
	params.Set("action", "Search")
	endpoint := c.baseURL + "/search.php?" + params.Encode()

	delay := c.retryBackoff
	var lastErr error
	for attempt := 0; attempt <= c.searchRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying tracker search",
				logging.Int("attempt", attempt+1),
				logging.Duration("backoff", delay),
				logging.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, services.Wrap(services.ErrTransport, "myepisodes", "search", "Cancelled", ctx.Err())
			}
			delay *= 2
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrTransport, "myepisodes", "search", "Failed to build request", err)
		}
		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, services.Wrap(services.ErrTransport, "myepisodes", "search", fmt.Sprintf("Search for %q failed", showName), lastErr)
}

// MarkAcquired flags an episode as acquired (not watched). The response body
// carries no reliable status, so only transport failures are reported.
func (c *Client) MarkAcquired(ctx context.Context, showID string, season, episode int) error {
	if strings.TrimSpace(showID) == "" {
		return services.Wrap(services.ErrInvalidInput, "myepisodes", "mark", "Show id is empty", nil)
	}
	params := url.Values{}
	params.Set("action", "Update")
	params.Set("showid", showID)
	params.Set("season", strconv.Itoa(season))
	params.Set("episode", strconv.Itoa(episode))
	params.Set("seen", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/myshows.php?"+params.Encode(), nil)
	if err != nil {
		return services.Wrap(services.ErrTransport, "myepisodes", "mark", "Failed to build request", err)
	}
	if _, err := c.do(req); err != nil {
		return services.Wrap(services.ErrTransport, "myepisodes", "mark", "Request failed", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: req.URL.Path}
	}
	c.logger.Debug("tracker request complete",
		logging.String("path", req.URL.Path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency))
	return body, nil
}

// StatusError reports an HTTP error status from the tracker.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tracker %s returned %d", e.Path, e.StatusCode)
}

// IsStatus reports whether err carries the given tracker HTTP status.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
