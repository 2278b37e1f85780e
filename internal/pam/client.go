package pam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/five82/portfolio-finder/internal/portfolio"
)

const (
	DefaultEndpoint  = "https://api.refinitiv.com/user-data/portfolio-management/v1/portfolios/search"
	DefaultRateLimit = 5 // requests per second

	defaultUserAgent = "portfolio-finder/0.1"
	maxErrorBody     = 64 << 10
)

// Doer sends an HTTP request. *session.Session and *http.Client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Searcher defines the portfolio search operation. It is implemented by
// *Client and can be faked in tests.
type Searcher interface {
	Search(ctx context.Context, criteria Criteria) ([]portfolio.Header, error)
}

// Ensure Client implements Searcher at compile time.
var _ Searcher = (*Client)(nil)

// Client issues portfolio searches through an authenticated session.
type Client struct {
	endpoint  string
	doer      Doer
	limiter   *rate.Limiter
	logger    zerolog.Logger
	userAgent string
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithEndpoint overrides the search endpoint URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables the cap.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a search client that sends requests through doer.
func NewClient(doer Doer, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		doer:      doer,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:    zerolog.Nop(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	PortfolioHeaders *[]*portfolio.Header `json:"portfolioHeaders"`
}

// Search runs one portfolio search. Every failure is returned as *Error.
// There are no retries.
func (c *Client) Search(ctx context.Context, criteria Criteria) ([]portfolio.Header, error) {
	if c == nil || c.doer == nil {
		return nil, normalize(fmt.Errorf("search client has no session"))
	}

	maxCount := criteria.MaxCount
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	params := BuildParams(TypesFor(criteria.Category), criteria.Query, maxCount)

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, normalize(fmt.Errorf("parse endpoint %q: %w", c.endpoint, err))
	}
	reqURL.RawQuery = params.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, normalize(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, normalize(err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	log := c.logger.With().Str("request_id", requestID).Logger()
	log.Debug().
		Str("category", criteria.Category.Label()).
		Str("query", params.Get("query")).
		Int("max_count", maxCount).
		Msg("portfolio search")

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		searchErr := normalize(err)
		log.Warn().Err(err).Stringer("kind", searchErr.Kind).Msg("portfolio search failed")
		return nil, searchErr
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		searchErr := statusError(resp, body)
		log.Warn().Int("status", resp.StatusCode).Stringer("kind", searchErr.Kind).Msg("portfolio search rejected")
		return nil, searchErr
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("decode portfolio search response")
		return nil, normalize(err)
	}
	if payload.PortfolioHeaders == nil {
		log.Warn().Msg("portfolio search response has no portfolioHeaders")
		return nil, normalize(errors.New("response has no portfolioHeaders"))
	}

	// Null elements carry no portfolio and are skipped.
	headers := make([]portfolio.Header, 0, len(*payload.PortfolioHeaders))
	for _, h := range *payload.PortfolioHeaders {
		if h != nil {
			headers = append(headers, *h)
		}
	}
	log.Info().
		Int("count", len(headers)).
		Dur("elapsed", time.Since(start)).
		Msg("portfolio search complete")
	return headers, nil
}
