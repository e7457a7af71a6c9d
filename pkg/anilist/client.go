package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// DefaultURL is the public AniList GraphQL endpoint.
const DefaultURL = "https://graphql.anilist.co"

// Service is the interface the pipeline consumes. It exists so tests and the
// orchestrator can swap the HTTP client for a mock.
type Service interface {
	Search(ctx context.Context, query Query) ([]Media, error)
}

// Client is the HTTP implementation of Service. A circuit breaker sits in
// front of the endpoint so a dead upstream fails fast instead of eating the
// request timeout on every call. No retries: a single failed attempt falls
// through to the caller's fallback.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a metadata service client. timeout bounds each request;
// zero means 10 seconds.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "anilist",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("metadata service breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// Search executes the query and returns the media records in upstream order.
func (c *Client) Search(ctx context.Context, query Query) ([]Media, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.search(ctx, query)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit open", ErrService)
		}
		return nil, err
	}
	return result.([]Media), nil
}

func (c *Client) search(ctx context.Context, query Query) ([]Media, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding query: %v", ErrService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: malformed body: %v", ErrService, err)
	}

	if len(page.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrService, page.Errors[0].Message)
	}
	if page.Data == nil {
		return nil, fmt.Errorf("%w: response missing data", ErrService)
	}

	return page.Data.Page.Media, nil
}
