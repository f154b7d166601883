package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"mlb_standings/ingestion/internal/metrics"
	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultLeagueIDs covers the American (103) and National (104) leagues
	DefaultLeagueIDs = "103,104"

	standingsEndpoint = "standings"
)

// Client is the MLB Stats API client.
// Calls are serialized and spaced at least throttle apart.
type Client struct {
	baseURL    string
	leagueIDs  string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration

	throttle time.Duration
	mu       sync.Mutex
	lastCall time.Time
}

// Option configures a Client
type Option func(*Client)

// WithLeagueIDs sets the leagueId query parameter
func WithLeagueIDs(ids string) Option {
	return func(c *Client) {
		if ids != "" {
			c.leagueIDs = ids
		}
	}
}

// WithThrottle sets the minimum delay between consecutive requests
func WithThrottle(d time.Duration) Option {
	return func(c *Client) { c.throttle = d }
}

// WithRetries sets the retry count and the base backoff delay
func WithRetries(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// NewClient creates a new MLB Stats API client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		leagueIDs:  DefaultLeagueIDs,
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		throttle:   300 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the throttle interval since the previous call has elapsed
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.throttle > 0 && !c.lastCall.IsZero() {
		if remaining := c.throttle - time.Since(c.lastCall); remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}
	c.lastCall = time.Now()
	return nil
}

// get performs a GET request to the Stats API with retry logic and throttling
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "mlb-standings-ingestion/1.0")

		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}

		log.Debug().
			Str("url", req.URL.String()).
			Int("attempt", attempt+1).
			Msg("Making API request")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordAPICall(path, "network_error", time.Since(start).Seconds())
			lastErr = fmt.Errorf("API request failed: %w", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		metrics.RecordAPICall(path, fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			log.Debug().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("size", len(body)).
				Msg("API request successful")
			return body, nil

		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, lastErr

		default:
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}

// FetchStandings fetches the regular season division standings as of date.
// An empty result means the provider had nothing for that day.
func (c *Client) FetchStandings(ctx context.Context, date models.Date) (models.RawStandings, error) {
	log.Debug().Str("date", date.String()).Msg("Fetching standings")

	body, err := c.get(ctx, standingsEndpoint, map[string]string{
		"leagueId":       c.leagueIDs,
		"date":           date.Format(models.StatsAPILayout),
		"standingsTypes": "regularSeason",
		"hydrate":        "team(division)",
	})
	if err != nil {
		metrics.RecordError("client", "fetch_standings")
		return nil, fmt.Errorf("failed to fetch standings for %s: %w", date, err)
	}

	var resp models.StandingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordError("client", "decode_standings")
		return nil, fmt.Errorf("failed to unmarshal standings for %s: %w", date, err)
	}

	return resp.ToRawStandings(), nil
}
