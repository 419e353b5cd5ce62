// Package routing asks a Bing-style REST routing service for driving times.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/metrics"
	"github.com/JakeFAU/skiresort-ranker/internal/region"
)

// DefaultBaseURL is the driving route endpoint of the Bing Maps REST API.
const DefaultBaseURL = "http://dev.virtualearth.net/REST/V1/Routes/Driving"

var (
	// ErrNoRoute is returned when the service answered but produced no route.
	ErrNoRoute = errors.New("no route found")
	// ErrAPIKey is returned when no API key could be resolved.
	ErrAPIKey = errors.New("routing api key is required")
)

// StatusError reports a non-200 status, either from HTTP or from the
// statusCode field of the response body.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("routing service returned status %d", e.Code)
}

// Config controls the client.
type Config struct {
	BaseURL string
	// APIKey wins over APIKeyFile when both are set.
	APIKey     string
	APIKeyFile string
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration
}

// Client calls the routing service. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Client, reading the key file when no inline key is set.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	key, err := resolveKey(cfg)
	if err != nil {
		return nil, err
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse routing base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    base,
		apiKey:     key,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func resolveKey(cfg Config) (string, error) {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, nil
	}
	if cfg.APIKeyFile == "" {
		return "", ErrAPIKey
	}
	raw, err := os.ReadFile(cfg.APIKeyFile)
	if err != nil {
		return "", fmt.Errorf("read routing api key file: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrAPIKey, cfg.APIKeyFile)
	}
	return key, nil
}

// TravelTime returns the one-way driving time from origin to the place named
// destination.
func (c *Client) TravelTime(ctx context.Context, origin region.Coordinate, destination string) (time.Duration, error) {
	start := time.Now()
	d, err := c.travelTime(ctx, origin, destination)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		c.logger.Debug("routing request failed",
			zap.String("origin", origin.String()),
			zap.String("destination", destination),
			zap.Error(err),
		)
	}
	metrics.ObserveRoutingRequest(outcome, time.Since(start))
	return d, err
}

func (c *Client) travelTime(ctx context.Context, origin region.Coordinate, destination string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(origin, destination), nil)
	if err != nil {
		return 0, fmt.Errorf("build routing request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("routing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{Code: resp.StatusCode}
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode routing response: %w", err)
	}
	if body.StatusCode != http.StatusOK {
		return 0, &StatusError{Code: body.StatusCode}
	}
	if len(body.ResourceSets) == 0 || len(body.ResourceSets[0].Resources) == 0 {
		return 0, ErrNoRoute
	}
	secs := body.ResourceSets[0].Resources[0].TravelDuration
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("invalid travel duration %v", secs)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func (c *Client) buildURL(origin region.Coordinate, destination string) string {
	params := url.Values{}
	params.Set("o", "json")
	params.Set("wp.0", origin.String())
	params.Set("wp.1", destination)
	params.Set("key", c.apiKey)
	return c.baseURL + "?" + params.Encode()
}

type routeResponse struct {
	StatusCode   int           `json:"statusCode"`
	ResourceSets []resourceSet `json:"resourceSets"`
}

type resourceSet struct {
	Resources []routeResource `json:"resources"`
}

type routeResource struct {
	// TravelDuration is in seconds.
	TravelDuration float64 `json:"travelDuration"`
}
