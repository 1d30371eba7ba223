package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/phytocast/internal/domain/forecast"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("open-meteo circuit breaker open")

// callerGone marks a failure caused by the inbound request going away, not by the upstream.
type callerGone struct{ err error }

func (e callerGone) Error() string { return e.err.Error() }
func (e callerGone) Unwrap() error { return e.err }

// Config locates the forecast and tunes the client.
type Config struct {
	BaseURL      string
	Latitude     float64
	Longitude    float64
	Timezone     string
	ForecastDays int
	Timeout      time.Duration
	Breaker      BreakerConfig
}

// BreakerConfig maps onto gobreaker.Settings.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Client fetches the daily forecast from Open-Meteo.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds an API client.
func NewClient(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:      cfg,
		endpoint: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.Breaker.Enabled {
		threshold := cfg.Breaker.FailureThreshold
		if threshold == 0 {
			threshold = 5
		}
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openmeteo",
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				var gone callerGone
				return err == nil || errors.As(err, &gone)
			},
		})
	}
	return c
}

// Fetch retrieves the raw daily forecast payload. The caller parses it.
func (c *Client) Fetch(ctx context.Context) (map[string]any, error) {
	if c.breaker == nil {
		return c.fetch(ctx)
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		raw, err := c.fetch(ctx)
		if err != nil && ctx.Err() != nil {
			return nil, callerGone{err: err}
		}
		return raw, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		var gone callerGone
		if errors.As(err, &gone) {
			return nil, gone.err
		}
		return nil, err
	}
	raw, _ := result.(map[string]any)
	return raw, nil
}

func (c *Client) fetch(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("forecast request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	return raw, nil
}

func (c *Client) requestURL() string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(c.cfg.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(c.cfg.Longitude, 'f', -1, 64))
	values.Set("daily", strings.Join(forecast.DailyFields, ","))
	if tz := strings.TrimSpace(c.cfg.Timezone); tz != "" {
		values.Set("timezone", tz)
	}
	if c.cfg.ForecastDays > 0 {
		values.Set("forecast_days", strconv.Itoa(c.cfg.ForecastDays))
	}
	return c.endpoint + "?" + values.Encode()
}
