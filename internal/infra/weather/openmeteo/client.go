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

	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	localLayout    = "2006-01-02T15:04"
	dateLayout     = "2006-01-02"
)

// BreakerConfig tunes the circuit breaker wrapped around each strategy.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures uint32
}

// Client issues forecast requests against Open-Meteo.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// forecast performs a single GET and decodes the body into out.
func (c *Client) forecast(ctx context.Context, params url.Values, out any) error {
	endpoint := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.Wrap(apperrors.CodeUpstreamError, "forecast request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return apperrors.Wrap(apperrors.CodeUpstreamError, fmt.Sprintf("forecast request error: status=%d body=%s", resp.StatusCode, string(payload)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.CodeUpstreamParse, "decode forecast response", err)
	}
	return nil
}

func baseParams(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("timezone", "auto")
	return values
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// execute runs fn through the breaker and maps an open breaker to an upstream error.
func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, apperrors.Wrap(apperrors.CodeUpstreamError, cb.Name()+" circuit open", err)
		}
		return zero, err
	}
	return result.(T), nil
}

// parseLocal reads Open-Meteo's zone-less local timestamps. Unparseable values
// yield the zero time.
func parseLocal(value string, offsetSeconds int) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	loc := time.FixedZone("", offsetSeconds)
	for _, layout := range []string{localLayout, time.RFC3339, dateLayout} {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func floatAt(values []*float64, i int) (float64, bool) {
	if i < 0 || i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

func stringAt(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}
