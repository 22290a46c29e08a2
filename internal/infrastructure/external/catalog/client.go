// Package catalog implements the HTTP client for the remote course catalog.
// The client is rate limited and guarded by a circuit breaker. It never
// retries on its own: retry policy belongs to the caller.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/practice"
	"github.com/alem-hub/learntrack/internal/domain/shared"
	"github.com/alem-hub/learntrack/pkg/circuitbreaker"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the catalog client.
type ClientConfig struct {
	// BaseURL is the catalog base URL, e.g. https://catalog.example.com/api
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// RateLimit is the steady request rate per second; Burst the bucket size.
	RateLimit float64
	Burst     int

	// Circuit breaker settings.
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration

	// MaxBodyBytes caps the response body size.
	MaxBodyBytes int64

	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:                 baseURL,
		Timeout:                 10 * time.Second,
		RateLimit:               5,
		Burst:                   10,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeout:      30 * time.Second,
		MaxBodyBytes:            8 << 20,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the remote catalog client. It implements course.Catalog.
type Client struct {
	config     ClientConfig
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	logger     *logger.Logger
}

var _ course.Catalog = (*Client)(nil)

// NewClient creates a new catalog client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 8 << 20
	}

	log := config.Logger.With(logger.Component("catalog_client"))

	breaker := circuitbreaker.New("catalog",
		circuitbreaker.WithFailureThreshold(config.BreakerFailureThreshold),
		circuitbreaker.WithTimeout(config.BreakerOpenTimeout),
		circuitbreaker.WithIsFailure(countsAsOutage),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			CircuitState.Set(float64(to))
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	)

	return &Client{
		config:  config,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		breaker: breaker,
		logger:  log,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// FetchCourse fetches the course descriptor.
func (c *Client) FetchCourse(ctx context.Context, courseID int64) (*course.Descriptor, error) {
	path := "/courses/" + strconv.FormatInt(courseID, 10)

	var dto CourseDTO
	if err := c.doRequest(ctx, "course", path, &dto); err != nil {
		return nil, fmt.Errorf("fetch course %d: %w", courseID, err)
	}
	if dto.ID != courseID {
		return nil, fmt.Errorf("fetch course %d: %w", courseID,
			shared.WrapError("catalog", "FetchCourse", shared.ErrInvalidFormat,
				fmt.Sprintf("catalog returned course %d", dto.ID), shared.ErrCatalogInvalidResponse))
	}

	return CourseFromDTO(&dto), nil
}

// FetchPractice fetches the practice descriptor. A course without practice
// yields nil, nil.
func (c *Client) FetchPractice(ctx context.Context, courseID int64) (*practice.Descriptor, error) {
	params := url.Values{}
	params.Set("courseId", strconv.FormatInt(courseID, 10))
	path := "/practices?" + params.Encode()

	var dtos []PracticeDTO
	if err := c.doRequest(ctx, "practice", path, &dtos); err != nil {
		return nil, fmt.Errorf("fetch practice for course %d: %w", courseID, err)
	}

	return PracticeFromDTOs(dtos), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs one GET through the rate limiter and circuit breaker.
func (c *Client) doRequest(ctx context.Context, endpoint, path string, result interface{}) error {
	start := time.Now()
	defer func() {
		RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		err = mapTransportError(ctx, err)
		RequestsTotal.WithLabelValues(endpoint, resultLabel(err)).Inc()
		return err
	}

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.doSingleRequest(ctx, path, result)
	})
	if circuitbreaker.IsRejection(err) {
		err = shared.WrapError("catalog", "Request", shared.ErrServiceUnavailable, "circuit open", err)
	}

	RequestsTotal.WithLabelValues(endpoint, resultLabel(err)).Inc()
	if err != nil {
		c.logger.Debug("catalog request failed",
			logger.String("path", path),
			logger.Latency(time.Since(start)),
			logger.Err(err),
		)
	}
	return err
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return mapTransportError(ctx, err)
	}

	if resp.StatusCode >= 400 {
		return statusError(resp, body)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogInvalidResponse, err)
	}
	return nil
}

// statusError maps an HTTP error status to a domain error.
func statusError(resp *http.Response, body []byte) error {
	msg := http.StatusText(resp.StatusCode)
	var apiErr ErrorDTO
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.NewDomainError("catalog", "Request", shared.ErrNotFound, msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			msg += " (retry after " + ra + "s)"
		}
		return shared.WrapError("catalog", "Request", shared.ErrRateLimited, msg, shared.ErrCatalogRateLimited)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return shared.WrapError("catalog", "Request", shared.ErrTimeout, msg, shared.ErrCatalogTimeout)
	case resp.StatusCode >= 500:
		return shared.WrapError("catalog", "Request", shared.ErrServiceUnavailable,
			fmt.Sprintf("status %d: %s", resp.StatusCode, msg), shared.ErrCatalogUnavailable)
	default:
		return shared.NewDomainError("catalog", "Request", shared.ErrExternalService,
			fmt.Sprintf("status %d: %s", resp.StatusCode, msg))
	}
}

// mapTransportError classifies errors raised before a response was read.
func mapTransportError(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return shared.WrapError("catalog", "Request", shared.ErrTimeout, "deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &netErr) && netErr.Timeout():
		return shared.WrapError("catalog", "Request", shared.ErrTimeout, "network timeout", err)
	default:
		return shared.WrapError("catalog", "Request", shared.ErrServiceUnavailable, "transport error", err)
	}
}

// countsAsOutage decides which errors trip the breaker: only the ones that
// say the catalog itself is unhealthy.
func countsAsOutage(err error) bool {
	return errors.Is(err, shared.ErrServiceUnavailable) || errors.Is(err, shared.ErrTimeout)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case circuitbreaker.IsRejection(err):
		return "rejected"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, shared.ErrTimeout):
		return "timeout"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(err, shared.ErrInvalidFormat):
		return "invalid"
	default:
		return "error"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// Reset closes the circuit breaker.
func (c *Client) Reset() {
	c.breaker.Reset()
	CircuitState.Set(float64(circuitbreaker.StateClosed))
}
