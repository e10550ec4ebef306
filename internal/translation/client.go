package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/quicktrans/internal"
)

// DefaultMaxFailures is the number of consecutive endpoint failures after
// which further requests fail fast
const DefaultMaxFailures = 5

// DefaultCooldown is how long the breaker stays open
const DefaultCooldown = 30 * time.Second

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 1 << 20

// TransportError is a network failure or a non-success HTTP status
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("Status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BreakerSettings configures the circuit breaker around the endpoint. A
// MaxFailures of zero disables the breaker.
type BreakerSettings struct {
	MaxFailures uint32
	Cooldown    time.Duration
}

// DefaultBreakerSettings returns the breaker defaults
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MaxFailures: DefaultMaxFailures, Cooldown: DefaultCooldown}
}

// Client sends translation requests. Requests have no timeout; they end
// when the response ends or the context is cancelled.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a client with the given breaker settings
func NewClient(settings BreakerSettings) *Client {
	c := &Client{
		http: resty.New().SetHeader("User-Agent", "quicktrans/"+internal.Version),
	}
	if settings.MaxFailures > 0 {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "chat-completions",
			MaxRequests: 1,
			Timeout:     settings.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.MaxFailures
			},
			IsSuccessful: endpointHealthy,
		})
	}
	return c
}

// Send posts req and returns the response body on a 2xx status. The caller
// must close the body. Any other status is returned as a *TransportError
// carrying the endpoint's error message when it sent one.
func (c *Client) Send(ctx context.Context, req *Request) (io.ReadCloser, error) {
	if c.breaker == nil {
		return c.post(ctx, req)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &TransportError{
			Message: "endpoint unavailable after repeated failures, try again later",
			Err:     err,
		}
	}
	if err != nil {
		return nil, err
	}
	return body.(io.ReadCloser), nil
}

func (c *Client) post(ctx context.Context, req *Request) (io.ReadCloser, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(req.Body).
		SetDoNotParseResponse(true).
		Post(req.Endpoint)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	body := resp.RawBody()
	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return body, nil
	}

	defer body.Close()
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return nil, &TransportError{StatusCode: status, Message: ErrorMessage(status, data)}
}

// ErrorMessage returns the endpoint's error.message from body, or
// "Status <code>" when the body carries none
func ErrorMessage(status int, body []byte) string {
	var resp openai.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	return fmt.Sprintf("Status %d", status)
}

// endpointHealthy decides what counts against the breaker. Cancellations
// and client errors other than rate limiting say nothing about the
// endpoint's health.
func endpointHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode >= 400 && te.StatusCode < 500 {
		return te.StatusCode != http.StatusTooManyRequests
	}
	return false
}
