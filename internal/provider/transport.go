package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Upstream errors.
var (
	ErrCircuitOpen = errors.New("upstream circuit breaker is open")
	ErrNotFound    = errors.New("location not found")
)

// Doer is the subset of *http.Client used by provider clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportConfig controls the resilient upstream transport.
type TransportConfig struct {
	Name            string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// RPS and Burst bound outgoing requests; RPS <= 0 disables limiting.
	RPS   float64
	Burst int

	// TripAfter consecutive failures opens the breaker for OpenTimeout.
	TripAfter   uint32
	OpenTimeout time.Duration
}

// DefaultTransportConfig suits the OpenWeatherMap free tier (60 calls/minute).
func DefaultTransportConfig(name string) TransportConfig {
	return TransportConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		RPS:             1,
		Burst:           5,
		TripAfter:       5,
		OpenTimeout:     60 * time.Second,
	}
}

// Transport retries transient failures with exponential backoff behind a circuit
// breaker and a token-bucket limiter.
type Transport struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	limiter *rate.Limiter
	cfg     TransportConfig
}

// NewTransport builds a Transport from cfg.
func NewTransport(cfg TransportConfig) *Transport {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 60 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	tripAfter := cfg.TripAfter
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
	})

	return &Transport{
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: limiter,
		cfg:     cfg,
	}
}

// Do sends req. Network errors and 5xx responses are retried; any other response
// is returned to the caller, who owns the body.
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.cfg.InitialInterval
	bo.MaxInterval = t.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	var resp *http.Response
	op := func() error {
		if err := t.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
		}

		r, err := t.breaker.Execute(func() (*http.Response, error) {
			r, err := t.client.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
				return nil, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, t.cfg.MaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

// State reports the breaker state, for health output and tests.
func (t *Transport) State() gobreaker.State {
	return t.breaker.State()
}

// ServerError is an upstream 5xx response.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("upstream server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusError is a non-retryable upstream response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// Is makes a 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client Doer, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", redactKey(err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", req.URL.Path, redactKey(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &StatusError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}

	return nil
}

// redactKey masks the appid query parameter in any *url.Error wrapped by err.
func redactKey(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		ue.URL = "<redacted>"
		return err
	}
	q := u.Query()
	if q.Has("appid") {
		q.Set("appid", "REDACTED")
		u.RawQuery = q.Encode()
	}
	ue.URL = u.String()
	return err
}
