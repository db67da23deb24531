package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/solecart/pkg/config"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	responseBodyReadLimit int64 = 1 << 20
	errorBodyReadLimit    int64 = 1024

	// IdempotencyHeader carries the mutation id so replays are deduplicated upstream.
	IdempotencyHeader = "Idempotency-Key"
)

var errBaseURLRequired = errors.New("remote base url is required")

// Recorder receives per-call telemetry. *metrics.CartMetrics satisfies it.
type Recorder interface {
	ObserveRemote(endpoint string, status int, duration time.Duration)
	SetBreakerState(name string, state int)
}

// Client performs JSON calls against one storefront REST service, guarded by
// a per-service circuit breaker and a per-call timeout.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[*exchange]
	recorder   Recorder
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(rec Recorder) Option {
	return func(c *Client) {
		c.recorder = rec
	}
}

// New builds a client named after the remote service it talks to.
func New(name string, cfg config.RemoteConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse remote base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	c := &Client{
		name:       name,
		baseURL:    base,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.breaker = gobreaker.NewCircuitBreaker[*exchange](breakerSettings(name, cfg, c.onStateChange))
	return c, nil
}

func breakerSettings(name string, cfg config.RemoteConfig, onChange func(string, gobreaker.State, gobreaker.State)) gobreaker.Settings {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	probes := cfg.BreakerProbes
	if probes == 0 {
		probes = 1
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: probes,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: onChange,
		// Client-side rejections and caller cancellation say nothing about
		// the health of the service.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError
		},
	}
}

func (c *Client) onStateChange(_ string, _ gobreaker.State, to gobreaker.State) {
	if c.recorder != nil {
		c.recorder.SetBreakerState(c.name, int(to))
	}
}

// Name returns the service name used for breaker and metric labels.
func (c *Client) Name() string {
	return c.name
}

// BreakerState reports the breaker's current state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// call describes one request to the remote service.
type call struct {
	endpoint       string
	method         string
	path           string
	token          string
	idempotencyKey string
	body           any

	// bare allows a 2xx body without the success envelope.
	bare bool
}

type exchange struct {
	status int
	body   []byte
}

// Ack is the minimal envelope every storefront endpoint answers with.
type Ack struct {
	Success bool   `json:"success"`
	Offline bool   `json:"offline,omitempty"`
	Message string `json:"message,omitempty"`
}

// do executes the call and decodes the body into out. A 2xx response whose
// envelope reports success:false is returned as a rejection, as is one with
// no success field unless the call allows bare bodies.
func (c *Client) do(ctx context.Context, req call, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "remote client not configured")
	}
	if strings.TrimSpace(req.token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	ex, err := c.breaker.Execute(func() (*exchange, error) {
		return c.roundTrip(callCtx, req)
	})
	status := 0
	if ex != nil {
		status = ex.status
	}
	if c.recorder != nil {
		c.recorder.ObserveRemote(req.endpoint, status, time.Since(start))
	}
	if err != nil {
		return c.classify(ctx, req.endpoint, err)
	}

	var env struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(ex.body, &env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", req.endpoint))
	}
	enveloped := env.Success != nil
	if (enveloped && !*env.Success) || (!enveloped && !req.bare) {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = fmt.Sprintf("%s rejected the request", c.name)
		}
		return pkgerrors.New(pkgerrors.CodeRemoteRejected, msg)
	}
	if out != nil {
		if err := json.Unmarshal(ex.body, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", req.endpoint))
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req call) (*exchange, error) {
	target, err := url.JoinPath(c.baseURL, req.path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.token)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(IdempotencyHeader, req.idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return &exchange{status: resp.StatusCode}, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    messageFromBody(snippet),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return &exchange{status: resp.StatusCode}, fmt.Errorf("read response: %w", err)
	}
	return &exchange{status: resp.StatusCode, body: raw}, nil
}

func messageFromBody(body []byte) string {
	var ack Ack
	if err := json.Unmarshal(body, &ack); err == nil && strings.TrimSpace(ack.Message) != "" {
		return strings.TrimSpace(ack.Message)
	}
	return strings.TrimSpace(string(body))
}

// classify maps a transport, breaker or status failure onto a typed error.
func (c *Client) classify(parent context.Context, endpoint string, err error) error {
	if parentErr := parent.Err(); parentErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeSuperseded, parentErr, fmt.Sprintf("%s cancelled", endpoint))
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "cart service rejected credentials")
		case statusErr.StatusCode == http.StatusNotFound:
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("%s: not found", endpoint))
		case isGatewayStatus(statusErr.StatusCode):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, &UnreachableError{Service: c.name, Err: err}, fmt.Sprintf("%s unavailable", endpoint))
		case statusErr.StatusCode >= http.StatusInternalServerError:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s failed", endpoint))
		default:
			msg := statusErr.Message
			if msg == "" {
				msg = fmt.Sprintf("%s rejected the request", c.name)
			}
			return pkgerrors.Wrap(pkgerrors.CodeRemoteRejected, err, msg)
		}
	}

	if isTransportFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, &UnreachableError{Service: c.name, Err: err}, fmt.Sprintf("%s unreachable", endpoint))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s failed", endpoint))
}

func isGatewayStatus(code int) bool {
	return code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func isTransportFailure(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
