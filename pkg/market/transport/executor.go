package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/pkg/market"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultUserAgent   = "Mozilla/5.0 (compatible; marketfeed/1.0)"
	maxBodyBytes       = 8 << 20
)

// Request is one logical GET against a provider endpoint.
type Request struct {
	Path        string
	Query       url.Values
	MaxAttempts int // zero uses the executor default
}

// Executor performs rate limited GETs with retry for a single provider.
type Executor struct {
	provider    string
	baseURL     string
	httpClient  *http.Client
	limiter     *Limiter
	backoff     Backoff
	timeout     time.Duration
	maxAttempts int
	userAgent   string
	headers     map[string]string
	sleep       func(context.Context, time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Executor) {
		if hc != nil {
			e.httpClient = hc
		}
	}
}

// WithLimiter shares or replaces the provider's rate limiter.
func WithLimiter(l *Limiter) Option {
	return func(e *Executor) {
		if l != nil {
			e.limiter = l
		}
	}
}

// WithBackoff overrides the retry delay schedule.
func WithBackoff(b Backoff) Option {
	return func(e *Executor) {
		e.backoff = b
	}
}

// WithTimeout bounds every attempt.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxAttempts sets the default attempt budget.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(e *Executor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(e *Executor) {
		if key == "" || value == "" {
			return
		}
		if e.headers == nil {
			e.headers = make(map[string]string)
		}
		e.headers[key] = value
	}
}

// WithSleep replaces the backoff sleep, for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Executor) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// NewExecutor builds an executor for provider rooted at baseURL.
func NewExecutor(provider, baseURL string, opts ...Option) *Executor {
	e := &Executor{
		provider:    provider,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: defaultTimeout},
		limiter:     NewLimiter(0),
		backoff:     DefaultBackoff(),
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		userAgent:   defaultUserAgent,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider returns the tag used in errors and logs.
func (e *Executor) Provider() string { return e.provider }

// Get issues req, retrying transient failures, and decodes the JSON body
// into out. Exhausting the attempt budget yields *market.ProviderUnavailableError.
func (e *Executor) Get(ctx context.Context, req Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = e.maxAttempts
	}
	target, err := e.url(req)
	if err != nil {
		return market.Unavailable(e.provider, err)
	}

	logger := logx.WithContext(ctx)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if waited := e.limiter.Acquire(); waited > 0 {
			logger.Debugf("%s: rate limiter held request for %s", e.provider, waited)
		}

		body, err := e.once(ctx, target)
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return &market.ProviderUnavailableError{
					Provider: e.provider,
					Attempts: attempt + 1,
					Cause:    fmt.Errorf("decode response: %w", err),
				}
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err

		if attempt+1 >= attempts || !market.IsRetryable(err) {
			break
		}
		delay := e.backoff.Delay(attempt)
		logger.Infof("%s: attempt %d/%d failed: %v; retrying in %s", e.provider, attempt+1, attempts, err, delay)
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}

	logger.Errorf("%s: giving up on %s after %d attempt(s): %v", e.provider, req.Path, attempts, lastErr)
	return &market.ProviderUnavailableError{Provider: e.provider, Attempts: attempts, Cause: lastErr}
}

func (e *Executor) once(ctx context.Context, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &market.RequestError{Provider: e.provider, Kind: market.ErrTransport, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", e.userAgent)
	for k, v := range e.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &market.RequestError{Provider: e.provider, Kind: market.ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if kind := classifyStatus(resp.StatusCode); kind != nil {
		return nil, &market.RequestError{
			Provider:   e.provider,
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Err:        errors.New(snippet(body)),
		}
	}
	if readErr != nil {
		return nil, &market.RequestError{Provider: e.provider, Kind: market.ErrTransport, Err: fmt.Errorf("read response: %w", readErr)}
	}
	return body, nil
}

func (e *Executor) url(req Request) (string, error) {
	raw := e.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("build url %q: %w", raw, err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String(), nil
}

// classifyStatus maps a status code to a transient error kind; nil means success.
func classifyStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return market.ErrRateLimited
	case code == http.StatusUnavailableForLegalReasons:
		return market.ErrGeoBlocked
	default:
		return market.ErrUpstream
	}
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		s = "empty body"
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
