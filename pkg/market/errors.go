package market

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Transient request outcomes, retried inside a provider's attempt budget.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrGeoBlocked  = errors.New("geo-blocked")
	ErrUpstream    = errors.New("upstream error")
	ErrTransport   = errors.New("transport error")
)

// Provider and collection level failures.
var (
	ErrUnsupported         = errors.New("asset not supported by provider")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrAllSourcesExhausted = errors.New("all sources exhausted")
)

// RequestError describes one failed HTTP attempt.
type RequestError struct {
	Provider   string
	Kind       error // one of the transient sentinels
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UnsupportedError is raised locally when a provider's symbol table has no
// entry for the asset. No request was made.
type UnsupportedError struct {
	Provider string
	Asset    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Asset, ErrUnsupported)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// ProviderUnavailableError means one provider could not serve the request
// within its attempt budget.
type ProviderUnavailableError struct {
	Provider string
	Attempts int
	Cause    error
}

func (e *ProviderUnavailableError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s: %v after %d attempt(s): %v", e.Provider, ErrProviderUnavailable, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, ErrProviderUnavailable, e.Cause)
}

func (e *ProviderUnavailableError) Is(target error) bool { return target == ErrProviderUnavailable }

func (e *ProviderUnavailableError) Unwrap() error { return e.Cause }

// Unavailable wraps cause as a ProviderUnavailableError for provider.
func Unavailable(provider string, cause error) error {
	return &ProviderUnavailableError{Provider: provider, Cause: cause}
}

// ExhaustedError is the terminal failure: every provider failed and no cache
// entry exists.
type ExhaustedError struct {
	Asset    string
	At       time.Time
	Failures []error
}

func (e *ExhaustedError) Error() string {
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, f.Error())
	}
	return fmt.Sprintf("%s: %v at %s [%s]", e.Asset, ErrAllSourcesExhausted, e.At.UTC().Format(time.RFC3339), strings.Join(reasons, "; "))
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrAllSourcesExhausted }

func (e *ExhaustedError) Unwrap() []error { return e.Failures }

// Reason returns a short human readable summary of the provider failures.
func (e *ExhaustedError) Reason() string {
	if len(e.Failures) == 0 {
		return "no providers configured and no cached data"
	}
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, f.Error())
	}
	return strings.Join(reasons, "; ")
}

// IsRetryable reports whether err is a transient request outcome.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrGeoBlocked) ||
		errors.Is(err, ErrUpstream) ||
		errors.Is(err, ErrTransport)
}
