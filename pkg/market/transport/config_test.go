package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfeed/pkg/market"
)

func TestOptionsFromConfig(t *testing.T) {
	assert.Nil(t, OptionsFromConfig(nil))

	cfg := &market.ProviderConfig{
		Timeout:       3 * time.Second,
		MinInterval:   250 * time.Millisecond,
		MaxAttempts:   5,
		BackoffBase:   time.Second,
		BackoffJitter: 2 * time.Second,
		UserAgent:     "marketfeed-test",
		Headers:       map[string]string{"Accept-Language": "en-US"},
	}
	exec := NewExecutor("cfg", "http://example.invalid", OptionsFromConfig(cfg)...)

	assert.Equal(t, 3*time.Second, exec.timeout)
	assert.Equal(t, 3*time.Second, exec.httpClient.Timeout)
	assert.Equal(t, 5, exec.maxAttempts)
	assert.Equal(t, time.Second, exec.backoff.Base)
	assert.Equal(t, 2*time.Second, exec.backoff.Jitter)
	assert.Equal(t, "marketfeed-test", exec.userAgent)
	assert.Equal(t, "en-US", exec.headers["Accept-Language"])
}

func TestOptionsFromConfigKeepsDefaults(t *testing.T) {
	exec := NewExecutor("cfg", "http://example.invalid", OptionsFromConfig(&market.ProviderConfig{})...)
	assert.Equal(t, defaultTimeout, exec.timeout)
	assert.Equal(t, defaultMaxAttempts, exec.maxAttempts)
	assert.Equal(t, DefaultBackoff(), exec.backoff)
	assert.Equal(t, defaultUserAgent, exec.userAgent)
	assert.Empty(t, exec.headers)
}

func TestConfiguredHeadersAreSent(t *testing.T) {
	var gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := &market.ProviderConfig{Headers: map[string]string{"Accept-Language": "de-DE"}}
	exec := NewExecutor("cfg", server.URL, OptionsFromConfig(cfg)...)
	require.NoError(t, exec.Get(context.Background(), Request{Path: "/ping", MaxAttempts: 1}, nil))
	assert.Equal(t, "de-DE", gotLang)
}
