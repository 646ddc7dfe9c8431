package transport

import (
	"net/http"

	"marketfeed/pkg/market"
)

// OptionsFromConfig translates a provider's configuration into executor
// options. Zero values keep the executor defaults.
func OptionsFromConfig(cfg *market.ProviderConfig) []Option {
	if cfg == nil {
		return nil
	}
	var opts []Option
	if cfg.MinInterval > 0 {
		opts = append(opts, WithLimiter(NewLimiter(cfg.MinInterval)))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout), WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, WithMaxAttempts(cfg.MaxAttempts))
	}
	if cfg.BackoffBase > 0 || cfg.BackoffJitter > 0 {
		b := DefaultBackoff()
		if cfg.BackoffBase > 0 {
			b.Base = cfg.BackoffBase
		}
		if cfg.BackoffJitter > 0 {
			b.Jitter = cfg.BackoffJitter
		}
		opts = append(opts, WithBackoff(b))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, WithUserAgent(cfg.UserAgent))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, WithHeader(k, v))
	}
	return opts
}
