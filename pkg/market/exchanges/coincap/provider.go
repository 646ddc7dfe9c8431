package coincap

import (
	"context"
	"fmt"
	"time"

	"marketfeed/pkg/market"
	"marketfeed/pkg/market/transport"
)

// ProviderType is the registry key for this provider.
const ProviderType = "coincap"

const (
	defaultMinInterval = time.Second
	defaultMaxAttempts = 3
)

// Provider serves close-only daily history and asset summaries from CoinCap.
type Provider struct {
	name    string
	client  *Client
	symbols market.SymbolTable
	now     func() time.Time
}

type providerConfig struct {
	name     string
	baseURL  string
	symbols  *market.SymbolTable
	now      func() time.Time
	execOpts []transport.Option
}

// ProviderOption customises the CoinCap provider.
type ProviderOption func(*providerConfig)

// WithName overrides the provider tag.
func WithName(name string) ProviderOption {
	return func(cfg *providerConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithBaseURL points the provider at another API root.
func WithBaseURL(u string) ProviderOption {
	return func(cfg *providerConfig) {
		if u != "" {
			cfg.baseURL = u
		}
	}
}

// WithSymbols injects the asset id table.
func WithSymbols(table market.SymbolTable) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.symbols = &table
	}
}

// WithClock overrides the time source used for the history window.
func WithClock(now func() time.Time) ProviderOption {
	return func(cfg *providerConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithExecutorOptions passes options to the underlying request executor.
func WithExecutorOptions(options ...transport.Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.execOpts = append(cfg.execOpts, options...)
	}
}

// NewProvider constructs a CoinCap provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{
		name:    ProviderType,
		baseURL: defaultBaseURL,
		now:     time.Now,
		execOpts: []transport.Option{
			transport.WithLimiter(transport.NewLimiter(defaultMinInterval)),
			transport.WithMaxAttempts(defaultMaxAttempts),
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	symbols := market.DefaultSymbols(ProviderType)
	if cfg.symbols != nil {
		symbols = *cfg.symbols
	}
	return &Provider{
		name:    cfg.name,
		client:  NewClient(transport.NewExecutor(cfg.name, cfg.baseURL, cfg.execOpts...)),
		symbols: symbols,
		now:     cfg.now,
	}
}

func init() {
	market.RegisterProvider(ProviderType, func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		return NewProvider(
			WithName(name),
			WithBaseURL(cfg.BaseURL),
			WithSymbols(cfg.SymbolTable),
			WithExecutorOptions(transport.OptionsFromConfig(cfg)...),
		), nil
	})
}

// Name implements market.Provider.
func (p *Provider) Name() string { return p.name }

// FetchHistory implements market.Provider. CoinCap publishes only a daily
// price, so open, high and low are synthesised from the close.
func (p *Provider) FetchHistory(ctx context.Context, asset string, days int) ([]market.Candle, error) {
	id, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	days = market.ClampDays(days)
	end := p.now().UTC()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	resp, err := p.client.History(ctx, id, start, end)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, market.Unavailable(p.name, fmt.Errorf("no history for %s", id))
	}
	candles := make([]market.Candle, 0, len(resp.Data))
	for _, point := range resp.Data {
		if point.PriceUsd <= 0 {
			continue
		}
		candles = append(candles, market.SynthesizeFromClose(point.Time, point.PriceUsd.Float()))
	}
	if len(candles) == 0 {
		return nil, market.Unavailable(p.name, fmt.Errorf("history for %s has no usable prices", id))
	}
	return market.TakeLast(market.NormalizeDaily(candles), days), nil
}

// FetchSnapshot implements market.Provider. CoinCap does not report a 24h
// range, so High24h and Low24h stay zero.
func (p *Provider) FetchSnapshot(ctx context.Context, asset string) (*market.Snapshot, error) {
	id, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	resp, err := p.client.Asset(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, market.Unavailable(p.name, fmt.Errorf("no asset data for %s", id))
	}
	a := resp.Data
	return &market.Snapshot{
		CurrentPrice:          a.PriceUsd.Float(),
		PriceChangePercent24h: a.ChangePercent24Hr.Float(),
		MarketCap:             a.MarketCapUsd.Float(),
		Volume24h:             a.VolumeUsd24Hr.Float(),
		Source:                p.name,
	}, nil
}
