package binance

import (
	"context"
	"fmt"
	"time"

	"marketfeed/pkg/market"
	"marketfeed/pkg/market/transport"
)

// ProviderType is the registry key for this provider.
const ProviderType = "binance"

const (
	defaultMinInterval = time.Second
	defaultMaxAttempts = 3
)

// Provider serves daily klines and ticker statistics from Binance spot.
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

// ProviderOption customises the Binance provider.
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

// WithSymbols injects the trading pair table.
func WithSymbols(table market.SymbolTable) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.symbols = &table
	}
}

// WithClock overrides the time source used for the kline window.
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

// NewProvider constructs a Binance provider.
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

// FetchHistory implements market.Provider.
func (p *Provider) FetchHistory(ctx context.Context, asset string, days int) ([]market.Candle, error) {
	symbol, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	days = market.ClampDays(days)
	end := p.now().UTC()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	klines, err := p.client.DailyKlines(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, market.Unavailable(p.name, fmt.Errorf("no klines for %s", symbol))
	}
	candles := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		candles = append(candles, market.Candle{
			Timestamp: k.OpenTime,
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
		})
	}
	return market.TakeLast(market.NormalizeDaily(candles), days), nil
}

// FetchSnapshot implements market.Provider. Binance has no market cap, so it is zero.
func (p *Provider) FetchSnapshot(ctx context.Context, asset string) (*market.Snapshot, error) {
	symbol, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	price, err := p.client.Price(ctx, symbol)
	if err != nil {
		return nil, err
	}
	stats, err := p.client.Stats24h(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &market.Snapshot{
		CurrentPrice:          price.Price,
		High24h:               stats.HighPrice,
		Low24h:                stats.LowPrice,
		PriceChangePercent24h: stats.PriceChangePercent,
		MarketCap:             0,
		Volume24h:             stats.Volume,
		Source:                p.name,
	}, nil
}
