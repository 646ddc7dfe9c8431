package coingecko

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/pkg/market"
	"marketfeed/pkg/market/transport"
)

// ProviderType is the registry key for this provider.
const ProviderType = "coingecko"

const (
	defaultMinInterval = time.Second
	defaultMaxAttempts = 1

	// MinCandles is the fewest history rows accepted from CoinGecko.
	MinCandles = 7
)

// Provider serves native OHLC history and aggregated market data.
type Provider struct {
	name    string
	client  *Client
	symbols market.SymbolTable
}

type providerConfig struct {
	name     string
	baseURL  string
	symbols  *market.SymbolTable
	execOpts []transport.Option
}

// ProviderOption customises the CoinGecko provider.
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

// WithExecutorOptions passes options to the underlying request executor.
func WithExecutorOptions(options ...transport.Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.execOpts = append(cfg.execOpts, options...)
	}
}

// NewProvider constructs a CoinGecko provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{
		name:    ProviderType,
		baseURL: defaultBaseURL,
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

// FetchHistory implements market.Provider. CoinGecko returns sub-daily candles
// for short ranges; they are merged into one candle per UTC day.
func (p *Provider) FetchHistory(ctx context.Context, asset string, days int) ([]market.Candle, error) {
	id, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	days = market.ClampDays(days)
	rows, err := p.client.OHLC(ctx, id, days)
	if err != nil {
		return nil, err
	}
	if len(rows) < MinCandles {
		return nil, market.Unavailable(p.name, fmt.Errorf("only %d ohlc rows for %s, need %d", len(rows), id, MinCandles))
	}

	candles := make([]market.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			logx.WithContext(ctx).Errorf("%s: skipping malformed ohlc row for %s: %v", p.name, id, row)
			continue
		}
		candles = append(candles, market.Candle{
			Timestamp: int64(row[0]),
			Open:      row[1],
			High:      row[2],
			Low:       row[3],
			Close:     row[4],
		})
	}
	return market.TakeLast(market.NormalizeDaily(candles), days), nil
}

// FetchSnapshot implements market.Provider.
func (p *Provider) FetchSnapshot(ctx context.Context, asset string) (*market.Snapshot, error) {
	id, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	entries, err := p.client.Markets(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, market.Unavailable(p.name, fmt.Errorf("no market entry for %s", id))
	}
	entry := entries[0]
	for _, e := range entries {
		if e.ID == id {
			entry = e
			break
		}
	}
	return &market.Snapshot{
		CurrentPrice:          entry.CurrentPrice,
		High24h:               entry.High24h,
		Low24h:                entry.Low24h,
		PriceChangePercent24h: entry.PriceChangePercentage24h,
		MarketCap:             entry.MarketCap,
		Volume24h:             entry.TotalVolume,
		Source:                p.name,
	}, nil
}
