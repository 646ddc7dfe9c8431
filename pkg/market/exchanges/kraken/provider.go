package kraken

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/pkg/market"
	"marketfeed/pkg/market/transport"
)

// ProviderType is the registry key for this provider.
const ProviderType = "kraken"

const (
	defaultMinInterval = time.Second
	defaultMaxAttempts = 3
)

// Provider serves daily OHLC and ticker data from Kraken.
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

// ProviderOption customises the Kraken provider.
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

// WithSymbols injects the pair code table.
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

// NewProvider constructs a Kraken provider.
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

// FetchHistory implements market.Provider. Kraken returns its full window
// regardless of days; the most recent days candles are kept.
func (p *Provider) FetchHistory(ctx context.Context, asset string, days int) ([]market.Candle, error) {
	pair, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	days = market.ClampDays(days)
	rows, err := p.client.DailyOHLC(ctx, pair)
	if err != nil {
		return nil, p.wrap(err)
	}
	if len(rows) == 0 {
		return nil, market.Unavailable(p.name, fmt.Errorf("no ohlc rows for %s", pair))
	}
	candles := make([]market.Candle, 0, len(rows))
	for _, row := range rows {
		candles = append(candles, market.Candle{
			Timestamp: row.Time * 1000,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
		})
	}
	return market.TakeLast(market.NormalizeDaily(candles), days), nil
}

// FetchSnapshot implements market.Provider. The 24h change is measured
// against today's open.
func (p *Provider) FetchSnapshot(ctx context.Context, asset string) (*market.Snapshot, error) {
	pair, ok := p.symbols.Lookup(asset)
	if !ok {
		return nil, &market.UnsupportedError{Provider: p.name, Asset: asset}
	}
	t, err := p.client.Ticker(ctx, pair)
	if err != nil {
		return nil, p.wrap(err)
	}
	last, err := index(t.C, 0)
	if err != nil {
		return nil, market.Unavailable(p.name, err)
	}
	open, err := strconv.ParseFloat(t.O, 64)
	if err != nil {
		return nil, market.Unavailable(p.name, fmt.Errorf("kraken: open price %q: %w", t.O, err))
	}
	high := p.optional(ctx, pair, "high", t.H, 0)
	low := p.optional(ctx, pair, "low", t.L, 0)
	volume := p.optional(ctx, pair, "volume", t.V, 1)

	var change float64
	if open > 0 {
		change = (last - open) / open * 100
	}
	return &market.Snapshot{
		CurrentPrice:          last,
		High24h:               high,
		Low24h:                low,
		PriceChangePercent24h: change,
		Volume24h:             volume,
		Source:                p.name,
	}, nil
}

// optional reads a secondary ticker field. A malformed value is logged and
// reported as 0 rather than failing the snapshot.
func (p *Provider) optional(ctx context.Context, pair, field string, values []string, i int) float64 {
	v, err := index(values, i)
	if err != nil {
		logx.WithContext(ctx).Errorf("%s: malformed %s for %s: %v", p.name, field, pair, err)
		return 0
	}
	return v
}

// wrap turns payload level failures into ProviderUnavailable; executor
// errors already carry that classification.
func (p *Provider) wrap(err error) error {
	if errors.Is(err, market.ErrProviderUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return market.Unavailable(p.name, err)
}
