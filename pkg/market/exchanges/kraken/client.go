package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"marketfeed/pkg/market/transport"
)

const (
	defaultBaseURL = "https://api.kraken.com/0/public"
	dailyMinutes   = 1440
)

// Client wraps Kraken's public market endpoints.
type Client struct {
	exec *transport.Executor
}

// NewClient constructs a Kraken client backed by exec.
func NewClient(exec *transport.Executor) *Client {
	return &Client{exec: exec}
}

// DailyOHLC fetches the 1440 minute series for pair. Kraken ignores the
// requested span and returns up to 720 rows.
func (c *Client) DailyOHLC(ctx context.Context, pair string) ([]OHLCRow, error) {
	raw, err := c.pair(ctx, "/OHLC", url.Values{"pair": {pair}, "interval": {strconv.Itoa(dailyMinutes)}}, pair)
	if err != nil {
		return nil, err
	}
	var rows []OHLCRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("kraken: decode ohlc for %s: %w", pair, err)
	}
	return rows, nil
}

// Ticker fetches the ticker for pair.
func (c *Client) Ticker(ctx context.Context, pair string) (*Ticker, error) {
	raw, err := c.pair(ctx, "/Ticker", url.Values{"pair": {pair}}, pair)
	if err != nil {
		return nil, err
	}
	var t Ticker
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("kraken: decode ticker for %s: %w", pair, err)
	}
	return &t, nil
}

func (c *Client) pair(ctx context.Context, path string, query url.Values, pair string) (json.RawMessage, error) {
	var env Envelope
	if err := c.exec.Get(ctx, transport.Request{Path: path, Query: query}, &env); err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}
	raw, ok := env.Pair(pair)
	if !ok {
		return nil, fmt.Errorf("kraken: no result for %s", pair)
	}
	return raw, nil
}
