package coingecko

import (
	"context"
	"net/url"
	"strconv"

	"marketfeed/pkg/market/transport"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	vsCurrency     = "usd"
)

// Client wraps the public CoinGecko endpoints.
type Client struct {
	exec *transport.Executor
}

// NewClient constructs a CoinGecko client backed by exec.
func NewClient(exec *transport.Executor) *Client {
	return &Client{exec: exec}
}

// OHLC fetches /coins/{id}/ohlc for the last days days.
func (c *Client) OHLC(ctx context.Context, id string, days int) ([]OHLCRow, error) {
	var rows []OHLCRow
	err := c.exec.Get(ctx, transport.Request{
		Path: "/coins/" + url.PathEscape(id) + "/ohlc",
		Query: url.Values{
			"vs_currency": {vsCurrency},
			"days":        {strconv.Itoa(days)},
		},
	}, &rows)
	return rows, err
}

// Markets fetches the aggregated /coins/markets entry for id.
func (c *Client) Markets(ctx context.Context, id string) ([]MarketEntry, error) {
	var entries []MarketEntry
	err := c.exec.Get(ctx, transport.Request{
		Path: "/coins/markets",
		Query: url.Values{
			"vs_currency": {vsCurrency},
			"ids":         {id},
		},
	}, &entries)
	return entries, err
}
