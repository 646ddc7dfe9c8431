package binance

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"marketfeed/pkg/market/transport"
)

const (
	defaultBaseURL = "https://api.binance.com/api/v3"
	dailyInterval  = "1d"
	maxKlineLimit  = 1000
)

// Client wraps the Binance spot market data endpoints.
type Client struct {
	exec *transport.Executor
}

// NewClient constructs a Binance client backed by exec.
func NewClient(exec *transport.Executor) *Client {
	return &Client{exec: exec}
}

// DailyKlines fetches 1d klines for symbol between start and end.
func (c *Client) DailyKlines(ctx context.Context, symbol string, start, end time.Time) ([]Kline, error) {
	var klines []Kline
	err := c.exec.Get(ctx, transport.Request{
		Path: "/klines",
		Query: url.Values{
			"symbol":    {symbol},
			"interval":  {dailyInterval},
			"startTime": {strconv.FormatInt(start.UnixMilli(), 10)},
			"endTime":   {strconv.FormatInt(end.UnixMilli(), 10)},
			"limit":     {strconv.Itoa(maxKlineLimit)},
		},
	}, &klines)
	return klines, err
}

// Price fetches the latest trade price.
func (c *Client) Price(ctx context.Context, symbol string) (*TickerPrice, error) {
	var out TickerPrice
	if err := c.exec.Get(ctx, transport.Request{Path: "/ticker/price", Query: url.Values{"symbol": {symbol}}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats24h fetches the rolling 24h statistics.
func (c *Client) Stats24h(ctx context.Context, symbol string) (*Ticker24h, error) {
	var out Ticker24h
	if err := c.exec.Get(ctx, transport.Request{Path: "/ticker/24hr", Query: url.Values{"symbol": {symbol}}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
