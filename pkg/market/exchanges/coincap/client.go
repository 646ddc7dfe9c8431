package coincap

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"marketfeed/pkg/market/transport"
)

const (
	defaultBaseURL = "https://api.coincap.io/v2"
	dailyInterval  = "d1"
)

// Client wraps the CoinCap asset endpoints.
type Client struct {
	exec *transport.Executor
}

// NewClient constructs a CoinCap client backed by exec.
func NewClient(exec *transport.Executor) *Client {
	return &Client{exec: exec}
}

// History fetches daily close prices for id between start and end.
func (c *Client) History(ctx context.Context, id string, start, end time.Time) (*HistoryResponse, error) {
	var out HistoryResponse
	err := c.exec.Get(ctx, transport.Request{
		Path: "/assets/" + url.PathEscape(id) + "/history",
		Query: url.Values{
			"interval": {dailyInterval},
			"start":    {strconv.FormatInt(start.UnixMilli(), 10)},
			"end":      {strconv.FormatInt(end.UnixMilli(), 10)},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Asset fetches the current summary for id.
func (c *Client) Asset(ctx context.Context, id string) (*AssetResponse, error) {
	var out AssetResponse
	if err := c.exec.Get(ctx, transport.Request{Path: "/assets/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
