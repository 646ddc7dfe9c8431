package kraken

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx/logtest"

	"marketfeed/pkg/market"
	"marketfeed/pkg/market/transport"
)

func ohlcBody(pair string, start time.Time, n int) string {
	rows := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * 24 * time.Hour).Unix()
		price := 1000 + float64(i)
		rows = append(rows, fmt.Sprintf(`[%d,"%.1f","%.1f","%.1f","%.1f","%.1f","12.5",42]`,
			ts, price, price+10, price-10, price+2, price+1))
	}
	return fmt.Sprintf(`{"error":[],"result":{"%s":[%s],"last":%d}}`, pair, strings.Join(rows, ","), start.Unix())
}

func newMockProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	provider := NewProvider(
		WithBaseURL(server.URL),
		WithExecutorOptions(
			transport.WithLimiter(transport.NewLimiter(0)),
			transport.WithSleep(func(context.Context, time.Duration) error { return nil }),
		),
	)
	return provider, &calls
}

func TestProviderFetchHistoryTruncatesLongSeries(t *testing.T) {
	start := time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)
	var gotPair, gotInterval string
	provider, _ := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPair = r.URL.Query().Get("pair")
		gotInterval = r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(ohlcBody("XXBTZUSD", start, 1000)))
	})

	candles, err := provider.FetchHistory(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Equal(t, "XXBTZUSD", gotPair)
	require.Equal(t, "1440", gotInterval)
	require.Len(t, candles, 7)

	lastDay := start.Add(999 * 24 * time.Hour)
	require.Equal(t, lastDay.UnixMilli(), candles[6].Timestamp)
	require.Equal(t, lastDay.Add(-6*24*time.Hour).UnixMilli(), candles[0].Timestamp)
	require.InDelta(t, 1999.0, candles[6].Open, 1e-9)
	require.InDelta(t, 2009.0, candles[6].High, 1e-9)
	require.InDelta(t, 1989.0, candles[6].Low, 1e-9)
	require.InDelta(t, 2001.0, candles[6].Close, 1e-9)
}

func TestProviderFetchHistoryShortSeries(t *testing.T) {
	provider, _ := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ohlcBody("SOLUSD", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 5)))
	})

	candles, err := provider.FetchHistory(context.Background(), "solana", 30)
	require.NoError(t, err)
	require.Len(t, candles, 5)
}

func TestProviderFetchHistoryAliasedPair(t *testing.T) {
	provider, _ := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ohlcBody("XBTUSD", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 10)))
	})

	candles, err := provider.FetchHistory(context.Background(), "bitcoin", 30)
	require.NoError(t, err)
	require.Len(t, candles, 10)
}

func TestProviderErrorArray(t *testing.T) {
	provider, calls := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	})

	_, err := provider.FetchHistory(context.Background(), "bitcoin", 30)
	require.ErrorIs(t, err, market.ErrProviderUnavailable)
	require.Contains(t, err.Error(), "Unknown asset pair")
	require.EqualValues(t, 1, atomic.LoadInt32(calls))

	_, err = provider.FetchSnapshot(context.Background(), "bitcoin")
	require.ErrorIs(t, err, market.ErrProviderUnavailable)
}

func TestProviderFetchSnapshot(t *testing.T) {
	var gotPath string
	provider, _ := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"error":[],"result":{"XETHZUSD":{
			"a":["3010.0","1","1.000"],"b":["3009.9","2","2.000"],
			"c":["3010.00","0.5"],"v":["1200.5","4500.25"],"p":["3000","2990"],
			"t":[100,400],"l":["2950.00","2900.00"],"h":["3050.00","3080.00"],"o":"2900.00"}}}`))
	})

	snap, err := provider.FetchSnapshot(context.Background(), "ethereum")
	require.NoError(t, err)
	require.Equal(t, "/Ticker", gotPath)
	require.InDelta(t, 3010.0, snap.CurrentPrice, 1e-9)
	require.InDelta(t, 3050.0, snap.High24h, 1e-9)
	require.InDelta(t, 2950.0, snap.Low24h, 1e-9)
	require.InDelta(t, 4500.25, snap.Volume24h, 1e-9)
	require.InDelta(t, (3010.0-2900.0)/2900.0*100, snap.PriceChangePercent24h, 1e-9)
	require.Zero(t, snap.MarketCap)
	require.Equal(t, ProviderType, snap.Source)
}

func TestProviderFetchSnapshotLogsMalformedFields(t *testing.T) {
	logs := logtest.NewCollector(t)
	provider, _ := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":[],"result":{"XETHZUSD":{
			"c":["3010.00","0.5"],"v":["1200.5"],"l":["n/a"],"h":["3050.00"],"o":"2900.00"}}}`))
	})

	snap, err := provider.FetchSnapshot(context.Background(), "ethereum")
	require.NoError(t, err)
	require.InDelta(t, 3050.0, snap.High24h, 1e-9)
	require.Zero(t, snap.Low24h)
	require.Zero(t, snap.Volume24h)
	require.Contains(t, logs.String(), "malformed low for XETHZUSD")
	require.Contains(t, logs.String(), "malformed volume for XETHZUSD")
}

func TestProviderUnsupportedAsset(t *testing.T) {
	provider, calls := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := provider.FetchSnapshot(context.Background(), "kaspa")
	require.ErrorIs(t, err, market.ErrUnsupported)
	require.Zero(t, atomic.LoadInt32(calls))
}

func TestProviderServerErrorRetries(t *testing.T) {
	provider, calls := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := provider.FetchHistory(context.Background(), "bitcoin", 30)
	require.ErrorIs(t, err, market.ErrUpstream)
	require.ErrorIs(t, err, market.ErrProviderUnavailable)
	require.EqualValues(t, defaultMaxAttempts, atomic.LoadInt32(calls))
}
