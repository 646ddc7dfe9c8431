package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/pathvar"
	"go.uber.org/mock/gomock"

	marketpersist "marketfeed/internal/persistence/market"
	"marketfeed/internal/svc"
	"marketfeed/internal/types"
	marketpkg "marketfeed/pkg/market"
	marketcache "marketfeed/pkg/market/cache"
	"marketfeed/pkg/market/collector"
	"marketfeed/pkg/market/mock"
)

func dailyCandles(n int) []marketpkg.Candle {
	out := make([]marketpkg.Candle, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := range out {
		out[i] = marketpkg.Candle{Timestamp: start + int64(i)*86_400_000, Open: 100, High: 110, Low: 90, Close: 105}
	}
	return out
}

func newTestContext(t *testing.T, providers ...marketpkg.Provider) *svc.ServiceContext {
	t.Helper()
	dir := t.TempDir()
	publisher := marketpersist.NewService(marketpersist.Config{Dir: dir})
	store := marketcache.NewFileStore(dir)
	return &svc.ServiceContext{
		Store:     store,
		Publisher: publisher,
		Collector: collector.New(providers, store, collector.WithPublishers(publisher)),
	}
}

func get(h http.HandlerFunc, target string, vars map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if vars != nil {
		req = pathvar.WithVars(req, vars)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestMarketHandlerLive(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mock.NewMockProvider(ctrl)
	p.EXPECT().Name().Return("binance").AnyTimes()
	p.EXPECT().FetchHistory(gomock.Any(), "bitcoin", 7).Return(dailyCandles(7), nil)
	p.EXPECT().FetchSnapshot(gomock.Any(), "bitcoin").Return(&marketpkg.Snapshot{CurrentPrice: 105}, nil)

	svcCtx := newTestContext(t, p)
	rec := get(MarketHandler(svcCtx), "/api/market/Bitcoin?days=7", map[string]string{"coin": "Bitcoin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp types.MarketResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bitcoin", resp.AssetID)
	assert.Equal(t, "binance", resp.Source)
	assert.Equal(t, "binance", resp.Snapshot.Source)
	assert.Equal(t, 7, resp.TotalDays)
	assert.Equal(t, string(collector.OriginLive), resp.Origin)
	assert.False(t, resp.Stale)
	assert.NotEmpty(t, resp.CollectionID)

	latest := get(LatestHandler(svcCtx), "/api/market/bitcoin/latest", map[string]string{"coin": "bitcoin"})
	require.Equal(t, http.StatusOK, latest.Code, latest.Body.String())
	var env marketpkg.Envelope
	require.NoError(t, json.Unmarshal(latest.Body.Bytes(), &env))
	assert.Equal(t, "binance", env.Source)
	assert.Len(t, env.Candles, 7)
}

func TestMarketHandlerExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mock.NewMockProvider(ctrl)
	p.EXPECT().Name().Return("kraken").AnyTimes()
	p.EXPECT().FetchHistory(gomock.Any(), "kaspa", gomock.Any()).
		Return(nil, &marketpkg.UnsupportedError{Provider: "kraken", Asset: "kaspa"})

	rec := get(MarketHandler(newTestContext(t, p)), "/api/market/kaspa", map[string]string{"coin": "kaspa"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "all_sources_exhausted", body.Error)
	assert.Contains(t, body.Reason, "kraken: kaspa")
	_, err := time.Parse(time.RFC3339, body.Timestamp)
	assert.NoError(t, err)
}

func TestMarketHandlerRejectsBadDays(t *testing.T) {
	for _, days := range []string{"abc", "1001", "9223372036854775807"} {
		t.Run(days, func(t *testing.T) {
			rec := get(MarketHandler(newTestContext(t)), "/api/market/bitcoin?days="+days, map[string]string{"coin": "bitcoin"})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLatestHandlerNotFound(t *testing.T) {
	rec := get(LatestHandler(newTestContext(t)), "/api/market/bitcoin/latest", map[string]string{"coin": "bitcoin"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error)
}

func TestProvidersHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := mock.NewMockProvider(ctrl)
	a.EXPECT().Name().Return("coincap").AnyTimes()
	b := mock.NewMockProvider(ctrl)
	b.EXPECT().Name().Return("kraken").AnyTimes()

	rec := get(ProvidersHandler(newTestContext(t, a, b)), "/api/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"priority":["coincap","kraken"]}`, rec.Body.String())
}

func TestWriteCollectErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"empty asset", collector.ErrEmptyAsset, http.StatusBadRequest},
		{"too many days", collector.ErrDaysOutOfRange, http.StatusBadRequest},
		{"cancelled", context.Canceled, http.StatusGatewayTimeout},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeCollectError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
