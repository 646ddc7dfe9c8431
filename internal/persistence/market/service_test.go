package marketpersist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis/redistest"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "marketfeed/internal/cache"
	"marketfeed/pkg/market"
)

var errNotFound = errors.New("not found")

func sampleEnvelope(t *testing.T) *market.Envelope {
	t.Helper()
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	day := int64(24 * time.Hour / time.Millisecond)
	start := market.DayStart(at.UnixMilli()) - day
	env, err := market.NewEnvelope("bitcoin", []market.Candle{
		{Timestamp: start, Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Timestamp: start + day, Open: 1.5, High: 2.5, Low: 1, Close: 2},
	}, market.Snapshot{CurrentPrice: 2, Source: "binance"}, "binance", 30, at)
	require.NoError(t, err)
	return env
}

func newRedisCache(t *testing.T) gocache.Cache {
	t.Helper()
	rds := redistest.CreateRedis(t)
	return gocache.NewNode(rds, syncx.NewSingleFlight(), gocache.NewStat("marketfeed-test"), errNotFound)
}

func TestNewServiceWithoutTargets(t *testing.T) {
	require.Nil(t, NewService(Config{}))

	var svc *Service
	require.NoError(t, svc.Publish(context.Background(), sampleEnvelope(t)))
	_, err := svc.Latest(context.Background(), "bitcoin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPublishWritesLatestFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{Dir: dir})
	env := sampleEnvelope(t)

	require.NoError(t, svc.Publish(context.Background(), env))
	require.FileExists(t, filepath.Join(dir, "data_bitcoin.json"))

	got, err := svc.Latest(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, env.Candles, got.Candles)
	require.Equal(t, env.Snapshot, got.Snapshot)

	_, err = svc.Latest(context.Background(), "ethereum")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPublishMirrorsToRedis(t *testing.T) {
	c := newRedisCache(t)
	svc := NewService(Config{Cache: c, TTL: cachekeys.NewTTLSet(60, 600)})
	env := sampleEnvelope(t)

	require.NoError(t, svc.Publish(context.Background(), env))

	var mirrored market.Envelope
	require.NoError(t, c.Get(cachekeys.EnvelopeKey("bitcoin"), &mirrored))
	require.Equal(t, env.Source, mirrored.Source)
	require.Equal(t, env.Candles, mirrored.Candles)

	var price latestPrice
	require.NoError(t, c.Get(cachekeys.PriceLatestKey("bitcoin"), &price))
	require.InDelta(t, 2.0, price.Price, 1e-9)
	require.Equal(t, "binance", price.Source)

	got, err := svc.Latest(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, env.AssetID, got.AssetID)
}

func TestPublishReportsFileErrors(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	svc := NewService(Config{Dir: filepath.Join(blocker, "sub")})
	err := svc.Publish(context.Background(), sampleEnvelope(t))
	require.Error(t, err)
}
