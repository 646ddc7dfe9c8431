package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfeed/internal/config"
	"marketfeed/pkg/market"
	"marketfeed/pkg/market/collector"
)

type fakeCollector struct {
	mu    sync.Mutex
	calls map[string]int
	days  []int
	fail  map[string]error
	stale map[string]bool
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{calls: map[string]int{}, fail: map[string]error{}, stale: map[string]bool{}}
}

func (f *fakeCollector) Collect(ctx context.Context, asset string, days int) (*collector.Result, error) {
	f.mu.Lock()
	f.calls[asset]++
	f.days = append(f.days, days)
	err := f.fail[asset]
	stale := f.stale[asset]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	origin := collector.OriginLive
	if stale {
		origin = collector.OriginStaleCache
	}
	return &collector.Result{
		Envelope: &market.Envelope{AssetID: asset, Source: "coincap"},
		Origin:   origin,
	}, nil
}

func (f *fakeCollector) count(asset string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[asset]
}

func TestNewWarmerValidates(t *testing.T) {
	_, err := NewWarmer(nil, config.Warmup{Spec: "@every 1m", Assets: []string{"bitcoin"}}, 30)
	require.Error(t, err)

	_, err = NewWarmer(newFakeCollector(), config.Warmup{Spec: "@every 1m"}, 30)
	require.Error(t, err)

	_, err = NewWarmer(newFakeCollector(), config.Warmup{Spec: "not a cron", Assets: []string{"bitcoin"}}, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register warmup")
}

func TestRunOnceCollectsEveryAsset(t *testing.T) {
	col := newFakeCollector()
	boom := errors.New("all sources exhausted")
	col.fail["dogecoin"] = boom
	col.stale["ethereum"] = true

	w, err := NewWarmer(col, config.Warmup{
		Spec:   "*/5 * * * *",
		Assets: []string{"Bitcoin", "ethereum", "bitcoin", " ", "dogecoin"},
	}, 14, WithWorkers(2))
	require.NoError(t, err)
	defer w.Stop()

	outcomes := w.RunOnce(context.Background())
	require.Len(t, outcomes, 3)

	assert.Equal(t, Outcome{Asset: "bitcoin", Origin: collector.OriginLive}, outcomes[0])
	assert.Equal(t, Outcome{Asset: "ethereum", Origin: collector.OriginStaleCache}, outcomes[1])
	assert.Equal(t, "dogecoin", outcomes[2].Asset)
	assert.ErrorIs(t, outcomes[2].Err, boom)

	assert.Equal(t, 1, col.count("bitcoin"))
	assert.Equal(t, []int{14, 14, 14}, col.days)
}

func TestWarmerRunsOnSchedule(t *testing.T) {
	col := newFakeCollector()
	w, err := NewWarmer(col, config.Warmup{Spec: "@every 1s", Assets: []string{"bitcoin"}}, 30)
	require.NoError(t, err)

	w.Start()
	require.Eventually(t, func() bool { return col.count("bitcoin") >= 1 }, 5*time.Second, 50*time.Millisecond)
	w.Stop()
	w.Stop()
}

func TestWarmTimeoutPropagates(t *testing.T) {
	col := &blockingCollector{}
	w, err := NewWarmer(col, config.Warmup{Spec: "@every 1m", Assets: []string{"bitcoin"}}, 30, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	outcomes := w.RunOnce(context.Background())
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, context.DeadlineExceeded)
}

type blockingCollector struct{}

func (blockingCollector) Collect(ctx context.Context, asset string, days int) (*collector.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
