package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"marketfeed/internal/config"
	"marketfeed/pkg/market"
	"marketfeed/pkg/market/collector"
)

const (
	defaultWorkers = 4
	defaultTimeout = 2 * time.Minute
	stopTimeout    = 10 * time.Second
)

// Collector is the part of collector.Collector the warmer drives.
type Collector interface {
	Collect(ctx context.Context, asset string, days int) (*collector.Result, error)
}

// Outcome is the result of warming one asset.
type Outcome struct {
	Asset  string
	Origin collector.Origin
	Err    error
}

// Warmer refreshes a fixed set of assets on a cron schedule so that API
// reads hit a fresh cache.
type Warmer struct {
	cron      *cron.Cron
	collector Collector
	spec      string
	assets    []string
	days      int
	workers   int
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithWorkers bounds how many assets are collected concurrently.
func WithWorkers(n int) Option {
	return func(w *Warmer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithTimeout bounds a single asset collection.
func WithTimeout(d time.Duration) Option {
	return func(w *Warmer) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewWarmer registers the warmup job. days is forwarded to every Collect call.
func NewWarmer(col Collector, cfg config.Warmup, days int, opts ...Option) (*Warmer, error) {
	if col == nil {
		return nil, fmt.Errorf("scheduler: collector is required")
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("scheduler: warmup needs a spec and at least one asset")
	}
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Warmer{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		collector: col,
		spec:      strings.TrimSpace(cfg.Spec),
		assets:    dedupe(cfg.Assets),
		days:      days,
		workers:   defaultWorkers,
		timeout:   defaultTimeout,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	if _, err := w.cron.AddFunc(w.spec, func() { w.RunOnce(w.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("scheduler: register warmup %q: %w", w.spec, err)
	}
	return w, nil
}

// Start runs the schedule in the background.
func (w *Warmer) Start() {
	w.cron.Start()
	logx.Infof("scheduler: warmup started spec=%q assets=%v", w.spec, w.assets)
}

// Stop cancels in-flight collections and waits for the running job to return.
func (w *Warmer) Stop() {
	w.once.Do(func() {
		w.cancel()
		done := w.cron.Stop()
		select {
		case <-done.Done():
		case <-time.After(stopTimeout):
			logx.Errorf("scheduler: warmup job still running after %s", stopTimeout)
		}
		logx.Info("scheduler: warmup stopped")
	})
}

// RunOnce collects every configured asset and returns one outcome per asset,
// in configuration order.
func (w *Warmer) RunOnce(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, len(w.assets))
	mr.ForEach(func(source chan<- int) {
		for i := range w.assets {
			source <- i
		}
	}, func(i int) {
		outcomes[i] = w.warm(ctx, w.assets[i])
	}, mr.WithWorkers(w.workers))
	return outcomes
}

func (w *Warmer) warm(parent context.Context, asset string) Outcome {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	logger := logx.WithContext(ctx)
	start := time.Now()
	res, err := w.collector.Collect(ctx, asset, w.days)
	elapsed := time.Since(start)
	if err != nil {
		logger.Errorf("scheduler: warm %s failed after %s: %v", asset, elapsed, err)
		return Outcome{Asset: asset, Err: err}
	}
	if res.Stale() {
		logger.Infof("scheduler: warm %s served stale cache from %s", asset, res.Envelope.Source)
	} else {
		logger.Infof("scheduler: warm %s ok origin=%s source=%s took %s", asset, res.Origin, res.Envelope.Source, elapsed)
	}
	return Outcome{Asset: asset, Origin: res.Origin}
}

func dedupe(assets []string) []string {
	seen := make(map[string]struct{}, len(assets))
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		a = market.NormalizeAssetID(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// cronLogger routes robfig/cron diagnostics through logx.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logx.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logx.Errorf("cron: %s %v: %v", msg, keysAndValues, err)
}
