package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"marketfeed/pkg/journal"
	"marketfeed/pkg/market"
	"marketfeed/pkg/market/cache"
)

var (
	// ErrEmptyAsset is returned when Collect is called without an asset id.
	ErrEmptyAsset     = errors.New("collector: asset id is required")
	// ErrDaysOutOfRange is returned when more than market.MaxDays are requested.
	ErrDaysOutOfRange = fmt.Errorf("collector: days must not exceed %d", market.MaxDays)
)

// DefaultRunTimeout bounds a shared collection once it no longer follows
// a single caller's context.
const DefaultRunTimeout = 2 * time.Minute

// Origin tells where a result came from.
type Origin string

const (
	OriginFreshCache Origin = "fresh-cache"
	OriginLive       Origin = "live"
	OriginStaleCache Origin = "stale-cache"
)

// Result is a successful collection.
type Result struct {
	Envelope     *market.Envelope
	Origin       Origin
	CollectionID string
}

// Stale reports whether the envelope was served past its freshness window
// because every provider failed.
func (r *Result) Stale() bool { return r != nil && r.Origin == OriginStaleCache }

// Store is the cache the collector reads at entry and writes on success.
type Store interface {
	IsFresh(asset string, maxAge time.Duration) bool
	Read(asset string) (*cache.Record, bool)
	Write(asset string, env *market.Envelope) error
}

// Journal receives one record per finished collection.
type Journal interface {
	WriteCollection(rec *journal.CollectionRecord) (string, error)
}

// Collector walks the degradation ladder: fresh cache, providers in
// priority order, stale cache, failure.
type Collector struct {
	providers   []market.Provider
	store       Store
	publishers  []market.Publisher
	journal     Journal
	freshness   time.Duration
	defaultDays int
	now         func() time.Time
	newID       func() string
	runTimeout  time.Duration
	flight      syncx.SingleFlight

	mu   sync.Mutex
	runs map[string]*sharedRun
	gen  uint64
}

// sharedRun is the context a coalesced collection runs under. It is
// cancelled once every caller waiting on it has gone. flightKey carries a
// generation so a newcomer never attaches to a cancelled run still unwinding.
type sharedRun struct {
	flightKey string
	ctx       context.Context
	cancel    context.CancelFunc
	waiters   int
}

type flightResult struct {
	val any
	err error
}

// Option customises a Collector.
type Option func(*Collector)

// WithFreshness sets how long a cached envelope is served as-is.
func WithFreshness(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.freshness = d
		}
	}
}

// WithDefaultDays sets the history length used when callers pass days <= 0.
func WithDefaultDays(days int) Option {
	return func(c *Collector) {
		if days > 0 {
			c.defaultDays = days
		}
	}
}

// WithPublishers registers sinks notified after each live collection.
func WithPublishers(pubs ...market.Publisher) Option {
	return func(c *Collector) {
		for _, p := range pubs {
			if p != nil {
				c.publishers = append(c.publishers, p)
			}
		}
	}
}

// WithJournal records every collection outcome.
func WithJournal(j Journal) Option {
	return func(c *Collector) {
		c.journal = j
	}
}

// WithRunTimeout bounds each collection run.
func WithRunTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.runTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides collection id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Collector) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New builds a collector over providers, tried in the given order.
func New(providers []market.Provider, store Store, opts ...Option) *Collector {
	c := &Collector{
		providers:   append([]market.Provider(nil), providers...),
		store:       store,
		freshness:   cache.DefaultFreshness,
		defaultDays: market.DefaultDays,
		now:         time.Now,
		newID:       uuid.NewString,
		runTimeout:  DefaultRunTimeout,
		flight:      syncx.NewSingleFlight(),
		runs:        make(map[string]*sharedRun),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the provider names in priority order.
func (c *Collector) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Collect returns an envelope for asset. Concurrent calls for the same asset
// and day count share one run. The shared run outlives any single caller:
// a caller that gives up gets its own ctx.Err() while the others keep
// waiting, and the run is cancelled only when nobody is left.
func (c *Collector) Collect(ctx context.Context, asset string, days int) (*Result, error) {
	asset = market.NormalizeAssetID(asset)
	if asset == "" {
		return nil, ErrEmptyAsset
	}
	if days <= 0 {
		days = c.defaultDays
	}
	if days > market.MaxDays {
		return nil, ErrDaysOutOfRange
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := asset + ":" + strconv.Itoa(days)
	run := c.join(ctx, key)
	defer c.leave(key, run)

	done := make(chan flightResult, 1)
	go func() {
		val, err := c.flight.Do(run.flightKey, func() (any, error) {
			runCtx, cancel := context.WithTimeout(run.ctx, c.runTimeout)
			defer cancel()
			return c.collect(runCtx, asset, days)
		})
		done <- flightResult{val: val, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return res.val.(*Result), nil
	}
}

func (c *Collector) join(ctx context.Context, key string) *sharedRun {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[key]
	if !ok {
		c.gen++
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		run = &sharedRun{
			flightKey: key + "#" + strconv.FormatUint(c.gen, 10),
			ctx:       runCtx,
			cancel:    cancel,
		}
		c.runs[key] = run
	}
	run.waiters++
	return run
}

func (c *Collector) leave(key string, run *sharedRun) {
	c.mu.Lock()
	defer c.mu.Unlock()
	run.waiters--
	if run.waiters > 0 {
		return
	}
	run.cancel()
	if c.runs[key] == run {
		delete(c.runs, key)
	}
}

func (c *Collector) collect(ctx context.Context, asset string, days int) (*Result, error) {
	id := c.newID()
	ctx = logx.ContextWithFields(ctx,
		logx.Field("collection_id", id),
		logx.Field("asset", asset),
	)
	logger := logx.WithContext(ctx)
	started := c.now()

	rec := &journal.CollectionRecord{
		CollectionID:  id,
		Asset:         asset,
		RequestedDays: days,
		StartedAt:     started,
	}
	res, err := c.run(ctx, id, asset, days, rec)
	rec.Duration = c.now().Sub(started)
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Origin = string(res.Origin)
		rec.Source = res.Envelope.Source
		rec.Candles = len(res.Envelope.Candles)
	}
	c.writeJournal(ctx, rec)

	if err != nil {
		logger.Errorf("collection failed: %v", err)
		return nil, err
	}
	logger.Infof("collected %s from %s (%s, %d candles)", asset, res.Envelope.Source, res.Origin, len(res.Envelope.Candles))
	return res, nil
}

func (c *Collector) run(ctx context.Context, id, asset string, days int, rec *journal.CollectionRecord) (*Result, error) {
	logger := logx.WithContext(ctx)

	if c.store.IsFresh(asset, c.freshness) {
		if cached, ok := c.store.Read(asset); ok {
			logger.Debugf("cache fresh for %s, age %s", asset, cached.Envelope.Age(c.now()).Truncate(time.Second))
			return &Result{Envelope: cached.Envelope, Origin: OriginFreshCache, CollectionID: id}, nil
		}
	}

	failures := make([]error, 0, len(c.providers))
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		env, err := c.tryProvider(ctx, provider, asset, days)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			switch {
			case errors.Is(err, market.ErrUnsupported):
				logger.Debugf("%s does not list %s", provider.Name(), asset)
			default:
				logger.Infof("%s failed for %s: %v", provider.Name(), asset, err)
			}
			failures = append(failures, err)
			rec.Failures = append(rec.Failures, err.Error())
			continue
		}

		if err := c.store.Write(asset, env); err != nil {
			logger.Errorf("cache write for %s failed: %v", asset, err)
		}
		c.publish(ctx, env)
		return &Result{Envelope: env, Origin: OriginLive, CollectionID: id}, nil
	}

	if cached, ok := c.store.Read(asset); ok {
		logger.Errorf("all %d providers failed for %s; serving stale cache from %s",
			len(c.providers), asset, cached.Envelope.CollectedAt.Format(time.RFC3339))
		return &Result{Envelope: cached.Envelope, Origin: OriginStaleCache, CollectionID: id}, nil
	}
	return nil, &market.ExhaustedError{Asset: asset, At: c.now().UTC(), Failures: failures}
}

// tryProvider fetches history then snapshot from one provider. Both must
// succeed and the assembled envelope must validate.
func (c *Collector) tryProvider(ctx context.Context, provider market.Provider, asset string, days int) (*market.Envelope, error) {
	name := provider.Name()
	candles, err := provider.FetchHistory(ctx, asset, days)
	if err != nil {
		return nil, err
	}
	snap, err := provider.FetchSnapshot(ctx, asset)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, market.Unavailable(name, errors.New("empty snapshot"))
	}
	snapshot := *snap
	if snapshot.Source == "" {
		snapshot.Source = name
	}
	env, err := market.NewEnvelope(asset, candles, snapshot, name, days, c.now())
	if err != nil {
		return nil, market.Unavailable(name, fmt.Errorf("invalid envelope: %w", err))
	}
	return env, nil
}

func (c *Collector) publish(ctx context.Context, env *market.Envelope) {
	for _, pub := range c.publishers {
		if err := pub.Publish(ctx, env); err != nil {
			logx.WithContext(ctx).Errorf("publish %s: %v", env.AssetID, err)
		}
	}
}

func (c *Collector) writeJournal(ctx context.Context, rec *journal.CollectionRecord) {
	if c.journal == nil {
		return
	}
	if _, err := c.journal.WriteCollection(rec); err != nil {
		logx.WithContext(ctx).Errorf("journal %s: %v", rec.CollectionID, err)
	}
}
