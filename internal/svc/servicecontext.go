package svc

import (
	"errors"
	"log"

	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "marketfeed/internal/cache"
	"marketfeed/internal/config"
	marketpersist "marketfeed/internal/persistence/market"
	"marketfeed/pkg/journal"
	marketpkg "marketfeed/pkg/market"
	marketcache "marketfeed/pkg/market/cache"
	"marketfeed/pkg/market/collector"
	_ "marketfeed/pkg/market/exchanges/binance"
	_ "marketfeed/pkg/market/exchanges/coincap"
	_ "marketfeed/pkg/market/exchanges/coingecko"
	_ "marketfeed/pkg/market/exchanges/kraken"
)

var errCacheNotFound = errors.New("marketfeed: cache miss")

type ServiceContext struct {
	Config config.Config

	MarketConfig    *marketpkg.Config
	MarketProviders []marketpkg.Provider

	Store     *marketcache.FileStore
	Publisher *marketpersist.Service
	Journal   *journal.Writer
	Redis     *redis.Redis
	Collector *collector.Collector
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	if c.Market.Value == nil {
		log.Fatalf("market config not loaded (market.file=%q)", c.Market.File)
	}
	svc.MarketConfig = c.Market.Value

	providers, err := svc.MarketConfig.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build market providers: %v", err)
	}
	svc.MarketProviders = providers

	svc.Store = marketcache.NewFileStore(c.CacheDir, marketcache.WithFileName(cachekeys.CacheFileName))

	var mirror gocache.Cache
	if c.RedisEnabled() {
		svc.Redis = redis.MustNewRedis(c.Redis)
		mirror = gocache.NewNode(svc.Redis, syncx.NewSingleFlight(), gocache.NewStat("marketfeed"), errCacheNotFound)
	}
	svc.Publisher = marketpersist.NewService(marketpersist.Config{
		Dir:   c.CacheDir,
		Cache: mirror,
		TTL:   cachekeys.NewTTLSet(c.TTL.Price, c.TTL.Envelope),
	})

	opts := []collector.Option{
		collector.WithFreshness(c.Freshness),
		collector.WithDefaultDays(c.DefaultDays),
	}
	if svc.Publisher != nil {
		opts = append(opts, collector.WithPublishers(svc.Publisher))
	}
	if c.JournalDir != "" {
		svc.Journal = journal.NewWriter(c.JournalDir)
		opts = append(opts, collector.WithJournal(svc.Journal))
	}
	svc.Collector = collector.New(providers, svc.Store, opts...)

	return svc
}
