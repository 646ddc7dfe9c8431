package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"marketfeed/internal/config"
	marketpkg "marketfeed/pkg/market"
)

func TestConfigSummaryLinesNil(t *testing.T) {
	assert.Equal(t, []string{"Configuration: <nil>"}, ConfigSummaryLines(nil))
}

func TestConfigSummaryLines(t *testing.T) {
	cfg := &config.Config{
		Env:         "dev",
		CacheDir:    "/var/lib/marketfeed",
		Freshness:   5 * time.Minute,
		DefaultDays: 30,
		Redis:       redis.RedisConf{Host: "127.0.0.1:6379", Type: "node"},
		TTL:         config.CacheTTL{Price: 300, Envelope: 86400},
		Warmup:      config.Warmup{Spec: "@every 5m", Assets: []string{"bitcoin", "ethereum"}},
	}
	cfg.Market.File = "etc/market.yaml"
	cfg.Market.Value = &marketpkg.Config{Priority: []string{"coincap", "binance"}}

	lines := ConfigSummaryLines(cfg)
	assert.Contains(t, lines, "Environment: dev")
	assert.Contains(t, lines, "Cache dir: /var/lib/marketfeed")
	assert.Contains(t, lines, "Journal: not configured")
	assert.Contains(t, lines, "Freshness: 5m0s")
	assert.Contains(t, lines, "Redis: configured")
	assert.Contains(t, lines, "TTL (price/envelope): 300s / 86400s")
	assert.Contains(t, lines, "Warmup: @every 5m for bitcoin, ethereum")
	assert.Contains(t, lines, "Market config: etc/market.yaml")
	assert.Contains(t, lines, "Provider priority: coincap -> binance")
}

func TestConfigSummaryLinesInlineMarket(t *testing.T) {
	cfg := &config.Config{JournalDir: "journal"}
	cfg.Market.Value = &marketpkg.Config{}

	lines := ConfigSummaryLines(cfg)
	assert.Contains(t, lines, "Journal: journal")
	assert.Contains(t, lines, "Warmup: disabled")
	assert.Contains(t, lines, "Market config: inline")
	assert.Contains(t, lines, "Redis: not configured")
}
