package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/rest"

	"marketfeed/pkg/confkit"
	marketpkg "marketfeed/pkg/market"
)

type CacheTTL struct {
	Price    int `json:",default=300"` // seconds
	Envelope int `json:",default=86400"`
}

// Warmup drives the background refresh of hot assets.
type Warmup struct {
	// Spec is a standard five-field cron expression or descriptor such as "@every 5m".
	Spec   string   `json:",optional"`
	Assets []string `json:",optional"`
}

// Enabled reports whether a schedule and at least one asset are set.
func (w Warmup) Enabled() bool {
	return strings.TrimSpace(w.Spec) != "" && len(w.Assets) > 0
}

type Config struct {
	rest.RestConf
	// Env indicates the running environment: test | dev | prod
	Env         string          `json:",default=test"`
	CacheDir    string          `json:",default=data"`
	JournalDir  string          `json:",optional"`
	Freshness   time.Duration   `json:",default=5m"`
	DefaultDays int             `json:",default=30"`
	Redis       redis.RedisConf `json:",optional"`
	TTL         CacheTTL        `json:",optional"`
	Warmup      Warmup          `json:",optional"`

	Market MarketSection

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

// RedisEnabled reports whether the Redis mirror should be wired.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Host) != ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	cfg.CacheDir = confkit.ResolvePath(cfg.baseDir, cfg.CacheDir)
	if cfg.JournalDir != "" {
		cfg.JournalDir = confkit.ResolvePath(cfg.baseDir, cfg.JournalDir)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return errors.New("config: cacheDir is required")
	}
	if c.Freshness <= 0 {
		return errors.New("config: freshness must be positive")
	}
	if c.DefaultDays <= 0 || c.DefaultDays > marketpkg.MaxDays {
		return fmt.Errorf("config: defaultDays must be in [1, %d]", marketpkg.MaxDays)
	}
	if strings.TrimSpace(c.Market.File) == "" {
		return errors.New("config: market.file is required")
	}
	if err := c.validateTTL(); err != nil {
		return err
	}
	return c.validateWarmup()
}

func (c *Config) validateTTL() error {
	if c.TTL.Price < 0 {
		return errors.New("config: ttl.price cannot be negative")
	}
	if c.TTL.Envelope < 0 {
		return errors.New("config: ttl.envelope cannot be negative")
	}
	return nil
}

func (c *Config) validateWarmup() error {
	if strings.TrimSpace(c.Warmup.Spec) == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Warmup.Spec); err != nil {
		return fmt.Errorf("config: warmup.spec %q: %w", c.Warmup.Spec, err)
	}
	return nil
}

func (c *Config) hydrateSections() error {
	if err := c.Market.Hydrate(c.baseDir, marketpkg.LoadConfig); err != nil {
		return fmt.Errorf("load market config: %w", err)
	}
	return nil
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

// MarketSection is the provider configuration loaded from its own file.
type MarketSection = confkit.Section[marketpkg.Config]
