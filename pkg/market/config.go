package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"marketfeed/pkg/confkit"
)

// Config describes the market data providers and the order they are tried in.
type Config struct {
	Priority  []string                   `yaml:"priority"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig represents configuration for a single market provider.
type ProviderConfig struct {
	Type string `yaml:"type"`

	BaseURL   string            `yaml:"base_url"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"` // static request headers

	TimeoutRaw       string        `yaml:"timeout"`
	Timeout          time.Duration `yaml:"-"`
	MinIntervalRaw   string        `yaml:"min_interval"`
	MinInterval      time.Duration `yaml:"-"`
	BackoffBaseRaw   string        `yaml:"backoff_base"`
	BackoffBase      time.Duration `yaml:"-"`
	BackoffJitterRaw string        `yaml:"backoff_jitter"`
	BackoffJitter    time.Duration `yaml:"-"`
	MaxAttempts      int           `yaml:"max_attempts"`

	// Symbols overrides or extends the built-in table for this provider type.
	Symbols     map[string]string `yaml:"symbols"`
	SymbolTable SymbolTable       `yaml:"-"`
}

// ProviderBuilder constructs a Provider from configuration.
type ProviderBuilder func(name string, cfg *ProviderConfig) (Provider, error)

var (
	providerRegistry   = make(map[string]ProviderBuilder)
	providerRegistryMu sync.RWMutex
)

// RegisterProvider registers a market provider constructor.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()
	builder, ok := providerRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads market configuration from the default project location and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/market.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read market config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal market config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for i, name := range c.Priority {
		c.Priority[i] = strings.TrimSpace(name)
	}
	for name, provider := range c.Providers {
		if provider == nil {
			provider = &ProviderConfig{}
			c.Providers[name] = provider
		}
		provider.expandEnv()
		if err := provider.parseDurations(name); err != nil {
			return err
		}
		provider.SymbolTable = DefaultSymbols(provider.Type).Merge(provider.Symbols)
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.Type = strings.TrimSpace(os.ExpandEnv(p.Type))
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	for k, v := range p.Headers {
		p.Headers[k] = strings.TrimSpace(os.ExpandEnv(v))
	}
	p.UserAgent = strings.TrimSpace(os.ExpandEnv(p.UserAgent))
	p.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.TimeoutRaw))
	p.MinIntervalRaw = strings.TrimSpace(os.ExpandEnv(p.MinIntervalRaw))
	p.BackoffBaseRaw = strings.TrimSpace(os.ExpandEnv(p.BackoffBaseRaw))
	p.BackoffJitterRaw = strings.TrimSpace(os.ExpandEnv(p.BackoffJitterRaw))
}

func (p *ProviderConfig) parseDurations(name string) error {
	fields := []struct {
		key      string
		raw      string
		dst      *time.Duration
		positive bool
	}{
		{"timeout", p.TimeoutRaw, &p.Timeout, true},
		{"min_interval", p.MinIntervalRaw, &p.MinInterval, false},
		{"backoff_base", p.BackoffBaseRaw, &p.BackoffBase, false},
		{"backoff_jitter", p.BackoffJitterRaw, &p.BackoffJitter, false},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("market provider %s: invalid %s %q: %w", name, f.key, f.raw, err)
		}
		if d < 0 || (f.positive && d == 0) {
			return fmt.Errorf("market provider %s: %s must be positive, got %s", name, f.key, d)
		}
		*f.dst = d
	}
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("market config: providers cannot be empty")
	}
	if len(c.Priority) == 0 {
		return fmt.Errorf("market config: priority cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Priority))
	for _, name := range c.Priority {
		if name == "" {
			return fmt.Errorf("market config: priority contains an empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("market config: provider %q listed twice in priority", name)
		}
		seen[name] = struct{}{}
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("market config: priority provider %q not defined", name)
		}
	}
	for name, provider := range c.Providers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("market config: provider name cannot be empty")
		}
		if err := provider.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProviderConfig) validate(name string) error {
	if p == nil {
		return fmt.Errorf("market config: provider %s is nil", name)
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("market config: provider %s must specify type", name)
	}
	if _, ok := lookupProviderBuilder(p.Type); !ok {
		return fmt.Errorf("market config: provider %s has unsupported type %q", name, p.Type)
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("market config: provider %s max_attempts cannot be negative", name)
	}
	return nil
}

// BuildProviders instantiates the providers named in Priority, in that order.
func (c *Config) BuildProviders() ([]Provider, error) {
	result := make([]Provider, 0, len(c.Priority))
	for _, name := range c.Priority {
		providerCfg, ok := c.Providers[name]
		if !ok {
			return nil, fmt.Errorf("market provider %s: not defined", name)
		}
		builder, ok := lookupProviderBuilder(providerCfg.Type)
		if !ok {
			return nil, fmt.Errorf("market provider %s: unsupported type %q", name, providerCfg.Type)
		}
		provider, err := builder(name, providerCfg)
		if err != nil {
			return nil, fmt.Errorf("market provider %s: %w", name, err)
		}
		result = append(result, provider)
	}
	return result, nil
}
