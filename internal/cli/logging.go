package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/internal/config"
	"marketfeed/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Cache dir: %s", cfg.CacheDir),
		fmt.Sprintf("Journal: %s", pathOrPresence(cfg.JournalDir)),
		fmt.Sprintf("Freshness: %s", cfg.Freshness),
		fmt.Sprintf("Default days: %d", cfg.DefaultDays),
		fmt.Sprintf("Redis: %s", presence(cfg.RedisEnabled())),
		fmt.Sprintf("TTL (price/envelope): %ds / %ds", cfg.TTL.Price, cfg.TTL.Envelope),
		warmupLine(cfg.Warmup),
		sectionLine("Market config", cfg.Market),
	}
	if m := cfg.Market.Value; m != nil {
		lines = append(lines, fmt.Sprintf("Provider priority: %s", strings.Join(m.Priority, " -> ")))
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func pathOrPresence(path string) string {
	if strings.TrimSpace(path) == "" {
		return presence(false)
	}
	return path
}

func warmupLine(w config.Warmup) string {
	if !w.Enabled() {
		return "Warmup: disabled"
	}
	return fmt.Sprintf("Warmup: %s for %s", w.Spec, strings.Join(w.Assets, ", "))
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
