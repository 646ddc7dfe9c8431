package cache

import (
	"strings"
	"time"

	marketcache "marketfeed/pkg/market/cache"
)

// Namespace is the Redis key prefix for the marketfeed application.
const Namespace = "marketfeed"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort TTLClass = "short"
	TTLLong  TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short time.Duration
	Long  time.Duration
}

// NewTTLSet converts TTLs in seconds into durations. Negative disables.
func NewTTLSet(short, long int) TTLSet {
	return TTLSet{
		Short: durationOrDefault(short, 5*time.Minute),
		Long:  durationOrDefault(long, 24*time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Files -------------------------------------------------------------------

// CacheFileName is the freshness/staleness cache file for an asset.
func CacheFileName(asset string) string {
	return marketcache.FileName(asset)
}

// LatestFileName is the downstream-facing "latest" file for an asset.
func LatestFileName(asset string) string {
	return "data_" + marketcache.SanitizeAsset(asset) + ".json"
}

// --- Redis -------------------------------------------------------------------

// EnvelopeKey holds the latest envelope JSON for an asset.
func EnvelopeKey(asset string) string {
	return formatKey("envelope", marketcache.SanitizeAsset(asset))
}

// PriceLatestKey holds the latest price and its source.
func PriceLatestKey(asset string) string {
	return formatKey("price", "latest", marketcache.SanitizeAsset(asset))
}

// EnvelopeTTL returns the expiry of mirrored envelopes.
func EnvelopeTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// PriceTTL returns the expiry of mirrored latest prices.
func PriceTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}
