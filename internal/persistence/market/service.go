package marketpersist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"

	cachekeys "marketfeed/internal/cache"
	"marketfeed/pkg/market"
	marketcache "marketfeed/pkg/market/cache"
)

var _ market.Publisher = (*Service)(nil)

// ErrNotFound is returned by Latest when no envelope was ever published.
var ErrNotFound = errors.New("marketpersist: envelope not found")

// Service publishes freshly collected envelopes to the latest file and,
// when configured, mirrors them into Redis.
type Service struct {
	dir   string
	cache gocache.Cache
	ttl   cachekeys.TTLSet
}

// Config enumerates the publishing targets.
type Config struct {
	// Dir receives data_<asset>.json. Empty disables the latest file.
	Dir   string
	Cache gocache.Cache
	TTL   cachekeys.TTLSet
}

// NewService wires a publisher. Returns nil when no target is configured.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Dir) == "" && cfg.Cache == nil {
		return nil
	}
	return &Service{
		dir:   cfg.Dir,
		cache: cfg.Cache,
		ttl:   cfg.TTL,
	}
}

// latestPrice is the compact payload stored under PriceLatestKey.
type latestPrice struct {
	Price  float64 `json:"price"`
	Source string  `json:"source"`
	TsMs   int64   `json:"ts"`
}

// Publish writes the latest file then refreshes the Redis mirror. Only the
// file error is returned; Redis failures are logged.
func (s *Service) Publish(ctx context.Context, env *market.Envelope) error {
	if s == nil || env == nil {
		return nil
	}
	var fileErr error
	if s.dir != "" {
		fileErr = s.writeLatest(env)
	}
	s.mirror(ctx, env)
	return fileErr
}

// Latest returns the most recently published envelope for asset, preferring
// the Redis mirror over the latest file.
func (s *Service) Latest(ctx context.Context, asset string) (*market.Envelope, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	if s.cache != nil {
		var env market.Envelope
		key := cachekeys.EnvelopeKey(asset)
		err := s.cache.GetCtx(ctx, key, &env)
		switch {
		case err == nil:
			return &env, nil
		case !s.cache.IsNotFound(err):
			logx.WithContext(ctx).Errorf("marketpersist: load envelope key=%s err=%v", key, err)
		}
	}
	if s.dir == "" {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, cachekeys.LatestFileName(asset)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var env market.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("marketpersist: decode latest %s: %w", asset, err)
	}
	return &env, nil
}

func (s *Service) writeLatest(env *market.Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marketpersist: marshal %s: %w", env.AssetID, err)
	}
	path := filepath.Join(s.dir, cachekeys.LatestFileName(env.AssetID))
	if err := marketcache.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("marketpersist: latest file: %w", err)
	}
	return nil
}

func (s *Service) mirror(ctx context.Context, env *market.Envelope) {
	if s.cache == nil {
		return
	}
	if ttl := cachekeys.EnvelopeTTL(s.ttl); ttl > 0 {
		key := cachekeys.EnvelopeKey(env.AssetID)
		if err := s.cache.SetWithExpireCtx(ctx, key, env, ttl); err != nil {
			logx.WithContext(ctx).Errorf("marketpersist: cache envelope key=%s err=%v", key, err)
		}
	}
	if ttl := cachekeys.PriceTTL(s.ttl); ttl > 0 {
		key := cachekeys.PriceLatestKey(env.AssetID)
		payload := latestPrice{
			Price:  env.Snapshot.CurrentPrice,
			Source: env.Source,
			TsMs:   env.CollectedAt.UnixMilli(),
		}
		if err := s.cache.SetWithExpireCtx(ctx, key, payload, ttl); err != nil {
			logx.WithContext(ctx).Errorf("marketpersist: cache price key=%s err=%v", key, err)
		}
	}
}
