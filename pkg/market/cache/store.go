package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"marketfeed/pkg/market"
)

// DefaultFreshness is how long a cached envelope is served without any
// provider traffic.
const DefaultFreshness = 5 * time.Minute

// Record is an envelope read back from disk.
type Record struct {
	Envelope  *market.Envelope
	WrittenAt time.Time // file modification time
}

// FileStore keeps the most recent envelope per asset as a JSON file.
type FileStore struct {
	dir      string
	fileName func(asset string) string
	now      func() time.Time
}

// Option customises a FileStore.
type Option func(*FileStore)

// WithFileName overrides the per-asset file naming.
func WithFileName(fn func(asset string) string) Option {
	return func(s *FileStore) {
		if fn != nil {
			s.fileName = fn
		}
	}
}

// WithClock overrides the clock used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string, opts ...Option) *FileStore {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	s := &FileStore{dir: dir, fileName: FileName, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding the cache files.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the cache file path for asset.
func (s *FileStore) Path(asset string) string {
	return filepath.Join(s.dir, s.fileName(asset))
}

// IsFresh reports whether a valid envelope younger than maxAge exists.
func (s *FileStore) IsFresh(asset string, maxAge time.Duration) bool {
	rec, ok := s.Read(asset)
	if !ok {
		return false
	}
	return rec.Envelope.Age(s.now()) < maxAge
}

// Read returns the cached envelope regardless of age. Missing, unparsable or
// invalid files are reported as absent.
func (s *FileStore) Read(asset string) (*Record, bool) {
	path := s.Path(asset)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logx.Debugf("cache: read %s: %v", path, err)
		}
		return nil, false
	}
	var env market.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logx.Debugf("cache: ignoring unparsable %s: %v", path, err)
		return nil, false
	}
	if err := env.Validate(); err != nil {
		logx.Debugf("cache: ignoring invalid %s: %v", path, err)
		return nil, false
	}
	rec := &Record{Envelope: &env}
	if info, err := os.Stat(path); err == nil {
		rec.WrittenAt = info.ModTime()
	}
	return rec, true
}

// Write replaces the cached envelope for asset atomically.
func (s *FileStore) Write(asset string, env *market.Envelope) error {
	if err := env.Validate(); err != nil {
		return fmt.Errorf("cache: refusing to write %s: %w", asset, err)
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", asset, err)
	}
	return WriteFileAtomic(s.Path(asset), data)
}

// FileName is the default cache file name: cache_<asset>.json.
func FileName(asset string) string {
	return "cache_" + SanitizeAsset(asset) + ".json"
}

// SanitizeAsset reduces an asset id to characters safe in a file name.
// The mapping is lossy, so distinct ids may collide ("a/b" and "a_b").
func SanitizeAsset(asset string) string {
	asset = market.NormalizeAssetID(asset)
	var b strings.Builder
	b.Grow(len(asset))
	for _, r := range asset {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "_"
	}
	return out
}

// WriteFileAtomic writes data to a temp file beside path, syncs it and
// renames it into place. Readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("cache: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("cache: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("cache: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("cache: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("cache: rename into %s: %w", path, err)
	}
	return nil
}
