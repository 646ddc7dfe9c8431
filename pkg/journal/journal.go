package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CollectionRecord captures one end-to-end collection for audit and analysis.
type CollectionRecord struct {
	Timestamp     time.Time     `json:"timestamp"`
	Sequence      int           `json:"sequence"`
	CollectionID  string        `json:"collection_id"`
	Asset         string        `json:"asset"`
	RequestedDays int           `json:"requested_days"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	Origin        string        `json:"origin,omitempty"`
	Source        string        `json:"source,omitempty"`
	Candles       int           `json:"candles,omitempty"`
	Failures      []string      `json:"failures,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Writer persists collection records to a directory as JSON files (journal style).
type Writer struct {
	dir   string
	mu    sync.Mutex
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// Dir returns the journal directory.
func (w *Writer) Dir() string { return w.dir }

// WriteCollection writes a record to a timestamped JSON file and returns its path.
func (w *Writer) WriteCollection(rec *CollectionRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	rec.Sequence = seq
	id := rec.CollectionID
	if id == "" {
		id = "anon"
	}
	name := fmt.Sprintf("collection_%s_%05d_%s.json", rec.Timestamp.UTC().Format("20060102_150405"), seq, id)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
