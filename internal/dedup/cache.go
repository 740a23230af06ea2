package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a sent job stays in the cache.
const DefaultTTL = 30 * 24 * time.Hour

const cacheFile = "seen_jobs.json"

type seenEntry struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// JobCache remembers job URLs that were already delivered.
type JobCache struct {
	mu       sync.Mutex
	filePath string
	ttl      time.Duration
	seen     map[string]int64
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*JobCache)

func WithTTL(d time.Duration) Option {
	return func(jc *JobCache) { jc.ttl = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(jc *JobCache) {
		if l != nil {
			jc.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(jc *JobCache) { jc.now = now }
}

// NewJobCache creates the cache directory if needed and loads unexpired
// entries from it.
func NewJobCache(cacheDir string, opts ...Option) (*JobCache, error) {
	jc := &JobCache{
		ttl:  DefaultTTL,
		seen: make(map[string]int64),
		log:  zap.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(jc)
	}
	jc.log = jc.log.Named("dedup")

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	jc.filePath = filepath.Join(cacheDir, cacheFile)
	if err := jc.load(); err != nil {
		return nil, err
	}
	return jc, nil
}

// IsSeen checks if a URL has already been processed.
func (jc *JobCache) IsSeen(url string) bool {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	_, exists := jc.seen[url]
	return exists
}

// Len reports how many URLs are remembered.
func (jc *JobCache) Len() int {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	return len(jc.seen)
}

// Add records urls and persists the cache when anything new was added.
func (jc *JobCache) Add(urls []string) error {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	now := jc.now().UnixMilli()
	changed := false
	for _, url := range urls {
		if _, exists := jc.seen[url]; !exists {
			jc.seen[url] = now
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return jc.save()
}

// load reads the cache from disk, dropping expired entries.
func (jc *JobCache) load() error {
	data, err := os.ReadFile(jc.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", cacheFile, err)
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt cache only means some jobs may be sent twice.
		jc.log.Warn("Ignoring unreadable job cache", zap.String("path", jc.filePath), zap.Error(err))
		return nil
	}

	cutoff := jc.now().Add(-jc.ttl).UnixMilli()
	for _, e := range entries {
		if e.Timestamp > cutoff {
			jc.seen[e.URL] = e.Timestamp
		}
	}
	jc.log.Info("Loaded previously seen jobs",
		zap.Int("loaded", len(jc.seen)),
		zap.Int("expired", len(entries)-len(jc.seen)))
	return nil
}

// save writes the cache to disk. Callers hold mu.
func (jc *JobCache) save() error {
	entries := make([]seenEntry, 0, len(jc.seen))
	for url, ts := range jc.seen {
		entries = append(entries, seenEntry{URL: url, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal seen jobs: %w", err)
	}
	if err := os.WriteFile(jc.filePath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cacheFile, err)
	}
	jc.log.Debug("Saved seen jobs", zap.Int("count", len(entries)))
	return nil
}
