// Package classify assigns each file a category from the run taxonomy,
// consulting the on-disk classification cache before the inference service
// and degrading to a deterministic fallback when neither can answer.
package classify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"docsort/internal/logging"
)

// Cache maps content hashes to canonical category strings. It is safe for
// concurrent use; persistence is explicit via Save.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	logger  *slog.Logger
}

// OpenCache loads the cache file if present. A missing or corrupt file
// yields an empty cache rather than an error so a bad cache never blocks a
// run.
func OpenCache(path string, logger *slog.Logger) *Cache {
	cache := &Cache{
		path:    path,
		entries: make(map[string]string),
		logger:  logging.NewComponentLogger(logger, "cache"),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			cache.logger.Warn("cache read failed, starting empty", logging.Error(err))
		}
		return cache
	}
	if err := json.Unmarshal(data, &cache.entries); err != nil {
		cache.logger.Warn("cache file corrupt, starting empty", logging.Error(err))
		cache.entries = make(map[string]string)
	}
	return cache
}

// Get returns the cached category for a content hash.
func (c *Cache) Get(hash string) (string, bool) {
	if hash == "" {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	category, ok := c.entries[hash]
	return category, ok
}

// Put records a category for a content hash.
func (c *Cache) Put(hash, category string) {
	if hash == "" || category == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = category
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a copy of the cache contents.
func (c *Cache) Entries() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for hash, category := range c.entries {
		out[hash] = category
	}
	return out
}

// Clear drops all entries and removes the cache file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Save writes the cache atomically: a temp file in the same directory is
// renamed over the target so readers never observe a partial file.
func (c *Cache) Save() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("cache temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache close: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache rename: %w", err)
	}
	return nil
}
