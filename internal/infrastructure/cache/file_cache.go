// Package cache stores successful backend responses keyed by question.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

// FileCache stores responses as JSON blobs addressed by hash key.
type FileCache struct {
	dir        string
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewFileCache returns a cache rooted at dir.
func NewFileCache(dir string, ttl time.Duration, maxEntries int) *FileCache {
	return &FileCache{
		dir:        dir,
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get retrieves a cache entry; expired entries are removed and reported as misses.
func (c *FileCache) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	if key == "" {
		return domain.CacheEntry{}, false, nil
	}
	path := c.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, err
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.CacheEntry{}, false, err
	}
	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		_ = os.Remove(path)
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Set stores a cache entry.
func (c *FileCache) Set(_ context.Context, entry domain.CacheEntry) error {
	if entry.Key == "" {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.pathFor(entry.Key), data, 0o644); err != nil {
		return err
	}
	return c.evictIfNeeded()
}

// Dir exposes the cache directory path.
func (c *FileCache) Dir() string {
	return c.dir
}

// Clear removes all cached entries.
func (c *FileCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.dir)
}

// Entries lists cache entries (best-effort).
func (c *FileCache) Entries(context.Context) ([]domain.CacheEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []domain.CacheEntry
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (c *FileCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *FileCache) evictIfNeeded() error {
	if c.maxEntries <= 0 {
		return nil
	}
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(files) <= c.maxEntries {
		return nil
	}
	type fileInfo struct {
		name string
		mod  time.Time
	}
	var infos []fileInfo
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{name: f.Name(), mod: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod.Before(infos[j].mod) })
	for len(infos) > c.maxEntries {
		old := infos[0]
		_ = os.Remove(filepath.Join(c.dir, old.name))
		infos = infos[1:]
	}
	return nil
}

var _ ports.CacheRepository = (*FileCache)(nil)
