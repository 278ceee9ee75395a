package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache keeps one JSON file per entry under dir, sharded by the first
// two hex characters of the key hash.
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Get reads an entry. Corrupt and expired entries are removed and count as
// misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set writes an entry atomically through a temp file.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes an entry. Missing entries are not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry and returns how many were removed.
func (c *FileCache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		p := filepath.Join(c.dir, e.Name())
		if e.IsDir() {
			if files, err := os.ReadDir(p); err == nil {
				removed += len(files)
			}
		} else {
			removed++
		}
		if err := os.RemoveAll(p); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Close does nothing.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
