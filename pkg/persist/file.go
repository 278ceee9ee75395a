package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one JSON file per key.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store. An empty baseDir means
// ~/.config/pipebuilder/pipelines.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create pipeline dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// DefaultDir returns the default FileStore directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pipebuilder", "pipelines"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "pipebuilder", "pipelines"), nil
}

// Path returns the storage directory.
func (s *FileStore) Path() string { return s.baseDir }

func (s *FileStore) recordPath(key string) string {
	return filepath.Join(s.baseDir, strings.ReplaceAll(key, ":", "_")+".json")
}

// Load reads a record.
func (s *FileStore) Load(_ context.Context, key string) (*Record, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse pipeline file: %w", err)
	}
	return &rec, nil
}

// Save writes a record through a temp file so readers never see a partial
// write.
func (s *FileStore) Save(_ context.Context, key string, rec Record) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pipeline: %w", err)
	}
	path := s.recordPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write pipeline file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write pipeline file: %w", err)
	}
	return nil
}

// Delete removes a record.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.recordPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pipeline file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
