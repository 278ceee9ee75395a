package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := filepath.Join(t.TempDir(), "custom-cache")
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath() error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", appName, "config.toml")) {
		t.Errorf("configPath() = %q, want it under ~/.config/%s", path, appName)
	}
}

func TestConfigPathXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath() error: %v", err)
	}
	if want := filepath.Join(home, appName, "config.toml"); path != want {
		t.Errorf("configPath() = %q, want %q", path, want)
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		path     string
		fallback string
		want     string
	}{
		{"flow.svg", "png", "svg"},
		{"flow.PNG", "svg", "png"},
		{"out/flow.dot", "svg", "dot"},
		{"flow", "svg", "svg"},
		{"", "svg", "svg"},
	}

	for _, tt := range tests {
		if got := outputFormat(tt.path, tt.fallback); got != tt.want {
			t.Errorf("outputFormat(%q, %q) = %q, want %q", tt.path, tt.fallback, got, tt.want)
		}
	}
}
