package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pipebuilder/pkg/autoconnect"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, autoconnect.DefaultThreshold, cfg.AutoConnectThreshold)
	assert.Equal(t, submit.DefaultNoticeDuration, cfg.NoticeDuration)
	assert.Equal(t, BackendFile, cfg.Persist.Backend)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"), true)
	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
api_url = "http://validator:9000"
submit_timeout = "5s"
auto_connect_threshold = 150.0

[persist]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"

[cache]
enabled = false

[server]
addr = ":9999"
allowed_origins = ["http://example.com"]
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "http://validator:9000", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 150.0, cfg.AutoConnectThreshold)
	assert.Equal(t, BackendMongo, cfg.Persist.Backend)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, []string{"http://example.com"}, cfg.Server.AllowedOrigins)
	// untouched keys keep their defaults
	assert.Equal(t, submit.DefaultNoticeDuration, cfg.NoticeDuration)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", `colour = "blue"`, "unknown key"},
		{"bad backend", "[persist]\nbackend = \"sqlite\"", "persist backend"},
		{"negative threshold", "auto_connect_threshold = -1.0", "auto_connect_threshold"},
		{"zero threshold", "auto_connect_threshold = 0.0", "auto_connect_threshold must be positive"},
		{"syntax", "api_url = ", "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body), true)
			require.Error(t, err)
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{EnvAPIURL: "http://from-env:8000"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, "http://from-env:8000", cfg.APIURL)

	env[EnvAPIURL] = ""
	cfg = DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, DefaultConfig().APIURL, cfg.APIURL, "empty variable must not override")
}

func TestPersistKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		session string
		want    string
		wantErr bool
	}{
		{"default", "", "", "pipeline:last", false},
		{"explicit key", "pipeline:draft", "", "pipeline:draft", false},
		{"session", "", "abc", "pipeline:abc", false},
		{"session wins", "pipeline:last", "abc", "pipeline:abc", false},
		{"unsafe key", "../etc", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := persistKey(tt.key, tt.session)
			if (err != nil) != tt.wantErr {
				t.Fatalf("persistKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("persistKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPersistKey_NewSession(t *testing.T) {
	key, err := persistKey("", "new")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "pipeline:"))
	assert.Len(t, key, len("pipeline:")+36)
}
