package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipebuilder/pkg/autoconnect"
	"github.com/matzehuels/pipebuilder/pkg/server"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

// EnvAPIURL overrides the configured validation service URL.
const EnvAPIURL = "PIPEBUILDER_API_URL"

// Persistence backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the CLI configuration file, config.toml.
//
// Values resolve in order: built-in defaults, the config file, the
// environment, then command-line flags.
type Config struct {
	APIURL               string        `toml:"api_url"`
	SubmitTimeout        time.Duration `toml:"submit_timeout"`
	AutoConnectThreshold float64       `toml:"auto_connect_threshold"`
	NoticeDuration       time.Duration `toml:"notice_duration"`
	Templates            string        `toml:"templates"`

	Persist PersistConfig `toml:"persist"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
}

// PersistConfig selects where submitted pipelines are saved.
type PersistConfig struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	RedisURL        string `toml:"redis_url"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// CacheConfig controls the validation and render cache.
type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	RedisURL string `toml:"redis_url"`
}

// ServerConfig configures `pipebuilder serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RedisURL       string   `toml:"redis_url"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		APIURL:               "http://localhost:8000",
		SubmitTimeout:        submit.DefaultTimeout,
		AutoConnectThreshold: autoconnect.DefaultThreshold,
		NoticeDuration:       submit.DefaultNoticeDuration,
		Persist:              PersistConfig{Backend: BackendFile},
		Cache:                CacheConfig{Enabled: true},
		Server: ServerConfig{
			Addr:           server.DefaultAddr,
			AllowedOrigins: slices.Clone(server.DefaultAllowedOrigins),
		},
	}
}

// configPath returns the default config file location
// (~/.config/pipebuilder/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads path over the defaults. An empty path means the default
// location. A missing file is only an error when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.validate()
}

// applyEnv overlays environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	return c.validate()
}

func (c Config) validate() error {
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("submit_timeout must be positive, got %s", c.SubmitTimeout)
	}
	if c.NoticeDuration <= 0 {
		return fmt.Errorf("notice_duration must be positive, got %s", c.NoticeDuration)
	}
	if c.AutoConnectThreshold <= 0 {
		return fmt.Errorf("auto_connect_threshold must be positive, got %g (set auto_connect = false in a script to disable)", c.AutoConnectThreshold)
	}
	switch c.Persist.Backend {
	case BackendFile, BackendRedis, BackendMongo, BackendNone, "":
	default:
		return fmt.Errorf("unknown persist backend %q", c.Persist.Backend)
	}
	return nil
}
