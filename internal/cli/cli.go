// Package cli implements the pipebuilder command-line interface.
//
// The commands drive the same editor core a browser canvas would: edit
// scripts and the terminal editor dispatch intents through the controller,
// submissions go through the submit runner, and the validation service is
// served by pkg/server.
//
// # Commands
//
//   - serve: run the validation service
//   - templates: list the node palette
//   - apply: replay an edit script and write the resulting snapshot
//   - edit: interactive terminal editor
//   - submit, summary, validate: inspect a snapshot locally or remotely
//   - render: export a snapshot as SVG, PNG or DOT
//   - restore: write the last persisted pipeline back to a snapshot file
//   - cache: manage the local cache
//
// All commands accept --verbose (-v) for debug logging and --config for an
// alternate configuration file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/matzehuels/pipebuilder/pkg/buildinfo"
	"github.com/matzehuels/pipebuilder/pkg/cache"
	"github.com/matzehuels/pipebuilder/pkg/observability"
	"github.com/matzehuels/pipebuilder/pkg/persist"
	"github.com/matzehuels/pipebuilder/pkg/registry"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

const appName = "pipebuilder"

// redisCachePrefix namespaces CLI cache entries in a shared Redis.
const redisCachePrefix = appName + ":cli:"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	apiURL     string
	otel       bool

	cfg Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Pipebuilder edits and validates node pipelines",
		Long: `Pipebuilder is a pipeline editor core: place nodes from a palette of templates,
connect their ports (nearby nodes connect automatically), and submit the result
to a validation service that reports node and edge counts and whether the
pipeline is acyclic.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pipebuilder/config.toml)")
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "validation service base URL")
	root.PersistentFlags().BoolVar(&c.otel, "otel", false, "report metrics and traces through OpenTelemetry")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.submitCommand())
	root.AddCommand(c.summaryCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.restoreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration and installs observability hooks before any
// command runs.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(c.configPath, c.configPath != "")
	if err != nil {
		return err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	c.cfg = cfg

	if c.otel {
		hooks, err := observability.NewOTel(otel.GetTracerProvider(), otel.GetMeterProvider())
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		observability.SetAll(hooks)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// registry returns the built-in templates plus the configured catalog.
func (c *CLI) registry(extra string) (*registry.Registry, error) {
	reg := registry.Builtin()
	path := extra
	if path == "" {
		path = c.cfg.Templates
	}
	if path == "" {
		return reg, nil
	}
	templates, err := registry.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("Loaded template catalog", "path", path, "templates", len(templates))
	return reg.With(templates...)
}

// newRunner creates a submission runner for CLI use. The returned cleanup
// waits for background deletions and releases the backends.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*submit.Runner, func(), error) {
	client, err := submit.NewClient(c.cfg.APIURL, c.cfg.SubmitTimeout)
	if err != nil {
		return nil, nil, err
	}
	ch, err := c.newCache(noCache)
	if err != nil {
		return nil, nil, err
	}
	p, err := c.newPersist(ctx)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	r := submit.NewRunner(client, ch, p, c.Logger)
	r.Timeout = c.cfg.SubmitTimeout
	cleanup := func() {
		r.Wait()
		p.Close()
		ch.Close()
	}
	return r, cleanup, nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache || !c.cfg.Cache.Enabled {
		return cache.NewNullCache(), nil
	}
	if c.cfg.Cache.RedisURL != "" {
		return cache.NewRedisCache(cache.RedisOptions{URL: c.cfg.Cache.RedisURL}, redisCachePrefix)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newPersist opens the configured persistence backend.
func (c *CLI) newPersist(ctx context.Context) (persist.Store, error) {
	pc := c.cfg.Persist
	switch pc.Backend {
	case BackendFile, "":
		dir := pc.Dir
		if dir == "" {
			var err error
			if dir, err = persist.DefaultDir(); err != nil {
				return nil, err
			}
		}
		return persist.NewFileStore(dir)
	case BackendRedis:
		return persist.NewRedisStore(cache.RedisOptions{URL: pc.RedisURL})
	case BackendMongo:
		return persist.NewMongoStore(ctx, persist.MongoOptions{
			URI:        pc.MongoURI,
			Database:   pc.MongoDatabase,
			Collection: pc.MongoCollection,
		})
	case BackendNone:
		return persist.NullStore{}, nil
	default:
		return nil, fmt.Errorf("unknown persist backend %q (want file, redis, mongo or none)", pc.Backend)
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pipebuilder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// ErrReported marks failures that were already printed to the user; main
// only sets the exit code for them.
var ErrReported = errors.New("failure already reported")

// persistKey resolves --key and --session into a persistence key. The
// session "new" starts a fresh one and prints its id.
func persistKey(key, session string) (string, error) {
	if session != "" {
		if session == "new" {
			session = persist.NewSessionID()
			printInfo("Session %s", session)
		}
		key = persist.SessionKey(session)
	}
	if key == "" {
		key = persist.DefaultKey
	}
	return key, persist.ValidateKey(key)
}

// outputFormat derives a render format from a file extension.
func outputFormat(path, fallback string) string {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return fallback
}
