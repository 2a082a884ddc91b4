// Package cli implements the gridplan command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/buildinfo"
	"github.com/matzehuels/gridplan/pkg/cache"
	"github.com/matzehuels/gridplan/pkg/catalog"
	"github.com/matzehuels/gridplan/pkg/config"
	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/pipeline"
	"github.com/matzehuels/gridplan/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "gridplan"

// stdinArg reads the blueprint from standard input.
const stdinArg = "-"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides config discovery when set by --config.
	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Gridplan edits and lays out factory blueprints",
		Long:          `Gridplan is a CLI tool for inspecting and editing grid blueprints and for generating pipes, electric poles and beacons around existing entities.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $"+config.EnvPath+", ./"+config.FileName+" or the XDG config dir)")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.Load(c.configPath)
	} else {
		cfg, err = config.LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Path() != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path())
	}
	c.config = cfg
	return cfg, nil
}

// loadCatalog returns the configured catalog.
func (c *CLI) loadCatalog() (*catalog.Catalog, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.LoadCatalog()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, nil, c.Logger)
	r.TTL = cfg.Cache.TTL
	return r, nil
}

// newCache opens the configured cache backend. An unreachable redis server
// degrades to no caching rather than failing the command.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheNull:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(cfg.Redis.Addr, cache.RedisOptions{
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := rc.Ping(ctx); err != nil {
			loggerFromContext(ctx).Warn("redis cache unavailable, caching disabled", "addr", cfg.Redis.Addr, "err", err)
			rc.Close()
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	if cfg.Dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(cfg.Dir)
}

// openStore opens the configured blueprint store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return s, nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// openInput opens a blueprint file, or standard input for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == stdinArg {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// readBlueprint loads a blueprint file with the configured catalog.
func (c *CLI) readBlueprint(path string) (*blueprint.Blueprint, error) {
	cat, err := c.loadCatalog()
	if err != nil {
		return nil, err
	}
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return pipeline.Load(in, cat, c.Logger)
}

// FormatError renders err for the terminal: the user-facing message of a
// coded error, or the error text.
func FormatError(err error) string {
	msg := err.Error()
	if errors.GetCode(err) != "" {
		msg = errors.UserMessage(err)
	}
	return styleIconError.Render(iconError) + " " + msg
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string, def string) []string {
	if s == "" {
		return []string{def}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
