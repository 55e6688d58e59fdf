// Package cli implements the ent command-line interface.
//
// Commands:
//   - check updates: report recipes whose upstream has a newer version
//   - refresh: re-query every upstream and warm the cache
//   - cache: inspect and maintain the observation cache
//   - serve: expose reports over HTTP
//   - version: print build information
//
// All commands accept --verbose (-v) for debug logging and --config to
// name a config file. The logger travels to subcommands in the command's
// context.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/serpent-os/ent/pkg/buildinfo"
	"github.com/serpent-os/ent/pkg/cache"
	"github.com/serpent-os/ent/pkg/config"
	"github.com/serpent-os/ent/pkg/history"
	"github.com/serpent-os/ent/pkg/pipeline"
	"github.com/serpent-os/ent/pkg/source"
)

// appName is the application name used for display.
const appName = "ent"

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

	configFile string
	verbose    bool
	cfg        *config.Config
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
		Use:          appName,
		Short:        "ent finds recipes with newer upstream releases",
		Long:         `ent walks a tree of package recipes, asks each recipe's upstream for its latest version, and reports which recipes are out of date.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			level, _ := log.ParseLevel(cfg.Log.Level)
			if c.verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: ./ent.toml or $XDG_CONFIG_HOME/ent/ent.toml)")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.refreshCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.buildsCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the configured cache and the
// built-in upstream registry.
func (c *CLI) newRunner(cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := openCache(cfg, noCache)
	if err != nil {
		return nil, err
	}
	reg := source.NewDefaultRegistry(source.NewClients(cfg.SourceOptions()))
	return pipeline.NewRunner(reg, ch, cfg.CacheKeyer(), c.Logger), nil
}

func openCache(cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cache.Open(cfg.CacheOptions())
}

// openHistory connects to the run history. It returns nil when no store is
// configured.
func openHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	if cfg.History.MongoURI == "" {
		return nil, nil
	}
	return history.NewMongoStore(ctx, cfg.History.MongoURI, cfg.History.Database)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
