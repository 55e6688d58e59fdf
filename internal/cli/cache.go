package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/serpent-os/ent/pkg/cache"
	"github.com/serpent-os/ent/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the upstream observation cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cacheInfoCommand())

	return cmd
}

// openMaintainer opens the configured backend for maintenance.
func (c *CLI) openMaintainer() (cache.Cache, cache.Maintainer, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	ch, err := openCache(cfg, false)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	m, ok := ch.(cache.Maintainer)
	if !ok {
		ch.Close()
		return nil, nil, fmt.Errorf("cache backend %q does not support maintenance", cfg.Cache.Backend)
	}
	return ch, m, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(cfg))
			return nil
		},
	}
}

func cacheLocation(cfg *config.Config) string {
	switch cfg.CacheOptions().Backend {
	case cache.BackendRedis:
		return cfg.Cache.RedisURL
	case cache.BackendNone:
		return "(disabled)"
	default:
		return cfg.Cache.Dir
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached observation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, m, err := c.openMaintainer()
			if err != nil {
				return err
			}
			defer ch.Close()

			before, _ := m.Info(cmd.Context())
			if err := m.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %s cached entries", humanize.Comma(int64(before.Entries)))
			printDetail("Location: %s", before.Location)
			return nil
		},
	}
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, m, err := c.openMaintainer()
			if err != nil {
				return err
			}
			defer ch.Close()

			spinner := newSpinnerWithContext(cmd.Context(), "Pruning cache...")
			spinner.Start()
			n, err := m.Prune(cmd.Context())
			if err != nil {
				spinner.StopWithError("Prune failed")
				return fmt.Errorf("prune cache: %w", err)
			}
			spinner.StopWithSuccess(fmt.Sprintf("Pruned %s entries", humanize.Comma(int64(n))))
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache backend, location and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, m, err := c.openMaintainer()
			if err != nil {
				return err
			}
			defer ch.Close()

			info, err := m.Info(cmd.Context())
			if err != nil {
				return fmt.Errorf("inspect cache: %w", err)
			}
			printKeyValue("Backend", string(info.Backend))
			printKeyValue("Location", info.Location)
			printKeyValue("Entries", humanize.Comma(int64(info.Entries)))
			printKeyValue("Size", humanize.Bytes(uint64(max(info.Bytes, 0))))
			printKeyValue("Freshness", c.cfg.Cache.Freshness.String())
			return nil
		},
	}
}
