package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/cache"
	"github.com/matzehuels/gridplan/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generator result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached generator results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if cfg.Cache.Backend == config.CacheNull {
				printInfo(w, "Caching is disabled")
				return nil
			}

			ch, err := newCache(ctx, cfg.Cache, false)
			if err != nil {
				return err
			}
			defer ch.Close()

			clr, ok := ch.(cache.Clearer)
			if !ok {
				printInfo(w, "Cache is unavailable")
				return nil
			}
			if err := clr.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess(w, "Cleared %s cache", cfg.Cache.Backend)
			printDetail(w, "%s", cacheLocation(cfg.Cache))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached results are kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(cfg.Cache))
			return nil
		},
	}
}

func cacheLocation(cfg config.CacheConfig) string {
	if cfg.Backend == config.CacheRedis {
		return "redis://" + cfg.Redis.Addr + "/" + cfg.Redis.Prefix
	}
	return cfg.Dir
}
