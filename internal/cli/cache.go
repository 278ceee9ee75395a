package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipebuilder/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the validation and render cache",
		Long: `Validation results and rendered diagrams are cached on disk, or in Redis when
cache.redis_url is configured. Entries expire on their own; clear removes
them immediately.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var fileOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached validations and renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := c.clearFileCache()
			if err != nil {
				return err
			}
			if c.cfg.Cache.RedisURL != "" && !fileOnly {
				n, err := c.clearRedisCache(cmd.Context())
				if err != nil {
					return err
				}
				total += n
			}
			if total == 0 {
				printInfo("Cache is empty")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fileOnly, "file-only", false, "leave the Redis cache untouched")
	return cmd
}

func (c *CLI) clearFileCache() (int, error) {
	dir, err := cacheDir()
	if err != nil {
		return 0, fmt.Errorf("get cache dir: %w", err)
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return 0, err
	}
	defer fc.Close()

	n, err := fc.Clear()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		printSuccess("Cleared %d file entries", n)
		printDetail("Directory: %s", dir)
	}
	return n, nil
}

func (c *CLI) clearRedisCache(ctx context.Context) (int, error) {
	rc, err := cache.NewRedisCache(cache.RedisOptions{URL: c.cfg.Cache.RedisURL}, redisCachePrefix)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := rc.Clear(ctx)
	if err != nil {
		return n, err
	}
	if n > 0 {
		printSuccess("Cleared %d Redis entries", n)
		printDetail("Prefix: %s", redisCachePrefix)
	}
	return n, nil
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			if c.cfg.Cache.RedisURL != "" {
				printDetail("Redis: %s (prefix %s)", c.cfg.Cache.RedisURL, redisCachePrefix)
			}
			return nil
		},
	}
}
