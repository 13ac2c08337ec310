package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/aptrun/internal/cache"
	"github.com/Norgate-AV/aptrun/internal/config"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the incremental processing cache",
	}
	cacheCmd.PersistentFlags().String("cache-dir", "", "Cache directory (default: <project>/"+cache.DefaultCacheDir+")")

	cacheCmd.AddCommand(&cobra.Command{
		Use:          "clear [project-dir]",
		Short:        "Remove all cached runs and generated artifacts",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runCacheClear,
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:          "stats [project-dir]",
		Short:        "Show cache statistics",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runCacheStats,
	})

	return cacheCmd
}

func openProjectCache(cmd *cobra.Command, args []string) (*cache.Cache, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	cfg, err := config.NewLoader().LoadForProcess(cmd, dir, config.ScopeMain)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	c, err := cache.New(cacheDir(cfg))
	if err != nil {
		return nil, err
	}

	return c, nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := openProjectCache(cmd, args)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache at %s\n", c.Root())
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := openProjectCache(cmd, args)
	if err != nil {
		return err
	}
	defer c.Close()

	count, size, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache: %s\n", c.Root())
	fmt.Fprintf(out, "Entries: %d\n", count)
	fmt.Fprintf(out, "Size: %s\n", formatBytes(size))
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
