package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/doeshing/datatalk/internal/app"
	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/infrastructure/cli/helpers"
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(deps ContainerFunc) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the response cache",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(deps),
		newCacheClearCommand(deps),
		newCacheStatsCommand(deps),
	)

	return cacheCmd
}

// newCacheListCommand creates the 'cache list' subcommand
func newCacheListCommand(deps ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := deps(cmd.Context())
			if err != nil {
				return err
			}
			return listCacheEntries(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(deps ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := deps(cmd.Context())
			if err != nil {
				return err
			}
			if container.CacheStore == nil {
				return domain.ErrCacheDisabled
			}
			if err := container.CacheStore.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgCacheCleared)
			return nil
		},
	}
}

// newCacheStatsCommand creates the 'cache stats' subcommand
func newCacheStatsCommand(deps ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache settings and entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := deps(cmd.Context())
			if err != nil {
				return err
			}
			return showCacheStats(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// listCacheEntries lists all cache entries
func listCacheEntries(ctx context.Context, out io.Writer, container *app.Container) error {
	if container.CacheStore == nil {
		return domain.ErrCacheDisabled
	}

	entries, err := container.CacheStore.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoCachedResponses)
		return nil
	}

	data := pterm.TableData{{"Key", "Cached at", "Question"}}
	for _, entry := range entries {
		data = append(data, []string{
			entry.Key,
			entry.CreatedAt.Local().Format(domain.TimestampFormat),
			helpers.Truncate(entry.Question, 70),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}

// showCacheStats displays cache settings and the current entry count
func showCacheStats(ctx context.Context, out io.Writer, container *app.Container) error {
	settings := container.Config.Cache
	fmt.Fprintf(out, "Enabled: %t\nBackend: %s\nTTL: %s\nMax entries: %d\n",
		settings.Enabled, settings.Backend, settings.TTL, settings.MaxEntries)
	if settings.Backend == domain.CacheBackendRedis {
		fmt.Fprintf(out, "Redis: %s (prefix %s)\n", settings.Redis.Address, settings.Redis.KeyPrefix)
	} else {
		fmt.Fprintf(out, "Directory: %s\n", settings.Dir)
	}

	if container.CacheStore == nil {
		return nil
	}
	entries, err := container.CacheStore.Entries(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}
	fmt.Fprintf(out, "Current entries: %d\n", len(entries))
	return nil
}
