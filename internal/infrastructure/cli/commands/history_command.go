package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/doeshing/datatalk/internal/app"
	appconfig "github.com/doeshing/datatalk/internal/application/config"
	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/infrastructure/cli/helpers"
	"github.com/doeshing/datatalk/internal/ports"
)

// MaxHistoryAnalysisRecords bounds how many exchanges `history stats` reads.
const MaxHistoryAnalysisRecords = 1000

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(deps ContainerFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past questions and answers",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(deps),
		newHistorySearchCommand(deps),
		newHistoryClearCommand(deps),
		newHistoryExportCommand(deps),
		newHistoryStatsCommand(deps),
		newHistoryRetainCommand(deps),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(deps ContainerFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent exchanges",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), deps)
			if err != nil {
				return err
			}
			return printHistoryEntries(cmd.Context(), cmd.OutOrStdout(), store, limit, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	return cmd
}

// newHistorySearchCommand creates the 'history search' subcommand
func newHistorySearchCommand(deps ContainerFunc) *cobra.Command {
	var query string
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search questions and summaries for a keyword",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return errors.New(ErrQueryRequired)
			}
			store, err := historyStore(cmd.Context(), deps)
			if err != nil {
				return err
			}
			return printHistoryEntries(cmd.Context(), cmd.OutOrStdout(), store, searchLimit, query)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search keyword")
	cmd.Flags().IntVar(&searchLimit, "limit", domain.DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(deps ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded exchanges",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), deps)
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(deps ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), deps)
			if err != nil {
				return err
			}
			if err := store.ExportJSON(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to export history to %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", args[0])
			return nil
		},
	}
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(deps ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show success rate and most frequent questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(cmd.Context(), deps)
			if err != nil {
				return err
			}
			return showHistoryStats(cmd.Context(), cmd.OutOrStdout(), store)
		},
	}
}

// newHistoryRetainCommand creates the 'history retain' subcommand
func newHistoryRetainCommand(deps ContainerFunc) *cobra.Command {
	var retainDays int

	cmd := &cobra.Command{
		Use:   "retain",
		Short: "Prune history older than N days and update retention policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if retainDays <= 0 {
				return errors.New(ErrInvalidRetainDays)
			}
			container, err := deps(cmd.Context())
			if err != nil {
				return err
			}
			return updateHistoryRetention(cmd.Context(), cmd.OutOrStdout(), container, retainDays)
		},
	}

	cmd.Flags().IntVar(&retainDays, "days", domain.DefaultHistoryRetainDays, "Days to retain history")
	return cmd
}

func historyStore(ctx context.Context, deps ContainerFunc) (ports.HistoryRepository, error) {
	container, err := deps(ctx)
	if err != nil {
		return nil, err
	}
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return container.HistoryStore, nil
}

// printHistoryEntries renders exchanges as a table
func printHistoryEntries(ctx context.Context, out io.Writer, store ports.HistoryRepository, limit int, search string) error {
	records, err := store.Records(ctx, limit, search)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(helpers.ExchangesTable(records)).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}

// historyStatistics holds analyzed history statistics
type historyStatistics struct {
	total      int
	successful int
	cached     int
	questions  map[string]int
}

type questionCount struct {
	Question string
	Count    int
}

// showHistoryStats displays success rate and top questions
func showHistoryStats(ctx context.Context, out io.Writer, store ports.HistoryRepository) error {
	records, err := store.Records(ctx, MaxHistoryAnalysisRecords, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve history for analysis: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	stats := analyzeHistoryRecords(records)
	fmt.Fprintf(out, "Entries analyzed: %d\nSuccess rate: %.1f%%\nServed from cache: %d\n",
		stats.total,
		successRate(stats.successful, stats.total),
		stats.cached)

	fmt.Fprintln(out, "Top questions:")
	for _, q := range topQuestions(stats.questions, 5) {
		fmt.Fprintf(out, "  %s (%d)\n", helpers.Truncate(q.Question, 70), q.Count)
	}
	return nil
}

// analyzeHistoryRecords computes statistics over exchanges
func analyzeHistoryRecords(records []domain.Exchange) historyStatistics {
	stats := historyStatistics{questions: make(map[string]int)}
	for _, rec := range records {
		stats.total++
		if rec.Status == domain.ExchangeOK {
			stats.successful++
		}
		if rec.FromCache {
			stats.cached++
		}
		stats.questions[rec.Question]++
	}
	return stats
}

func topQuestions(freq map[string]int, limit int) []questionCount {
	out := make([]questionCount, 0, len(freq))
	for q, n := range freq {
		out = append(out, questionCount{Question: q, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Question < out[j].Question
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func successRate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}

// updateHistoryRetention prunes old history and persists the retention policy
func updateHistoryRetention(ctx context.Context, out io.Writer, container *app.Container, days int) error {
	if container.HistoryStore == nil {
		return errors.New(ErrHistoryStoreUnavailable)
	}
	if err := container.HistoryStore.PruneOlderThan(ctx, days); err != nil {
		return fmt.Errorf("failed to prune old history: %w", err)
	}

	if container.ConfigLoader == nil {
		return errors.New(ErrConfigLoaderUnavailable)
	}
	cfg := container.Config
	cfg.History.RetentionDays = days
	if err := appconfig.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := container.ConfigLoader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	container.Config = cfg

	fmt.Fprintf(out, "Retained last %d days of history.\n", days)
	return nil
}
