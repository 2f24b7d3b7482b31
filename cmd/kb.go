package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/kural/internal/config"
	"github.com/Yates-Labs/kural/internal/orchestrator"
	"github.com/Yates-Labs/kural/internal/rag"
)

var listLimit int

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the knowledge base",
	Long: `Inspect the knowledge base without calling any model.

Examples:
  kural kb init
  kural kb list --limit 20
  kural kb stats --store sqlite --store-path kural.db`,
}

var kbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the knowledge base if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store rag.KnowledgeStore, cfg *config.Config) error {
			if err := store.EnsureInitialized(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Knowledge base ready ("+cfg.Store.Type+")"))
			return nil
		})
	},
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored entries, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store rag.KnowledgeStore, cfg *config.Config) error {
			entries, err := store.ReadAll(ctx)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries, listLimit)
			return nil
		})
	},
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts per kind",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store rag.KnowledgeStore, cfg *config.Config) error {
			stats, err := rag.CollectStats(ctx, store)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbInitCmd, kbListCmd, kbStatsCmd)
	kbListCmd.Flags().IntVar(&listLimit, "limit", 0, "Show only the most recent N entries (0 for all)")
}

func withStore(cmd *cobra.Command, fn func(context.Context, rag.KnowledgeStore, *config.Config) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	store, err := orchestrator.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store, cfg)
}

func printEntries(out io.Writer, entries []rag.ContextEntry, limit int) {
	if len(entries) == 0 {
		fmt.Fprintln(out, contextStyle.Render("Knowledge base is empty"))
		return
	}

	start := 0
	if limit > 0 && limit < len(entries) {
		start = len(entries) - limit
	}

	rows := make([][]string, 0, len(entries)-start)
	for i, e := range entries[start:] {
		rows = append(rows, []string{
			strconv.Itoa(start + i + 1),
			string(e.Kind),
			truncate(e.Context, 60),
			strconv.Itoa(e.Dimension()),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Kind", "Context", "Dim"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))
}

func printStats(out io.Writer, stats rag.Stats) {
	kinds := make([]string, 0, len(stats.Kinds))
	for k := range stats.Kinds {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	rows := [][]string{
		{"entries", strconv.Itoa(stats.Entries)},
		{"dimension", strconv.Itoa(stats.Dimension)},
	}
	for _, k := range kinds {
		rows = append(rows, []string{k, strconv.Itoa(stats.Kinds[rag.Kind(k)])})
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}
