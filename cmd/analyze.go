package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/orchestrator"
)

var (
	analyzeFile string
	exportFile  string
	indexPoem   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [poem]",
	Short: "Analyze a Tamil poem",
	Long: `Analyze a Tamil poem and display:
- a simplified Tamil rendering
- a simplified English rendering
- the ilakkanam breakdown (ezuthu, sol, porul, yaappu, ani)

Examples:
  kural analyze "யாதும் ஊரே யாவரும் கேளிர்"
  kural analyze --file poem.txt --export analysis.json
  cat poem.txt | kural analyze --file - --index`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Read the poem from a file (- for stdin)")
	analyzeCmd.Flags().StringVar(&exportFile, "export", "", "Export the analysis to JSON file: --export <filename>")
	analyzeCmd.Flags().BoolVar(&indexPoem, "index", false, "Store the poem and analysis in the knowledge base")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	inline := ""
	if len(args) == 1 {
		inline = args[0]
	}
	poem, err := readText(inline, analyzeFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if strings.TrimSpace(poem) == "" {
		return errNoPoem
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("index") {
		cfg.Store.IndexAnalyses = indexPoem
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	pipeline, err := orchestrator.NewPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	analysis, err := pipeline.AnalyzePoem(ctx, poem)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if exportFile != "" {
		if err := exportAnalysis(analysis, exportFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Exported analysis to "+exportFile))
	}

	printAnalysis(cmd.OutOrStdout(), analysis)
	return nil
}

func exportAnalysis(analysis *literary.Analysis, path string) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printAnalysis(out io.Writer, a *literary.Analysis) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Simplified Tamil:"))
	fmt.Fprintln(out, answerStyle.Render(a.SimplifiedTamil))
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Simplified English:"))
	fmt.Fprintln(out, answerStyle.Render(a.SimplifiedEnglish))
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Ilakkanam:"))

	rows := [][]string{
		{"Ezuthu", a.Ilakkanam.Ezuthu},
		{"Sol", a.Ilakkanam.Sol},
		{"Porul", a.Ilakkanam.Porul},
		{"Yaappu", a.Ilakkanam.Yaappu},
		{"Ani", a.Ilakkanam.Ani},
	}
	fmt.Fprintln(out, renderTable([]string{"Category", "Analysis"}, rows, nil))
	fmt.Fprintln(out)
}
