package cmd

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/kural/internal/logging"
	"github.com/Yates-Labs/kural/internal/orchestrator"
	"github.com/Yates-Labs/kural/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about a poem in the terminal",
	Long: `Open an interactive chat. Each message is stored in the knowledge base and
answered with retrieved context, exactly like the HTTP /chat endpoint.

Examples:
  kural chat
  kural chat --poem-file poem.txt --analysis-file analysis.json`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&poemFile, "poem-file", "", "File with the poem to discuss")
	chatCmd.Flags().StringVar(&analysisFile, "analysis-file", "", "Analysis JSON from 'kural analyze --export'")
}

func runChat(cmd *cobra.Command, args []string) error {
	if !logging.IsTerminal(os.Stdin) || !logging.IsTerminal(os.Stdout) {
		return errors.New("chat needs an interactive terminal; use 'kural ask' in scripts")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	poem, err := readText("", poemFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	analysis, err := loadAnalysis(analysisFile)
	if err != nil {
		return err
	}

	// logs would corrupt the alternate screen
	logger := logging.Discard()

	ctx := commandContext(cmd)
	pipeline, err := orchestrator.NewPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	program := tea.NewProgram(tui.New(pipeline, poem, analysis), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
