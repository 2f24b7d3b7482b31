package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/kural/internal/orchestrator"
)

var (
	topK         int
	poemFile     string
	analysisFile string
	verbose      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about a poem using the knowledge base",
	Long: `Ask a question using RAG (Retrieval-Augmented Generation).

This command:
1. Stores the poem and its analysis (when both are given) in the knowledge base
2. Stores your question in the knowledge base
3. Retrieves the most similar stored context
4. Answers with an LLM (OpenAI)

Required environment variables:
  OPENAI_API_KEY     - OpenAI API key for embeddings and LLM

Examples:
  kural ask "What is the yaappu of this poem?" --poem-file poem.txt --analysis-file analysis.json
  kural ask "Which poems talk about friendship?" --topk 5
  kural ask "What does kelir mean?" --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVar(&topK, "topk", 0, "Number of context entries to retrieve (default from config, 3)")
	askCmd.Flags().StringVar(&poemFile, "poem-file", "", "File with the poem the question is about")
	askCmd.Flags().StringVar(&analysisFile, "analysis-file", "", "Analysis JSON from 'kural analyze --export'")
	askCmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed progress and knowledge base size")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("topk") {
		if topK < 1 {
			return fmt.Errorf("--topk must be at least 1")
		}
		cfg.Retrieval.TopK = topK
	}

	poem, err := readText("", poemFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	analysis, err := loadAnalysis(analysisFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Question:"))
	fmt.Fprintln(out, questionStyle.Render(question))
	fmt.Fprintln(out)

	ctx := commandContext(cmd)

	if verbose {
		fmt.Fprintln(out, contextStyle.Render("→ Initializing RAG pipeline..."))
	}
	pipeline, err := orchestrator.NewPipeline(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create RAG pipeline: %w", err)
	}
	defer pipeline.Close()

	if verbose {
		fmt.Fprintln(out, successStyle.Render("✓ RAG pipeline initialized"))
		fmt.Fprintln(out, contextStyle.Render("→ Retrieving relevant context and generating answer..."))
	}

	answer, err := pipeline.Chat(ctx, orchestrator.ChatRequest{
		Message:  question,
		Poem:     poem,
		Analysis: analysis,
	})
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	if verbose {
		if stats, err := pipeline.Stats(ctx); err == nil {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Knowledge base holds %d entries", stats.Entries)))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, headerStyle.Render("Answer:"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, answerStyle.Render(strings.TrimSpace(answer)))
	fmt.Fprintln(out)

	return nil
}
