package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/kural/internal/config"
	"github.com/Yates-Labs/kural/internal/logging"
)

var (
	configPath   string
	logLevel     string
	storeType    string
	storePath    string
	embedderName string
)

var rootCmd = &cobra.Command{
	Use:   "kural",
	Short: "Kural - Tamil poem analysis and retrieval-augmented chat",
	Long: `Kural analyzes Tamil poems with a language model and answers follow-up
questions using a persistent knowledge base of poems, analyses and past questions.

Every chat turn is stored in the knowledge base, embedded, and used as
retrievable context for later turns.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML or TOML config file")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&storeType, "store", "", "Knowledge store: json, memory, sqlite, redis, milvus")
	flags.StringVar(&storePath, "store-path", "", "Knowledge store file for the json and sqlite stores")
	flags.StringVar(&embedderName, "embedder", "", "Embedding provider: openai or hash")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves the file, the environment and the persistent flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("store") {
		cfg.Store.Type = storeType
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = storePath
	}
	if flags.Changed("embedder") {
		cfg.Embedder.Provider = embedderName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// commandContext returns the context cobra was executed with.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
