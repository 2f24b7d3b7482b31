package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/kural/internal/orchestrator"
	"github.com/Yates-Labs/kural/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API used by the web front end.

Endpoints:
  POST /chat          {message, poem?, analysis?} -> {response}
  POST /analyze-poem  {prompt} -> analysis JSON
  POST /tts           {text, language?} -> {audio}
  GET  /kb/stats      knowledge base summary
  GET  /healthz       liveness

Required environment variables:
  OPENAI_API_KEY     - OpenAI API key for embeddings and the LLM

Examples:
  kural serve
  kural serve --addr :9000 --store sqlite --store-path kural.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
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

	srv := server.New(pipeline, server.Options{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
		Logger:          logger,
	})
	return srv.Run(ctx)
}
