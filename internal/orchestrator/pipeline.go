package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Yates-Labs/kural/internal/config"
	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/logging"
	"github.com/Yates-Labs/kural/internal/rag"
	"github.com/Yates-Labs/kural/internal/speech"
)

// Components are the external collaborators a Pipeline runs on.
type Components struct {
	Embedder rag.Embedder
	Store    rag.KnowledgeStore
	LLM      literary.LLM
	Speech   speech.Synthesizer
}

// Pipeline bundles every operation the service exposes.
type Pipeline struct {
	config   *config.Config
	logger   *slog.Logger
	store    rag.KnowledgeStore
	embedder rag.Embedder
	chat     *Chat
	analyzer *literary.Analyzer
	speech   speech.Synthesizer
}

// NewPipeline builds the embedder, store, LLM and voices described by cfg.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	logger = logging.Component(logger, "pipeline")

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge store: %w", err)
	}

	llm, err := literary.NewOpenAILLM(literary.LLMConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}

	p, err := NewPipelineFromComponents(cfg, Components{
		Embedder: embedder,
		Store:    store,
		LLM:      llm,
		Speech:   NewSpeechRouter(cfg, logger),
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("pipeline ready",
		slog.String("store", cfg.Store.Type),
		slog.String("embedder", embedder.GetModel()),
		slog.Int("dimension", embedder.GetDimension()),
		slog.String("llm", cfg.LLM.Model),
	)
	return p, nil
}

// NewPipelineFromComponents assembles a pipeline over caller-supplied collaborators.
func NewPipelineFromComponents(cfg *config.Config, c Components, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}

	opts := []ChatOption{WithTopK(cfg.Retrieval.TopK), WithLogger(logger)}
	if cfg.Retrieval.MinScore != nil {
		opts = append(opts, WithMinScore(*cfg.Retrieval.MinScore))
	}
	chat, err := NewChat(c.Embedder, c.Store, c.LLM, opts...)
	if err != nil {
		return nil, err
	}

	analyzer, err := literary.NewAnalyzer(c.LLM)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:   cfg,
		logger:   logging.Component(logger, "pipeline"),
		store:    c.Store,
		embedder: c.Embedder,
		chat:     chat,
		analyzer: analyzer,
		speech:   c.Speech,
	}, nil
}

// Chat runs one chat turn.
func (p *Pipeline) Chat(ctx context.Context, req ChatRequest) (string, error) {
	return p.chat.HandleMessage(ctx, req)
}

// AnalyzePoem analyzes poem and, when store.index_analyses is on, stores the
// result as a poem-analysis entry. Indexing failures are logged and do not
// fail the analysis.
func (p *Pipeline) AnalyzePoem(ctx context.Context, poem string) (*literary.Analysis, error) {
	analysis, err := p.analyzer.Analyze(ctx, poem)
	if err != nil {
		return nil, err
	}

	if p.config.Store.IndexAnalyses {
		if err := p.chat.IndexPoem(ctx, poem, analysis); err != nil {
			p.logger.Warn("failed to index poem analysis", slog.Any("error", err))
		}
	}
	return analysis, nil
}

// Synthesize renders text as WAV audio in the given language ("ta" or "en").
func (p *Pipeline) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if p.speech == nil {
		return nil, fmt.Errorf("%w: no speech voices configured", speech.ErrSynthesisFailed)
	}
	lang, err := speech.ParseLanguage(language)
	if err != nil {
		return nil, err
	}
	return p.speech.Synthesize(ctx, text, lang)
}

// Stats summarizes the knowledge store.
func (p *Pipeline) Stats(ctx context.Context) (rag.Stats, error) {
	return rag.CollectStats(ctx, p.store)
}

// Entries returns every stored entry in insertion order.
func (p *Pipeline) Entries(ctx context.Context) ([]rag.ContextEntry, error) {
	return p.store.ReadAll(ctx)
}

// Close releases resources held by the pipeline.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// NewEmbedder builds the embedding provider named by cfg.
func NewEmbedder(cfg *config.Config) (rag.Embedder, error) {
	switch cfg.Embedder.Provider {
	case config.EmbedderHash:
		return rag.NewHashEmbedder(cfg.Embedder.Dimension), nil
	case config.EmbedderOpenAI, "":
		embedder, err := rag.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Embedder.BaseURL, cfg.Embedder.Model, cfg.Embedder.Dimension)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Embedder.Provider)
	}
}

// NewStore opens the knowledge store backend named by cfg.
func NewStore(ctx context.Context, cfg *config.Config) (rag.KnowledgeStore, error) {
	switch cfg.Store.Type {
	case config.StoreJSON, "":
		return rag.NewJSONFileStore(cfg.Store.Path), nil
	case config.StoreMemory:
		return rag.NewMemoryStore(), nil
	case config.StoreSQLite:
		store, err := rag.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreRedis:
		rc := rag.DefaultRedisConfig()
		rc.Address = cfg.Store.Redis.Address
		rc.Password = cfg.Store.Redis.Password
		rc.DB = cfg.Store.Redis.DB
		rc.Key = cfg.Store.Redis.Key
		store, err := rag.NewRedisStore(ctx, rc)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMilvus:
		mc := rag.DefaultMilvusConfig()
		mc.Address = cfg.Store.Milvus.Address
		mc.CollectionName = cfg.Store.Milvus.Collection
		mc.Dimension = cfg.Embedder.Dimension
		store, err := rag.NewMilvusStore(ctx, mc)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// NewSpeechRouter registers the voices cfg makes available. A voice that
// cannot be built is skipped.
func NewSpeechRouter(cfg *config.Config, logger *slog.Logger) *speech.Router {
	router := speech.NewRouter()

	if cfg.Speech.TamilURL != "" {
		tamil, err := speech.NewHTTPSynthesizer(cfg.Speech.TamilURL)
		if err != nil {
			logger.Warn("tamil voice disabled", slog.Any("error", err))
		} else {
			router.Handle(speech.Tamil, tamil)
		}
	}

	english, err := speech.NewOpenAISynthesizer(speech.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.Speech.OpenAIModel,
		Voice:  cfg.Speech.OpenAIVoice,
	})
	if err != nil {
		logger.Debug("english voice disabled", slog.Any("error", err))
	} else {
		router.Handle(speech.English, english)
	}

	return router
}
