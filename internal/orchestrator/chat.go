// Package orchestrator wires the knowledge store, retriever, language model
// and speech synthesis into the operations exposed by the CLI and HTTP server.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/logging"
	"github.com/Yates-Labs/kural/internal/rag"
)

// ChatRequest is one user turn.
type ChatRequest struct {
	Message  string             `json:"message"`
	Poem     string             `json:"poem,omitempty"`
	Analysis *literary.Analysis `json:"analysis,omitempty"`
}

// Chat answers questions about a poem using retrieved context.
type Chat struct {
	embedder  rag.Embedder
	store     rag.KnowledgeStore
	retriever *rag.Retriever
	llm       literary.LLM
	topK      int
	logger    *slog.Logger
}

// ChatOption customizes a Chat.
type ChatOption func(*chatOptions)

type chatOptions struct {
	topK     int
	minScore *float64
	logger   *slog.Logger
}

// WithTopK sets how many context entries each turn retrieves.
func WithTopK(k int) ChatOption {
	return func(o *chatOptions) { o.topK = k }
}

// WithMinScore drops retrieved entries scoring below min.
func WithMinScore(min float64) ChatOption {
	return func(o *chatOptions) { o.minScore = &min }
}

// WithLogger sets the logger; the chat tags it with component=chat.
func WithLogger(logger *slog.Logger) ChatOption {
	return func(o *chatOptions) { o.logger = logger }
}

// NewChat creates a chat orchestrator over the given collaborators.
func NewChat(embedder rag.Embedder, store rag.KnowledgeStore, llm literary.LLM, opts ...ChatOption) (*Chat, error) {
	if llm == nil {
		return nil, fmt.Errorf("LLM cannot be nil")
	}

	o := chatOptions{topK: rag.DefaultTopK}
	for _, opt := range opts {
		opt(&o)
	}
	if o.topK < 1 {
		return nil, fmt.Errorf("%w, got %d", rag.ErrInvalidTopK, o.topK)
	}

	var retrieverOpts []rag.RetrieverOption
	if o.minScore != nil {
		retrieverOpts = append(retrieverOpts, rag.WithMinScore(*o.minScore))
	}
	retriever, err := rag.NewRetriever(embedder, store, retrieverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	return &Chat{
		embedder:  embedder,
		store:     store,
		retriever: retriever,
		llm:       llm,
		topK:      o.topK,
		logger:    logging.Component(o.logger, "chat"),
	}, nil
}

// HandleMessage runs one chat turn. The poem bundle (when both poem and
// analysis are given) and the message are persisted before retrieval, so a
// message can retrieve itself. Persistence happens before the model call: a
// turn that fails upstream has still grown the store.
func (c *Chat) HandleMessage(ctx context.Context, req ChatRequest) (string, error) {
	if rag.NormalizeText(req.Message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	if req.Analysis != nil {
		if err := req.Analysis.Validate(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	if err := c.store.EnsureInitialized(ctx); err != nil {
		return "", fmt.Errorf("failed to initialize knowledge store: %w", err)
	}

	type pending struct {
		kind rag.Kind
		text string
	}
	var writes []pending

	if rag.NormalizeText(req.Poem) != "" && req.Analysis != nil {
		bundle, err := literary.BundleText(req.Poem, req.Analysis)
		if err != nil {
			return "", err
		}
		writes = append(writes, pending{kind: rag.KindPoemAnalysis, text: bundle})
	}
	// stored as typed; embedders normalize their own input
	writes = append(writes, pending{kind: rag.KindChatMessage, text: req.Message})

	texts := make([]string, len(writes))
	for i, w := range writes {
		texts[i] = w.text
	}
	records, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("failed to embed turn: %w", err)
	}
	if len(records) != len(texts) {
		return "", fmt.Errorf("%w: expected %d embeddings, got %d", rag.ErrEmbeddingFailed, len(texts), len(records))
	}

	for i, w := range writes {
		entry := rag.NewContextEntry(w.kind, w.text, records[i].Embedding)
		if err := c.store.Append(ctx, entry); err != nil {
			return "", fmt.Errorf("failed to store %s: %w", w.kind, err)
		}
		c.logger.Debug("stored context entry", slog.String("id", entry.ID), slog.String("kind", string(w.kind)))
	}

	// the message vector is the last record
	chunks, err := c.retriever.RetrieveByVector(ctx, records[len(records)-1].Embedding, c.topK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}
	c.logger.Info("retrieved context",
		slog.Int("chunks", len(chunks)),
		slog.Int("top_k", c.topK),
	)

	reply, err := c.llm.Generate(ctx, literary.ChatPrompt(rag.JoinContexts(chunks), req.Message))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", literary.ErrUpstreamEmptyResponse
	}
	return reply, nil
}

// IndexPoem stores a poem-analysis entry for poem and analysis.
func (c *Chat) IndexPoem(ctx context.Context, poem string, analysis *literary.Analysis) error {
	if rag.NormalizeText(poem) == "" {
		return literary.ErrEmptyPoem
	}
	if err := analysis.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	bundle, err := literary.BundleText(poem, analysis)
	if err != nil {
		return err
	}

	vector, err := rag.EmbedOne(ctx, c.embedder, bundle)
	if err != nil {
		return fmt.Errorf("failed to embed poem: %w", err)
	}

	entry := rag.NewContextEntry(rag.KindPoemAnalysis, bundle, vector)
	if err := c.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to store %s: %w", rag.KindPoemAnalysis, err)
	}
	c.logger.Info("indexed poem analysis", slog.String("id", entry.ID))
	return nil
}
