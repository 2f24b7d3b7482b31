package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Yates-Labs/kural/internal/config"
	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/logging"
	"github.com/Yates-Labs/kural/internal/rag"
	"github.com/Yates-Labs/kural/internal/speech"
)

const analysisReply = `{"simplifiedTamil":"தமிழ்","simplifiedEnglish":"english","ilakkanam":{"ezuthu":"","sol":"","porul":"","yaappu":"venba","ani":""}}`

type mockSynthesizer struct {
	lastLang speech.Language
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string, lang speech.Language) ([]byte, error) {
	m.lastLang = lang
	return []byte("wav:" + text), nil
}

func newTestPipeline(t *testing.T, mutate func(*config.Config), llm literary.LLM, synth speech.Synthesizer) (*Pipeline, *rag.MemoryStore) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	store := rag.NewMemoryStore()
	p, err := NewPipelineFromComponents(&cfg, Components{
		Embedder: rag.NewHashEmbedder(32),
		Store:    store,
		LLM:      llm,
		Speech:   synth,
	}, logging.Discard())
	if err != nil {
		t.Fatalf("NewPipelineFromComponents failed: %v", err)
	}
	return p, store
}

func TestPipeline_AnalyzePoem(t *testing.T) {
	tests := []struct {
		name        string
		index       bool
		wantEntries int
	}{
		{name: "indexing off", index: false, wantEntries: 0},
		{name: "indexing on", index: true, wantEntries: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, store := newTestPipeline(t, func(c *config.Config) {
				c.Store.IndexAnalyses = tt.index
			}, literary.NewMockLLM(analysisReply), nil)

			analysis, err := p.AnalyzePoem(context.Background(), "கற்க கசடற")
			if err != nil {
				t.Fatalf("AnalyzePoem failed: %v", err)
			}
			if analysis.Ilakkanam.Yaappu != "venba" {
				t.Errorf("unexpected analysis %+v", analysis)
			}

			entries, _ := store.ReadAll(context.Background())
			if len(entries) != tt.wantEntries {
				t.Errorf("expected %d stored entries, got %d", tt.wantEntries, len(entries))
			}
		})
	}
}

func TestPipeline_AnalyzePoemInvalidJSON(t *testing.T) {
	p, _ := newTestPipeline(t, nil, literary.NewMockLLM("sorry, no"), nil)

	_, err := p.AnalyzePoem(context.Background(), "poem")
	if !errors.Is(err, literary.ErrInvalidAnalysisJSON) {
		t.Errorf("expected ErrInvalidAnalysisJSON, got %v", err)
	}
}

func TestPipeline_ChatAndStats(t *testing.T) {
	p, _ := newTestPipeline(t, nil, literary.NewMockLLM("answer"), nil)
	defer p.Close()

	reply, err := p.Chat(context.Background(), ChatRequest{Message: "q", Poem: "p", Analysis: &literary.Analysis{SimplifiedEnglish: "e"}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "answer" {
		t.Errorf("unexpected reply %q", reply)
	}

	stats, err := p.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 2 || stats.Dimension != 32 {
		t.Errorf("unexpected stats %+v", stats)
	}

	entries, err := p.Entries(context.Background())
	if err != nil || len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d (%v)", len(entries), err)
	}
}

func TestPipeline_Synthesize(t *testing.T) {
	synth := &mockSynthesizer{}
	p, _ := newTestPipeline(t, nil, literary.NewMockLLM("x"), synth)

	audio, err := p.Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "wav:hello" || synth.lastLang != speech.English {
		t.Errorf("unexpected synthesis %q in %q", audio, synth.lastLang)
	}

	if _, err := p.Synthesize(context.Background(), "hello", "klingon"); Classify(err) != KindInvalidRequest {
		t.Errorf("unknown language should be an invalid request, got %v", err)
	}
}

func TestPipeline_SynthesizeWithoutVoices(t *testing.T) {
	p, _ := newTestPipeline(t, nil, literary.NewMockLLM("x"), nil)

	if _, err := p.Synthesize(context.Background(), "hello", "ta"); !errors.Is(err, speech.ErrSynthesisFailed) {
		t.Errorf("expected ErrSynthesisFailed, got %v", err)
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		storeType string
		path      string
		wantType  string
	}{
		{storeType: config.StoreJSON, path: filepath.Join(dir, "kb.json"), wantType: "*rag.JSONFileStore"},
		{storeType: config.StoreMemory, wantType: "*rag.MemoryStore"},
		{storeType: config.StoreSQLite, path: filepath.Join(dir, "kb.db"), wantType: "*rag.SQLiteStore"},
	}

	for _, tt := range tests {
		t.Run(tt.storeType, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Type = tt.storeType
			cfg.Store.Path = tt.path

			store, err := NewStore(context.Background(), &cfg)
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}
			defer store.Close()

			if got := fmt.Sprintf("%T", store); got != tt.wantType {
				t.Errorf("expected %s, got %s", tt.wantType, got)
			}
		})
	}

	cfg := config.Default()
	cfg.Store.Type = "cassandra"
	if _, err := NewStore(context.Background(), &cfg); err == nil {
		t.Error("expected error for unknown store type")
	}
}

func TestNewEmbedder(t *testing.T) {
	cfg := config.Default()
	cfg.Embedder.Provider = config.EmbedderHash
	cfg.Embedder.Dimension = 64

	embedder, err := NewEmbedder(&cfg)
	if err != nil {
		t.Fatalf("NewEmbedder failed: %v", err)
	}
	if embedder.GetDimension() != 64 {
		t.Errorf("unexpected dimension %d", embedder.GetDimension())
	}

	cfg.Embedder.Provider = config.EmbedderOpenAI
	cfg.OpenAIAPIKey = ""
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewEmbedder(&cfg); !errors.Is(err, rag.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewSpeechRouter(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := config.Default()
	cfg.Speech.TamilURL = "http://localhost:5000/tts"

	router := NewSpeechRouter(&cfg, logging.Discard())
	if router.Languages() != 1 {
		t.Errorf("expected only the Tamil voice without an API key, got %d", router.Languages())
	}

	cfg.OpenAIAPIKey = "sk-test"
	if NewSpeechRouter(&cfg, logging.Discard()).Languages() != 2 {
		t.Error("expected both voices with an API key")
	}
}
