package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/rag"
)

// countingEmbedder wraps the hash embedder and counts Embed calls
type countingEmbedder struct {
	*rag.HashEmbedder
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([]rag.EmbeddingRecord, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.HashEmbedder.Embed(ctx, texts)
}

// failingStore rejects every append
type failingStore struct {
	*rag.MemoryStore
}

func (f *failingStore) Append(ctx context.Context, entry rag.ContextEntry) error {
	return &rag.StorageError{Op: "write", Path: "test", Err: errors.New("disk full")}
}

func newTestChat(t *testing.T, llm literary.LLM, opts ...ChatOption) (*Chat, *rag.MemoryStore, *countingEmbedder) {
	t.Helper()
	store := rag.NewMemoryStore()
	embedder := &countingEmbedder{HashEmbedder: rag.NewHashEmbedder(128)}
	chat, err := NewChat(embedder, store, llm, opts...)
	if err != nil {
		t.Fatalf("NewChat failed: %v", err)
	}
	return chat, store, embedder
}

func readAll(t *testing.T, store rag.KnowledgeStore) []rag.ContextEntry {
	t.Helper()
	entries, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	return entries
}

func sampleAnalysis() *literary.Analysis {
	return &literary.Analysis{
		SimplifiedTamil:   "எல்லா ஊரும் நம் ஊர்; எல்லாரும் நம் உறவினர்",
		SimplifiedEnglish: "Every town is our town; everyone is our kin",
		Ilakkanam: literary.Ilakkanam{
			Yaappu: "Aasiriyappa",
			Ani:    "Uvamai",
		},
	}
}

func TestHandleMessage_EmptyMessage(t *testing.T) {
	llm := literary.NewMockLLM("unused")
	chat, store, embedder := newTestChat(t, llm)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := chat.HandleMessage(context.Background(), ChatRequest{Message: msg, Poem: "poem", Analysis: sampleAnalysis()})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("message %q: expected ErrInvalidRequest, got %v", msg, err)
		}
		if Classify(err) != KindInvalidRequest {
			t.Errorf("expected KindInvalidRequest, got %v", Classify(err))
		}
	}

	if n := len(readAll(t, store)); n != 0 {
		t.Errorf("store must not be mutated, got %d entries", n)
	}
	if embedder.calls != 0 || llm.Calls != 0 {
		t.Error("no collaborator should be called for an invalid request")
	}
}

func TestHandleMessage_EmptyModelResponsePersistsMessageFirst(t *testing.T) {
	chat, store, _ := newTestChat(t, literary.NewMockLLM("  \n "))

	_, err := chat.HandleMessage(context.Background(), ChatRequest{Message: "What is the ani?"})
	if !errors.Is(err, literary.ErrUpstreamEmptyResponse) {
		t.Fatalf("expected ErrUpstreamEmptyResponse, got %v", err)
	}
	if Classify(err) != KindUpstreamEmptyResponse {
		t.Errorf("expected KindUpstreamEmptyResponse, got %v", Classify(err))
	}

	// the message is written before the model is asked
	entries := readAll(t, store)
	if len(entries) != 1 {
		t.Fatalf("expected the user message to be persisted, got %d entries", len(entries))
	}
	if entries[0].Kind != rag.KindChatMessage || entries[0].Context != "What is the ani?" {
		t.Errorf("unexpected persisted entry: %+v", entries[0])
	}
}

func TestHandleMessage_PoemAndAnalysis(t *testing.T) {
	llm := literary.NewMockLLM("The ani is uvamai.")
	chat, store, embedder := newTestChat(t, llm)

	reply, err := chat.HandleMessage(context.Background(), ChatRequest{
		Message:  "What is the ani?",
		Poem:     "யாதும் ஊரே யாவரும் கேளிர்",
		Analysis: sampleAnalysis(),
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply != "The ani is uvamai." {
		t.Errorf("reply should be returned verbatim, got %q", reply)
	}

	entries := readAll(t, store)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Kind != rag.KindPoemAnalysis || entries[1].Kind != rag.KindChatMessage {
		t.Errorf("poem bundle must be appended before the message: %s, %s", entries[0].Kind, entries[1].Kind)
	}
	if !strings.Contains(entries[0].Context, `"poem":"யாதும் ஊரே யாவரும் கேளிர்"`) {
		t.Errorf("bundle missing poem: %s", entries[0].Context)
	}
	if !strings.HasPrefix(entries[0].ID, "poem-analysis-") || !strings.HasPrefix(entries[1].ID, "chat-message-") {
		t.Errorf("unexpected ids %s, %s", entries[0].ID, entries[1].ID)
	}

	if embedder.calls != 1 {
		t.Errorf("bundle and message should be embedded in one call, got %d", embedder.calls)
	}

	if !strings.Contains(llm.LastPrompt, "User Question:\nWhat is the ani?") {
		t.Errorf("prompt missing question:\n%s", llm.LastPrompt)
	}
	if !strings.Contains(llm.LastPrompt, "Every town is our town") {
		t.Errorf("prompt should carry the stored analysis as context:\n%s", llm.LastPrompt)
	}
}

func TestHandleMessage_PoemWithoutAnalysis(t *testing.T) {
	chat, store, _ := newTestChat(t, literary.NewMockLLM("ok"))

	if _, err := chat.HandleMessage(context.Background(), ChatRequest{Message: "hi", Poem: "poem only"}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	entries := readAll(t, store)
	if len(entries) != 1 || entries[0].Kind != rag.KindChatMessage {
		t.Errorf("only the message should be stored, got %+v", entries)
	}
}

func TestHandleMessage_BlankPoemIgnored(t *testing.T) {
	chat, store, _ := newTestChat(t, literary.NewMockLLM("ok"))

	_, err := chat.HandleMessage(context.Background(), ChatRequest{Message: "hi", Poem: "   ", Analysis: sampleAnalysis()})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if n := len(readAll(t, store)); n != 1 {
		t.Errorf("blank poem should not be stored, got %d entries", n)
	}
}

func TestHandleMessage_IncompleteAnalysis(t *testing.T) {
	chat, store, _ := newTestChat(t, literary.NewMockLLM("ok"))

	_, err := chat.HandleMessage(context.Background(), ChatRequest{
		Message:  "hi",
		Poem:     "poem",
		Analysis: &literary.Analysis{},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if n := len(readAll(t, store)); n != 0 {
		t.Errorf("store must not be mutated, got %d entries", n)
	}
}

func TestHandleMessage_MessageRetrievesItself(t *testing.T) {
	llm := literary.NewMockLLM("ok")
	chat, _, _ := newTestChat(t, llm)

	if _, err := chat.HandleMessage(context.Background(), ChatRequest{Message: "tell me about yaappu"}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(llm.LastPrompt, "Context:\ntell me about yaappu\n\n") {
		t.Errorf("first message should be its own context:\n%s", llm.LastPrompt)
	}
}

func TestHandleMessage_TopK(t *testing.T) {
	llm := literary.NewMockLLM("ok")
	chat, _, _ := newTestChat(t, llm, WithTopK(2))

	for _, msg := range []string{"first question", "second question", "third question", "fourth question"} {
		if _, err := chat.HandleMessage(context.Background(), ChatRequest{Message: msg}); err != nil {
			t.Fatalf("HandleMessage failed: %v", err)
		}
	}

	section := llm.LastPrompt[strings.Index(llm.LastPrompt, "Context:\n")+len("Context:\n") : strings.Index(llm.LastPrompt, "\n\nUser Question:")]
	if got := len(strings.Split(section, rag.ContextSeparator)); got != 2 {
		t.Errorf("expected 2 context fragments, got %d in %q", got, section)
	}
	if !strings.HasPrefix(section, "fourth question") {
		t.Errorf("current message should rank first, got %q", section)
	}
}

func TestHandleMessage_EmbedderFailure(t *testing.T) {
	chat, store, embedder := newTestChat(t, literary.NewMockLLM("ok"))
	embedder.err = rag.ErrEmbeddingFailed

	_, err := chat.HandleMessage(context.Background(), ChatRequest{Message: "hi"})
	if Classify(err) != KindUpstream {
		t.Errorf("expected KindUpstream, got %v (%v)", Classify(err), err)
	}
	if n := len(readAll(t, store)); n != 0 {
		t.Errorf("nothing should be stored when embedding fails, got %d", n)
	}
}

func TestHandleMessage_StorageFailure(t *testing.T) {
	llm := literary.NewMockLLM("ok")
	store := &failingStore{MemoryStore: rag.NewMemoryStore()}
	chat, err := NewChat(rag.NewHashEmbedder(16), store, llm)
	if err != nil {
		t.Fatalf("NewChat failed: %v", err)
	}

	_, err = chat.HandleMessage(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Is(err, rag.ErrStorage) || Classify(err) != KindStorage {
		t.Errorf("expected storage error, got %v", err)
	}
	if llm.Calls != 0 {
		t.Error("model must not be called when persistence fails")
	}
}

func TestHandleMessage_LLMFailure(t *testing.T) {
	chat, _, _ := newTestChat(t, literary.NewMockLLMWithError(literary.ErrLLMFailed))

	_, err := chat.HandleMessage(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Is(err, literary.ErrLLMFailed) || Classify(err) != KindUpstream {
		t.Errorf("expected upstream LLM error, got %v", err)
	}
}

func TestNewChat_Validation(t *testing.T) {
	embedder := rag.NewHashEmbedder(8)
	store := rag.NewMemoryStore()
	llm := literary.NewMockLLM("ok")

	if _, err := NewChat(embedder, store, nil); err == nil {
		t.Error("expected error for nil LLM")
	}
	if _, err := NewChat(nil, store, llm); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewChat(embedder, store, llm, WithTopK(0)); !errors.Is(err, rag.ErrInvalidTopK) {
		t.Errorf("expected ErrInvalidTopK, got %v", err)
	}
}

func TestIndexPoem(t *testing.T) {
	chat, store, _ := newTestChat(t, literary.NewMockLLM("ok"))

	if err := chat.IndexPoem(context.Background(), "  ", sampleAnalysis()); !errors.Is(err, literary.ErrEmptyPoem) {
		t.Errorf("expected ErrEmptyPoem, got %v", err)
	}
	if err := chat.IndexPoem(context.Background(), "poem", nil); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if err := chat.IndexPoem(context.Background(), "poem", sampleAnalysis()); err != nil {
		t.Fatalf("IndexPoem failed: %v", err)
	}

	entries := readAll(t, store)
	if len(entries) != 1 || entries[0].Kind != rag.KindPoemAnalysis {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestHandleMessage_DimensionMismatch(t *testing.T) {
	llm := literary.NewMockLLM("unused")
	chat, store, _ := newTestChat(t, llm)

	// a store built with a different embedder
	old := rag.ContextEntry{ID: "old", Kind: rag.KindChatMessage, Context: "old", Embedding: []float32{1, 0, 0}}
	if err := store.Append(context.Background(), old); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	_, err := chat.HandleMessage(context.Background(), ChatRequest{Message: "hello"})
	if !errors.Is(err, rag.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if Classify(err) != KindDimensionMismatch {
		t.Errorf("expected KindDimensionMismatch, got %v", Classify(err))
	}
	if llm.Calls != 0 {
		t.Error("LLM must not be called when the message cannot be stored")
	}
	if n := len(readAll(t, store)); n != 1 {
		t.Errorf("mismatched entry must not be stored, got %d entries", n)
	}
}

func TestHandleMessage_StoresMessageAsTyped(t *testing.T) {
	llm := literary.NewMockLLM("")
	chat, store, _ := newTestChat(t, llm)

	raw := "  அணி என்ன?\n"
	if _, err := chat.HandleMessage(context.Background(), ChatRequest{Message: raw}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	entries := readAll(t, store)
	if len(entries) != 1 || entries[0].Context != raw {
		t.Fatalf("message should be stored verbatim, got %+v", entries)
	}
	if !strings.Contains(llm.LastPrompt, "User Question:\n"+raw) {
		t.Errorf("prompt should carry the message as typed:\n%s", llm.LastPrompt)
	}
}
