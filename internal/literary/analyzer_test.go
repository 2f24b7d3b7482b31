package literary

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const validAnalysisJSON = `{
  "simplifiedTamil": "எல்லா ஊரும் நம் ஊர்",
  "simplifiedEnglish": "Every town is our town",
  "ilakkanam": {
    "ezuthu": "e",
    "sol": "s",
    "porul": "p",
    "yaappu": "y",
    "ani": "a"
  }
}`

func TestAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  error
	}{
		{name: "plain json", response: validAnalysisJSON},
		{name: "json fence", response: "```json\n" + validAnalysisJSON + "\n```"},
		{name: "bare fence", response: "```\n" + validAnalysisJSON + "\n```\n"},
		{name: "surrounding whitespace", response: "\n\n  " + validAnalysisJSON + "  \n"},
		{name: "blank", response: "   ", wantErr: ErrUpstreamEmptyResponse},
		{name: "empty fence", response: "```json\n```", wantErr: ErrUpstreamEmptyResponse},
		{name: "prose", response: "Here is the analysis you asked for.", wantErr: ErrInvalidAnalysisJSON},
		{name: "truncated", response: `{"simplifiedTamil": "x"`, wantErr: ErrInvalidAnalysisJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := NewMockLLM(tt.response)
			analyzer, err := NewAnalyzer(llm)
			if err != nil {
				t.Fatalf("NewAnalyzer failed: %v", err)
			}

			analysis, err := analyzer.Analyze(context.Background(), "யாதும் ஊரே யாவரும் கேளிர்")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if analysis.SimplifiedEnglish != "Every town is our town" {
				t.Errorf("unexpected english: %q", analysis.SimplifiedEnglish)
			}
			if analysis.Ilakkanam.Yaappu != "y" || analysis.Ilakkanam.Ani != "a" {
				t.Errorf("unexpected ilakkanam: %+v", analysis.Ilakkanam)
			}
			if !strings.Contains(llm.LastPrompt, `"""யாதும் ஊரே யாவரும் கேளிர்"""`) {
				t.Errorf("poem not embedded in prompt: %q", llm.LastPrompt)
			}
		})
	}
}

func TestAnalyzer_InvalidJSONKeepsRaw(t *testing.T) {
	analyzer, _ := NewAnalyzer(NewMockLLM("not json at all"))

	_, err := analyzer.Analyze(context.Background(), "poem")

	var invalid *InvalidAnalysisError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidAnalysisError, got %T", err)
	}
	if invalid.Raw != "not json at all" {
		t.Errorf("raw output not preserved: %q", invalid.Raw)
	}
}

func TestAnalyzer_EmptyPoem(t *testing.T) {
	llm := NewMockLLM(validAnalysisJSON)
	analyzer, _ := NewAnalyzer(llm)

	_, err := analyzer.Analyze(context.Background(), " \n\t")
	if !errors.Is(err, ErrEmptyPoem) {
		t.Fatalf("expected ErrEmptyPoem, got %v", err)
	}
	if llm.Calls != 0 {
		t.Error("LLM should not be called for an empty poem")
	}
}

func TestAnalyzer_LLMError(t *testing.T) {
	analyzer, _ := NewAnalyzer(NewMockLLMWithError(ErrLLMFailed))

	_, err := analyzer.Analyze(context.Background(), "poem")
	if !errors.Is(err, ErrLLMFailed) {
		t.Errorf("expected ErrLLMFailed, got %v", err)
	}
}

func TestNewAnalyzer_NilLLM(t *testing.T) {
	if _, err := NewAnalyzer(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}```", want: `{"a":1}`},
		{in: "  ```JSON\n{}\n```  ", want: "{}"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
