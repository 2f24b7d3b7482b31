package literary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPoem           = errors.New("poem text is required")
	ErrInvalidAnalysisJSON = errors.New("invalid JSON from LLM")
)

// InvalidAnalysisError carries the model output that failed to decode.
type InvalidAnalysisError struct {
	Raw string
	Err error
}

func (e *InvalidAnalysisError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidAnalysisJSON, e.Err)
}

func (e *InvalidAnalysisError) Unwrap() error { return e.Err }

func (e *InvalidAnalysisError) Is(target error) bool {
	return target == ErrInvalidAnalysisJSON
}

// Analyzer turns a poem into a structured Analysis using an LLM.
type Analyzer struct {
	llm LLM
}

// NewAnalyzer creates an analyzer backed by llm.
func NewAnalyzer(llm LLM) (*Analyzer, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrInvalidConfig)
	}
	return &Analyzer{llm: llm}, nil
}

// Analyze sends the fixed analysis prompt for poem and decodes the reply.
func (a *Analyzer) Analyze(ctx context.Context, poem string) (*Analysis, error) {
	if strings.TrimSpace(poem) == "" {
		return nil, ErrEmptyPoem
	}

	raw, err := a.llm.Generate(ctx, AnalysisPrompt(poem))
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(raw)
}

// ParseAnalysis decodes model output into an Analysis. Surrounding Markdown
// code fences are tolerated.
func ParseAnalysis(raw string) (*Analysis, error) {
	body := stripCodeFences(raw)
	if body == "" {
		return nil, ErrUpstreamEmptyResponse
	}

	var analysis Analysis
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&analysis); err != nil {
		return nil, &InvalidAnalysisError{Raw: raw, Err: err}
	}
	if dec.More() {
		return nil, &InvalidAnalysisError{Raw: raw, Err: errors.New("trailing data after JSON object")}
	}
	return &analysis, nil
}

// stripCodeFences removes a leading ``` or ```json line and a trailing ``` line.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
