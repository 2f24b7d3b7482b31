// Package speech converts analysis text into spoken audio.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyText           = errors.New("text is required")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSynthesisFailed     = errors.New("speech synthesis failed")
)

// Language is a BCP 47 primary language subtag.
type Language string

const (
	Tamil   Language = "ta"
	English Language = "en"
)

// ParseLanguage maps user input to a Language. Blank input means Tamil.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ta", "tamil":
		return Tamil, nil
	case "en", "english":
		return English, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
}

// Synthesizer renders text as WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang Language) ([]byte, error)
}

// Router dispatches to a synthesizer per language.
type Router struct {
	voices map[Language]Synthesizer
}

// NewRouter creates an empty router. Register voices with Handle.
func NewRouter() *Router {
	return &Router{voices: make(map[Language]Synthesizer)}
}

// Handle registers s for lang, replacing any previous registration.
func (r *Router) Handle(lang Language, s Synthesizer) *Router {
	if s != nil {
		r.voices[lang] = s
	}
	return r
}

// Languages reports how many languages have a voice.
func (r *Router) Languages() int {
	return len(r.voices)
}

// Synthesize implements Synthesizer.
func (r *Router) Synthesize(ctx context.Context, text string, lang Language) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	s, ok := r.voices[lang]
	if !ok {
		return nil, fmt.Errorf("%w: no voice for %q", ErrUnsupportedLanguage, lang)
	}
	return s.Synthesize(ctx, text, lang)
}
