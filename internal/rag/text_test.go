package rag

import (
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestNormalizeText(t *testing.T) {
	// "கொ" written as the precomposed vowel sign vs. its two-part decomposition
	composed := "கொ"
	decomposed := "கொ"

	if norm.NFC.String(decomposed) != composed {
		t.Skip("unicode tables do not compose this sequence")
	}

	if NormalizeText("  "+decomposed+"\n") != composed {
		t.Errorf("expected NFC-composed, trimmed text")
	}
}

func TestJoinContexts(t *testing.T) {
	if got := JoinContexts(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}

	got := JoinContexts([]ContextChunk{{Text: "a"}, {Text: "b"}, {Text: "c"}})
	if got != "a\n\nb\n\nc" {
		t.Errorf("unexpected join: %q", got)
	}
}
