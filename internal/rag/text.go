package rag

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ContextSeparator joins retrieved context fragments.
const ContextSeparator = "\n\n"

// NormalizeText trims surrounding whitespace and converts the text to Unicode NFC,
// so Tamil strings with equivalent code-point sequences embed and compare identically.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// JoinContexts concatenates chunk texts in order. No chunks yields "".
func JoinContexts(chunks []ContextChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	return strings.Join(texts, ContextSeparator)
}
