package literary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrIncompleteAnalysis = errors.New("analysis has neither a Tamil nor an English simplification")

// Ilakkanam is the five-category traditional Tamil grammar breakdown of a poem.
type Ilakkanam struct {
	Ezuthu string `json:"ezuthu"` // letters / orthography
	Sol    string `json:"sol"`    // words
	Porul  string `json:"porul"`  // subject matter
	Yaappu string `json:"yaappu"` // prosody / meter
	Ani    string `json:"ani"`    // rhetorical figures
}

// Analysis is the structured result of analyzing one poem.
type Analysis struct {
	SimplifiedTamil   string    `json:"simplifiedTamil"`
	SimplifiedEnglish string    `json:"simplifiedEnglish"`
	Ilakkanam         Ilakkanam `json:"ilakkanam"`
}

// Validate reports whether the analysis carries at least one simplification.
func (a *Analysis) Validate() error {
	if a == nil {
		return ErrIncompleteAnalysis
	}
	if strings.TrimSpace(a.SimplifiedTamil) == "" && strings.TrimSpace(a.SimplifiedEnglish) == "" {
		return ErrIncompleteAnalysis
	}
	return nil
}

// poemBundle is the stored form of a poem and its analysis.
type poemBundle struct {
	Poem              string    `json:"poem"`
	SimplifiedTamil   string    `json:"simplifiedTamil"`
	SimplifiedEnglish string    `json:"simplifiedEnglish"`
	Ilakkanam         Ilakkanam `json:"ilakkanam"`
}

// BundleText serializes a poem with its analysis into the single text that is
// embedded and stored as a poem-analysis entry. A nil analysis stores the poem alone.
func BundleText(poem string, analysis *Analysis) (string, error) {
	bundle := poemBundle{Poem: poem}
	if analysis != nil {
		bundle.SimplifiedTamil = analysis.SimplifiedTamil
		bundle.SimplifiedEnglish = analysis.SimplifiedEnglish
		bundle.Ilakkanam = analysis.Ilakkanam
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(bundle); err != nil {
		return "", fmt.Errorf("failed to encode poem bundle: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
