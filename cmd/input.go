package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Yates-Labs/kural/internal/literary"
)

// readText returns inline when set, otherwise the contents of path ("-" is stdin).
func readText(inline, path string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if path == "" {
		return "", nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// loadAnalysis reads a saved analysis, as written by "kural analyze --export".
func loadAnalysis(path string) (*literary.Analysis, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis: %w", err)
	}
	analysis, err := literary.ParseAnalysis(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse analysis %s: %w", path, err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("analysis %s: %w", path, err)
	}
	return analysis, nil
}

var errNoPoem = errors.New("no poem given: pass it as an argument, with --file, or --file - for stdin")
