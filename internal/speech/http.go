package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// HTTPSynthesizer calls a TTS service that accepts {"text": ...} and answers
// {"audio": <base64 wav>} or {"error": ...}.
type HTTPSynthesizer struct {
	url        string
	httpClient *http.Client
}

// HTTPOption customizes an HTTPSynthesizer.
type HTTPOption func(*HTTPSynthesizer)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTPSynthesizer) {
		if client != nil {
			h.httpClient = client
		}
	}
}

// NewHTTPSynthesizer creates a synthesizer posting to url.
func NewHTTPSynthesizer(url string, opts ...HTTPOption) (*HTTPSynthesizer, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: TTS service URL is required", ErrSynthesisFailed)
	}
	h := &HTTPSynthesizer{
		url:        url,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type ttsRequest struct {
	Text string `json:"text"`
}

type ttsResponse struct {
	Audio string `json:"audio"`
	Error string `json:"error"`
}

// Synthesize implements Synthesizer. The service is language-specific, so lang is not sent.
func (h *HTTPSynthesizer) Synthesize(ctx context.Context, text string, _ Language) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	body, err := json.Marshal(ttsRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrSynthesisFailed, err)
	}

	var decoded ttsResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: status %d: undecodable response", ErrSynthesisFailed, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || decoded.Error != "" {
		msg := decoded.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrSynthesisFailed, resp.StatusCode, msg)
	}
	if decoded.Audio == "" {
		return nil, fmt.Errorf("%w: empty audio", ErrSynthesisFailed)
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.Audio)
	if err != nil {
		return nil, fmt.Errorf("%w: decode audio: %w", ErrSynthesisFailed, err)
	}
	return audio, nil
}
