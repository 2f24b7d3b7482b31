package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig selects the OpenAI speech model and voice.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

// DefaultOpenAIConfig returns tts-1 with the alloy voice.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model: string(openai.TTSModel1),
		Voice: string(openai.VoiceAlloy),
	}
}

// OpenAISynthesizer renders speech through OpenAI's audio API.
type OpenAISynthesizer struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAISynthesizer creates a synthesizer; the key falls back to OPENAI_API_KEY.
func NewOpenAISynthesizer(config OpenAIConfig) (*OpenAISynthesizer, error) {
	key := config.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY environment variable not set", ErrSynthesisFailed)
	}
	if config.Model == "" {
		config.Model = string(openai.TTSModel1)
	}
	if config.Voice == "" {
		config.Voice = string(openai.VoiceAlloy)
	}

	clientConfig := openai.DefaultConfig(key)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Synthesize implements Synthesizer.
func (o *OpenAISynthesizer) Synthesize(ctx context.Context, text string, _ Language) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %w", ErrSynthesisFailed, err)
	}
	return audio, nil
}
