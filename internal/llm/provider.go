package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrMissingCredential is returned by New when the selected provider has no
// API key configured.
var ErrMissingCredential = errors.New("provider credential is not configured")

// ProviderConfig selects and configures a model provider.
type ProviderConfig struct {
	Provider      string
	Model         string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// New builds the analyzer for the configured provider.
func New(ctx context.Context, cfg ProviderConfig) (Analyzer, error) {
	switch cfg.Provider {
	case "", ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, ErrMissingCredential
		}
		g, err := NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, ErrMissingCredential
		}
		o, err := NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
