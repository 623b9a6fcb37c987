package gemini

import (
	"context"
	"errors"

	"github.com/mikey/llm-email-assistant/internal/config"
	"go.uber.org/zap"
)

// ErrMissingAPIKey is returned when no Gemini key is configured
var ErrMissingAPIKey = errors.New("Gemini API key is not configured (set GEMINI_API_KEY)")

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new GeminiClient
func (f *Factory) CreateClient() (*GeminiClient, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return NewGeminiClient(
		context.Background(),
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.TopP,
		f.logger,
	)
}
