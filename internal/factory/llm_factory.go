package factory

import (
	"fmt"

	"github.com/mikey/llm-email-assistant/internal/adapters/bedrock"
	"github.com/mikey/llm-email-assistant/internal/adapters/gemini"
	"github.com/mikey/llm-email-assistant/internal/adapters/openai"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates text generators
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextGenerator creates a text generator for the configured provider
func (f *LLMFactory) CreateTextGenerator() (core.TextGenerator, error) {
	llmConfig := f.cfg.GetLLM()

	f.logger.Debug("Creating text generator", zap.String("provider", llmConfig.Provider))

	var generator core.TextGenerator
	switch llmConfig.Provider {
	case "openai":
		client, err := openai.NewFactory(f.cfg, f.logger).CreateClient()
		if err != nil {
			return nil, err
		}
		generator = client
	case "gemini":
		client, err := gemini.NewFactory(f.cfg, f.logger).CreateClient()
		if err != nil {
			return nil, err
		}
		generator = client
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg, f.logger).CreateClient()
		if err != nil {
			return nil, err
		}
		generator = client
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
	return generator, nil
}
