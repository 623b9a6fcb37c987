package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/factory"
	"github.com/mikey/llm-email-assistant/internal/logging"
	"github.com/mikey/llm-email-assistant/internal/utils"
)

// CLIOptions contains the command line options that shape the CLI container
type CLIOptions struct {
	ConfigFile  string
	Provider    string
	Model       string
	ArtifactDir string
	Format      string
	Verbose     bool
	JSONLog     bool
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(opts *CLIOptions) (*dig.Container, error) {
	container := dig.New()

	// Register options
	if err := container.Provide(func() *CLIOptions { return opts }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(opts *CLIOptions) (*zap.Logger, error) {
		return logging.InitConsoleLogger(opts.Verbose, opts.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration, with command line overrides applied on top
	if err := container.Provide(func(opts *CLIOptions, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.NewWithFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		applyCLIOverrides(cfg, opts)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	// Register analyzer service with no cache
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.AnalyzerSettings, error) {
		settings, err := factory.AnalyzerSettings(cfg, logger)
		if err != nil {
			return core.AnalyzerSettings{}, err
		}
		settings.CacheEnabled = false
		return settings, nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		generator core.TextGenerator,
		followUps *core.FollowUpOrchestrator,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		settings core.AnalyzerSettings,
	) *core.AnalyzerService {
		return core.NewAnalyzerService(generator, nil, followUps, textProcessor, logger, settings)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// applyCLIOverrides copies non-empty command line options into the configuration
func applyCLIOverrides(cfg *config.Config, opts *CLIOptions) {
	v := cfg.GetViper()
	v.Set("server.intake_type", "cli")
	v.Set("cli.verbose", opts.Verbose)
	if opts.Format != "" {
		v.Set("cli.format", opts.Format)
	}
	if opts.ArtifactDir != "" {
		v.Set("followup.artifact_dir", opts.ArtifactDir)
	}
	if opts.Provider != "" {
		v.Set("llm.provider", opts.Provider)
	}
	if opts.Model == "" {
		return
	}
	switch v.GetString("llm.provider") {
	case "openai":
		v.Set("openai.model_name", opts.Model)
	case "gemini":
		v.Set("gemini.model_name", opts.Model)
	case "bedrock":
		v.Set("bedrock.model_id", opts.Model)
	}
}
