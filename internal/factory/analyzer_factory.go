package factory

import (
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// AnalyzerSettings builds the analysis service settings from configuration
func AnalyzerSettings(cfg *config.Config, logger *zap.Logger) (core.AnalyzerSettings, error) {
	cacheCfg, err := cfg.GetCache()
	if err != nil {
		return core.AnalyzerSettings{}, err
	}
	analysis := cfg.GetAnalysis()

	if len(analysis.WhitelistedDomains) > 0 {
		logger.Info("Loaded whitelisted domains", zap.Strings("domains", analysis.WhitelistedDomains))
	}

	return core.AnalyzerSettings{
		CacheEnabled:        cacheCfg.Enabled,
		CacheTTL:            cacheCfg.TTL,
		Temperature:         analysis.Temperature,
		FollowUpTemperature: analysis.FollowUpTemperature,
		MaxBodySize:         analysis.MaxBodySize,
		WhitelistedDomains:  analysis.WhitelistedDomains,
	}, nil
}
