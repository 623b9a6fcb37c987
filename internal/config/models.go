package config

import (
	"os"
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region    string
	ModelID   string
	MaxTokens int
	TopP      float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
	MaxTokens int
	TopP      float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	ModelName string
	MaxTokens int
	TopP      float32
}

// AnalysisConfig represents the prompt and preprocessing settings
type AnalysisConfig struct {
	Temperature         float32
	FollowUpTemperature float32
	MaxBodySize         int
	WhitelistedDomains  []string
}

// FollowUpConfig represents where and how local calendar artifacts are written
type FollowUpConfig struct {
	ArtifactDir     string
	DurationMinutes int
}

// CalendarConfig represents the remote calendar settings
type CalendarConfig struct {
	ClientSecretsFile string
	TokenFile         string
	CalendarID        string
	Endpoint          string
	AuthTimeout       time.Duration
	ExpiryLeeway      time.Duration
}

// ServerConfig represents the intake settings
type ServerConfig struct {
	IntakeType        string
	ListenAddress     string
	BasePath          string
	SMTPListenAddress string
	SMTPDomain        string
}

// CacheConfig represents the generation cache settings
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:    c.GetString("bedrock.region"),
		ModelID:   c.GetString("bedrock.model_id"),
		MaxTokens: c.GetInt("bedrock.max_tokens"),
		TopP:      float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
		MaxTokens: c.GetInt("gemini.max_tokens"),
		TopP:      float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		BaseURL:   c.GetString("openai.base_url"),
		ModelName: c.GetString("openai.model_name"),
		MaxTokens: c.GetInt("openai.max_tokens"),
		TopP:      float32(c.GetFloat64("openai.top_p")),
	}
}

// GetAnalysis returns the analysis configuration
func (c *Config) GetAnalysis() AnalysisConfig {
	return AnalysisConfig{
		Temperature:         float32(c.GetFloat64("analysis.temperature")),
		FollowUpTemperature: float32(c.GetFloat64("analysis.followup_temperature")),
		MaxBodySize:         c.GetInt("analysis.max_body_size"),
		WhitelistedDomains:  c.GetStringSlice("analysis.whitelisted_domains"),
	}
}

// GetFollowUp returns the follow-up artifact configuration
func (c *Config) GetFollowUp() FollowUpConfig {
	return FollowUpConfig{
		ArtifactDir:     os.ExpandEnv(c.GetString("followup.artifact_dir")),
		DurationMinutes: c.GetInt("followup.duration_minutes"),
	}
}

// GetCalendar returns the remote calendar configuration
func (c *Config) GetCalendar() (CalendarConfig, error) {
	authTimeout, err := c.GetDuration("calendar.auth_timeout")
	if err != nil {
		return CalendarConfig{}, err
	}
	leeway, err := c.GetDuration("calendar.expiry_leeway")
	if err != nil {
		return CalendarConfig{}, err
	}

	return CalendarConfig{
		ClientSecretsFile: os.ExpandEnv(c.GetString("calendar.client_secrets_file")),
		TokenFile:         os.ExpandEnv(c.GetString("calendar.token_file")),
		CalendarID:        c.GetString("calendar.calendar_id"),
		Endpoint:          c.GetString("calendar.endpoint"),
		AuthTimeout:       authTimeout,
		ExpiryLeeway:      leeway,
	}, nil
}

// GetServer returns the intake configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		IntakeType:        c.GetString("server.intake_type"),
		ListenAddress:     c.GetString("server.listen_address"),
		BasePath:          c.GetString("server.base_path"),
		SMTPListenAddress: c.GetString("server.smtp.listen_address"),
		SMTPDomain:        c.GetString("server.smtp.domain"),
	}
}

// GetCache returns the generation cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       os.ExpandEnv(c.GetString("cache.sqlite_path")),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}
