package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, "http", cfg.GetServer().IntakeType)
	assert.Equal(t, "127.0.0.1:8000", cfg.GetServer().ListenAddress)
	assert.Equal(t, 30, cfg.GetFollowUp().DurationMinutes)
	assert.Equal(t, 4096, cfg.GetAnalysis().MaxBodySize)
	assert.InDelta(t, 0.3, cfg.GetAnalysis().FollowUpTemperature, 1e-6)

	cal, err := cfg.GetCalendar()
	require.NoError(t, err)
	assert.Equal(t, "primary", cal.CalendarID)
	assert.Equal(t, 5*time.Minute, cal.AuthTimeout)
	assert.Equal(t, 10*time.Second, cal.ExpiryLeeway)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, "memory", cache.Type)
	assert.Equal(t, 24*time.Hour, cache.TTL)
}

func TestNewWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: gemini
followup:
  artifact_dir: `+dir+`/ics
  duration_minutes: 45
analysis:
  whitelisted_domains:
    - example.com
calendar:
  auth_timeout: 90s
`), 0o644))

	cfg, err := NewWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	assert.Equal(t, filepath.Join(dir, "ics"), cfg.GetFollowUp().ArtifactDir)
	assert.Equal(t, 45, cfg.GetFollowUp().DurationMinutes)
	assert.Equal(t, []string{"example.com"}, cfg.GetAnalysis().WhitelistedDomains)

	cal, err := cfg.GetCalendar()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cal.AuthTimeout)
}

func TestNewWithMissingFile(t *testing.T) {
	_, err := NewWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("EMAIL_ASSISTANT_LLM_PROVIDER", "bedrock")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ASSISTANT_HOME", "/srv/assistant")

	v := NewEmptyViper()
	v.Set("calendar.token_file", "$ASSISTANT_HOME/token.json")
	cfg := NewFromViper(v)

	assert.Equal(t, "bedrock", cfg.GetLLM().Provider)
	assert.Equal(t, "sk-test", cfg.GetOpenAI().APIKey)

	cal, err := cfg.GetCalendar()
	require.NoError(t, err)
	assert.Equal(t, "/srv/assistant/token.json", cal.TokenFile)
}

func TestInvalidDuration(t *testing.T) {
	v := NewEmptyViper()
	v.Set("cache.ttl", "soon")
	_, err := NewFromViper(v).GetCache()
	assert.Error(t, err)
}
