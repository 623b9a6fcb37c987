package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-assistant/internal/config"
)

func TestCreateClientRequiresKey(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("gemini.api_key", "")

	_, err := NewFactory(config.NewFromViper(v), zap.NewNop()).CreateClient()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCreateClient(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("gemini.api_key", "test-key")
	v.Set("gemini.model_name", "gemini-1.5-flash")

	client, err := NewFactory(config.NewFromViper(v), zap.NewNop()).CreateClient()
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "Gemini", client.Name())
}
