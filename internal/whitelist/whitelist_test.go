package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsWhitelisted(t *testing.T) {
	c := NewChecker([]string{" Example.com ", "", "partner.org"}, zap.NewNop())

	assert.True(t, c.IsWhitelisted("dana@example.com"))
	assert.True(t, c.IsWhitelisted("Dana Smith <DANA@EXAMPLE.COM>"))
	assert.True(t, c.IsWhitelisted("ops@partner.org"))
	assert.False(t, c.IsWhitelisted("dana@mail.example.com"))
	assert.False(t, c.IsWhitelisted("not an address"))
	assert.False(t, c.IsWhitelisted(""))
}

func TestEmptyWhitelist(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.False(t, c.IsWhitelisted("dana@example.com"))
}
