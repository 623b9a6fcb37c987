package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCleanEmail(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	in := "Hi   Dana,\r\n\r\n\r\nSee https://example.com/report?id=1 and www.example.org.\n\nThanks\n-- \nSent from my phone"
	got := tp.CleanEmail(in)

	assert.NotContains(t, got, "https://")
	assert.NotContains(t, got, "www.")
	assert.NotContains(t, got, "--")
	assert.NotContains(t, got, "\n\n")
	assert.NotContains(t, got, "  ")
	assert.True(t, strings.HasPrefix(got, "Hi Dana,\nSee"))
}

func TestCleanEmailNormalizesUnicode(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", tp.CleanEmail(decomposed))
}

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "short", tp.TruncateText("short", 0))

	got := tp.TruncateText("héllo world", 2)
	assert.True(t, strings.HasPrefix(got, "h\n"))
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "Content truncated")
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	assert.Equal(t, "valid", tp.SanitizeUTF8("valid"))
	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
	assert.Equal(t, "ok", tp.ProcessText("o\xfek", 10))
}
