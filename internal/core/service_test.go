package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-assistant/internal/utils"
)

func newTestService(generator TextGenerator, cache CacheRepository, writer ArtifactWriter, settings AnalyzerSettings) *AnalyzerService {
	logger := zap.NewNop()
	orchestrator := newTestOrchestrator(writer, nil, nil)
	if settings.MaxBodySize == 0 {
		settings.MaxBodySize = 4096
	}
	return NewAnalyzerService(generator, cache, orchestrator, utils.NewTextProcessor(logger), logger, settings)
}

func TestRunRejectsEmptyText(t *testing.T) {
	svc := newTestService(newScriptedGenerator(decisionJSON), nil, nil, AnalyzerSettings{})

	_, err := svc.Run(context.Background(), KindSummary, "  \n ")
	assert.ErrorIs(t, err, ErrEmptyEmail)
	_, err = svc.FollowUp(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyEmail)
	_, err = svc.Analyze(context.Background(), &Email{})
	assert.ErrorIs(t, err, ErrEmptyEmail)
	_, err = svc.Run(context.Background(), KindFollowUp, "text")
	assert.Error(t, err)
}

func TestRunReportsGenerationFailureAsText(t *testing.T) {
	gen := newScriptedGenerator(decisionJSON)
	gen.failKind = KindSummary
	svc := newTestService(gen, nil, nil, AnalyzerSettings{})

	out, err := svc.Run(context.Background(), KindSummary, "Hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ERROR: Failed to call scripted:"), out)
	assert.Contains(t, out, "quota exceeded")
}

func TestRunUsesCache(t *testing.T) {
	gen := newScriptedGenerator(decisionJSON)
	cache := newMapCache()
	svc := newTestService(gen, cache, nil, AnalyzerSettings{CacheEnabled: true, CacheTTL: time.Hour})

	first, err := svc.Run(context.Background(), KindSentiment, "Great news, thanks!")
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), KindSentiment, "Great news, thanks!")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.count(KindSentiment))
	assert.Len(t, cache.entries, 1)
}

func TestFollowUpIsNotCached(t *testing.T) {
	gen := newScriptedGenerator(decisionJSON)
	cache := newMapCache()
	svc := newTestService(gen, cache, &recordingWriter{}, AnalyzerSettings{CacheEnabled: true, CacheTTL: time.Hour})

	for i := 0; i < 2; i++ {
		_, err := svc.FollowUp(context.Background(), "Can we meet on Friday?")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, gen.count(KindFollowUp))
	assert.Empty(t, cache.entries)
}

func TestFollowUpGenerationFailure(t *testing.T) {
	gen := newScriptedGenerator(decisionJSON)
	gen.failKind = KindFollowUp
	writer := &recordingWriter{}
	svc := newTestService(gen, nil, writer, AnalyzerSettings{})

	outcome, err := svc.FollowUp(context.Background(), "Can we meet?")
	require.NoError(t, err)
	assert.Nil(t, outcome.Decision)
	assert.True(t, strings.HasPrefix(outcome.Raw, "ERROR:"))
	assert.Empty(t, writer.specs)
}

func TestAnalyzeRunsEveryStage(t *testing.T) {
	gen := newScriptedGenerator(decisionJSON)
	writer := &recordingWriter{}
	svc := newTestService(gen, nil, writer, AnalyzerSettings{})

	report, err := svc.Analyze(context.Background(), &Email{
		From:    "dana@example.com",
		Subject: "Meeting",
		Body:    "Can you confirm the meeting by Friday?",
	})
	require.NoError(t, err)

	assert.Equal(t, "output for summary", report.Summary)
	assert.Equal(t, "output for bias", report.Bias)
	assert.Equal(t, "output for sentiment", report.Sentiment)
	assert.Equal(t, "output for classification", report.Classification)
	assert.Equal(t, "output for spam", report.Spam)
	assert.Equal(t, "scripted", report.ModelUsed)
	assert.False(t, report.AnalyzedAt.IsZero())

	require.NotNil(t, report.FollowUp)
	require.NotNil(t, report.FollowUp.Decision)
	assert.Equal(t, "/artifacts/followup.ics", report.FollowUp.Artifact)
	assert.Len(t, writer.specs, 1)
}

func TestAnalyzeStagesDegradeIndependently(t *testing.T) {
	gen := newScriptedGenerator("not json at all")
	gen.failKind = KindBias
	svc := newTestService(gen, nil, &recordingWriter{}, AnalyzerSettings{})

	report, err := svc.Analyze(context.Background(), &Email{Body: "Quarterly numbers attached."})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.Bias, "ERROR:"))
	assert.Equal(t, "output for summary", report.Summary)
	assert.Equal(t, "output for classification", report.Classification)
	require.NotNil(t, report.FollowUp)
	assert.Nil(t, report.FollowUp.Decision)
	assert.Equal(t, "not json at all", report.FollowUp.Raw)
	assert.NotEmpty(t, report.FollowUp.ParseError)
}

func TestAnalyzeSkipsSpamForWhitelistedSender(t *testing.T) {
	gen := newScriptedGenerator(`{"needs_followup": false}`)
	svc := newTestService(gen, nil, nil, AnalyzerSettings{WhitelistedDomains: []string{"Example.com"}})

	report, err := svc.Analyze(context.Background(), &Email{
		From: "Dana <dana@example.com>",
		Body: "Lunch tomorrow?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Not Spam", report.Spam)
	assert.Equal(t, 0, gen.count(KindSpam))
	assert.Equal(t, 1, gen.count(KindSummary))
}

func TestArtifactWriteErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&ArtifactWriteError{Path: "/tmp/x.ics", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/tmp/x.ics")
}
