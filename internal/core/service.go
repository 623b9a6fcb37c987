package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-email-assistant/internal/utils"
	"github.com/mikey/llm-email-assistant/internal/whitelist"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyEmail is returned when there is no text to analyze
var ErrEmptyEmail = errors.New("email text is empty")

// AnalyzerSettings holds the tunables of the analysis service
type AnalyzerSettings struct {
	CacheEnabled        bool
	CacheTTL            time.Duration
	Temperature         float32
	FollowUpTemperature float32
	MaxBodySize         int
	WhitelistedDomains  []string
}

// AnalyzerService is the core service for email analysis
type AnalyzerService struct {
	generator     TextGenerator
	cache         CacheRepository
	followUps     *FollowUpOrchestrator
	textProcessor *utils.TextProcessor
	whitelist     *whitelist.Checker
	logger        *zap.Logger
	settings      AnalyzerSettings
}

// NewAnalyzerService creates a new analysis service
func NewAnalyzerService(
	generator TextGenerator,
	cache CacheRepository,
	followUps *FollowUpOrchestrator,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	settings AnalyzerSettings,
) *AnalyzerService {
	return &AnalyzerService{
		generator:     generator,
		cache:         cache,
		followUps:     followUps,
		textProcessor: textProcessor,
		whitelist:     whitelist.NewChecker(settings.WhitelistedDomains, logger),
		logger:        logger,
		settings:      settings,
	}
}

// FollowUps returns the follow-up orchestrator used by the service
func (s *AnalyzerService) FollowUps() *FollowUpOrchestrator {
	return s.followUps
}

// prepare cleans the email text before it is placed in a prompt
func (s *AnalyzerService) prepare(text string) string {
	cleaned := s.textProcessor.CleanEmail(text)
	return s.textProcessor.ProcessText(cleaned, s.settings.MaxBodySize)
}

// failureText renders a generation failure the way every stage reports it
func (s *AnalyzerService) failureText(err error) string {
	return fmt.Sprintf("ERROR: Failed to call %s: %v", s.generator.Name(), err)
}

func cacheKey(kind AnalysisKind, prompt string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

// generate calls the LLM, consulting the cache first if enabled
func (s *AnalyzerService) generate(ctx context.Context, kind AnalysisKind, prompt string) (string, error) {
	useCache := s.settings.CacheEnabled && s.cache != nil
	key := cacheKey(kind, prompt)

	if useCache {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Cache hit for prompt", zap.String("kind", string(kind)))
			return entry.Output, nil
		}
	}

	output, err := s.generator.Generate(ctx, prompt, s.settings.Temperature)
	if err != nil {
		return "", err
	}

	if useCache {
		now := time.Now()
		entry := &CacheEntry{
			Key:       key,
			Kind:      kind,
			Output:    output,
			CreatedAt: now,
			ExpiresAt: now.Add(s.settings.CacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return output, nil
}

// Run executes one free-text analysis stage.
// Generation failures are returned as "ERROR: ..." text, not as an error.
func (s *AnalyzerService) Run(ctx context.Context, kind AnalysisKind, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyEmail
	}
	if kind == KindFollowUp {
		return "", fmt.Errorf("follow-up analysis must use FollowUp")
	}

	prompt, err := BuildPrompt(kind, s.prepare(text))
	if err != nil {
		return "", err
	}

	output, err := s.generate(ctx, kind, prompt)
	if err != nil {
		s.logger.Error("Analysis stage failed", zap.String("kind", string(kind)), zap.Error(err))
		return s.failureText(err), nil
	}
	return output, nil
}

// FollowUp generates the follow-up decision for an email and processes it.
// The follow-up stage is never cached.
func (s *AnalyzerService) FollowUp(ctx context.Context, text string) (*FollowUpOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyEmail
	}

	prompt, err := BuildPrompt(KindFollowUp, s.prepare(text))
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, prompt, s.settings.FollowUpTemperature)
	if err != nil {
		s.logger.Error("Follow-up stage failed", zap.Error(err))
		return &FollowUpOutcome{
			Raw:        s.failureText(err),
			ParseError: err.Error(),
		}, nil
	}

	return s.followUps.Process(ctx, raw), nil
}

// Analyze runs every analysis stage for an email concurrently.
// Each stage degrades independently; a failing stage never hides the others.
func (s *AnalyzerService) Analyze(ctx context.Context, email *Email) (*AnalysisReport, error) {
	if email == nil || strings.TrimSpace(email.Body) == "" {
		return nil, ErrEmptyEmail
	}

	text := email.Body
	if email.Subject != "" {
		text = "Subject: " + email.Subject + "\n\n" + text
	}

	report := &AnalysisReport{ModelUsed: s.generator.Name()}
	results := make(map[AnalysisKind]*string, 5)
	results[KindSummary] = &report.Summary
	results[KindBias] = &report.Bias
	results[KindSentiment] = &report.Sentiment
	results[KindClassification] = &report.Classification
	results[KindSpam] = &report.Spam

	var g errgroup.Group
	for _, kind := range TextKinds() {
		kind := kind
		dst := results[kind]

		if kind == KindSpam && s.whitelist.IsWhitelisted(email.From) {
			s.logger.Info("Skipping spam check for whitelisted domain",
				zap.String("sender", email.From),
				zap.String("action", "whitelist_bypass"))
			*dst = "Not Spam"
			continue
		}

		g.Go(func() error {
			output, err := s.Run(ctx, kind, text)
			if err != nil {
				output = s.failureText(err)
			}
			*dst = output
			return nil
		})
	}
	g.Go(func() error {
		outcome, err := s.FollowUp(ctx, text)
		if err != nil {
			outcome = &FollowUpOutcome{Raw: s.failureText(err), ParseError: err.Error()}
		}
		report.FollowUp = outcome
		return nil
	})
	_ = g.Wait()

	report.AnalyzedAt = time.Now()
	return report, nil
}
