package ports

import (
	"context"

	"github.com/mikey/llm-email-assistant/internal/core"
)

// EmailIntake defines how emails enter the assistant
type EmailIntake interface {
	// ProcessEmail analyzes an email and returns the report
	ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error)

	// Start starts the intake
	Start() error

	// Stop stops the intake
	Stop() error
}

// EmailAnalyzer is the analysis entry point intakes depend on
type EmailAnalyzer interface {
	Analyze(ctx context.Context, email *core.Email) (*core.AnalysisReport, error)
}
