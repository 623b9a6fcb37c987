package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/ports"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Output formats understood by the CLI intake
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// CLIIntake analyzes a single email from the command line and prints the report
type CLIIntake struct {
	analyzer ports.EmailAnalyzer
	out      io.Writer
	format   string
	logger   *zap.Logger
	verbose  bool
}

// NewCLIIntake creates a new CLI intake
func NewCLIIntake(analyzer ports.EmailAnalyzer, out io.Writer, format string, logger *zap.Logger, verbose bool) (*CLIIntake, error) {
	switch format {
	case "":
		format = FormatTable
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return &CLIIntake{
		analyzer: analyzer,
		out:      out,
		format:   format,
		logger:   logger,
		verbose:  verbose,
	}, nil
}

// ProcessEmail analyzes an email and renders the results
func (c *CLIIntake) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error) {
	c.logger.Debug("Processing email",
		zap.String("sender", email.From),
		zap.Int("body_length", len(email.Body)))

	startTime := time.Now()
	report, err := c.analyzer.Analyze(ctx, email)
	if err != nil {
		c.logger.Error("Failed to analyze email", zap.Error(err))
		return nil, err
	}
	c.logger.Debug("Analysis finished", zap.Duration("duration", time.Since(startTime)))

	if err := c.Render(email, report); err != nil {
		return report, err
	}
	return report, nil
}

// Render prints a report in the configured format
func (c *CLIIntake) Render(email *core.Email, report *core.AnalysisReport) error {
	switch c.format {
	case FormatJSON:
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(c.out)
		defer enc.Close()
		return enc.Encode(report)
	default:
		c.renderTable(email, report)
		return nil
	}
}

// RenderFollowUp prints only the follow-up outcome
func (c *CLIIntake) RenderFollowUp(outcome *core.FollowUpOutcome) error {
	switch c.format {
	case FormatJSON:
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	case FormatYAML:
		enc := yaml.NewEncoder(c.out)
		defer enc.Close()
		return enc.Encode(outcome)
	default:
		tw := c.newTable()
		appendFollowUpRows(tw, outcome)
		tw.Render()
		return nil
	}
}

func (c *CLIIntake) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(c.out)
	tw.SetStyle(table.StyleLight)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 80}})
	tw.AppendHeader(table.Row{"Stage", "Result"})
	return tw
}

func (c *CLIIntake) renderTable(email *core.Email, report *core.AnalysisReport) {
	tw := c.newTable()
	if email != nil {
		if email.From != "" {
			tw.AppendRow(table.Row{"From", email.From})
		}
		if email.Subject != "" {
			tw.AppendRow(table.Row{"Subject", email.Subject})
		}
		if c.verbose {
			tw.AppendRow(table.Row{"Body length", fmt.Sprintf("%d bytes", len(email.Body))})
		}
		tw.AppendSeparator()
	}

	tw.AppendRow(table.Row{"Summary", report.Summary})
	tw.AppendRow(table.Row{"Bias", report.Bias})
	tw.AppendRow(table.Row{"Sentiment", report.Sentiment})
	tw.AppendRow(table.Row{"Classification", report.Classification})
	tw.AppendRow(table.Row{"Spam", report.Spam})
	if report.FollowUp != nil {
		tw.AppendSeparator()
		appendFollowUpRows(tw, report.FollowUp)
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Model", report.ModelUsed})
	tw.Render()
}

func appendFollowUpRows(tw table.Writer, outcome *core.FollowUpOutcome) {
	if outcome.Decision == nil {
		tw.AppendRow(table.Row{"Follow-up", outcome.Raw})
		if outcome.ParseError != "" {
			tw.AppendRow(table.Row{"Follow-up error", outcome.ParseError})
		}
		return
	}

	decision := outcome.Decision
	if !decision.NeedsFollowUp {
		tw.AppendRow(table.Row{"Follow-up", "Not needed"})
		return
	}

	tw.AppendRow(table.Row{"Follow-up", decision.Reason})
	if decision.TimeframeHint != "" {
		tw.AppendRow(table.Row{"Timeframe", decision.TimeframeHint})
	}
	if !outcome.SuggestedAt.IsZero() {
		tw.AppendRow(table.Row{"Suggested", outcome.SuggestedAt.Format("Mon Jan 2 15:04")})
	}
	if len(decision.ActionItems) > 0 {
		tw.AppendRow(table.Row{"Action items", "- " + strings.Join(decision.ActionItems, "\n- ")})
	}
	if outcome.Artifact != "" {
		tw.AppendRow(table.Row{"Calendar file", outcome.Artifact})
	}
	if outcome.ArtifactError != "" {
		tw.AppendRow(table.Row{"Calendar file error", outcome.ArtifactError})
	}
}

// Start is a no-op for the CLI intake
func (c *CLIIntake) Start() error {
	return nil
}

// Stop is a no-op for the CLI intake
func (c *CLIIntake) Stop() error {
	return nil
}
