package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/ports"
	"go.uber.org/zap"
)

// SMTPIntake accepts forwarded mail over SMTP and analyzes each message.
// Messages are consumed, never relayed.
type SMTPIntake struct {
	analyzer        ports.EmailAnalyzer
	logger          *zap.Logger
	listenAddr      string
	domain          string
	analysisTimeout time.Duration

	mu       sync.Mutex
	server   *smtp.Server
	listener net.Listener
	reports  chan *core.AnalysisReport
}

// NewSMTPIntake creates a new SMTP intake
func NewSMTPIntake(analyzer ports.EmailAnalyzer, logger *zap.Logger, listenAddr, domain string) *SMTPIntake {
	if domain == "" {
		domain = "localhost"
	}
	return &SMTPIntake{
		analyzer:        analyzer,
		logger:          logger,
		listenAddr:      listenAddr,
		domain:          domain,
		analysisTimeout: 2 * time.Minute,
	}
}

// Reports returns a channel receiving every completed report.
// It must be requested before Start; reports are dropped when nobody reads.
func (s *SMTPIntake) Reports() <-chan *core.AnalysisReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reports == nil {
		s.reports = make(chan *core.AnalysisReport, 16)
	}
	return s.reports
}

// Addr returns the bound listen address once started
func (s *SMTPIntake) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.listenAddr
	}
	return s.listener.Addr().String()
}

// Start starts the SMTP server
func (s *SMTPIntake) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}

	server := smtp.NewServer(&smtpBackend{intake: s})
	server.Addr = s.listenAddr
	server.Domain = s.domain
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	server.MaxRecipients = 50

	s.server = server
	s.listener = ln

	s.logger.Info("SMTP intake starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (s *SMTPIntake) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	err := s.server.Close()
	s.server = nil
	return err
}

// ProcessEmail analyzes an email directly
func (s *SMTPIntake) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error) {
	return s.analyzer.Analyze(ctx, email)
}

func (s *SMTPIntake) publishReport(report *core.AnalysisReport) {
	s.mu.Lock()
	reports := s.reports
	s.mu.Unlock()
	if reports == nil {
		return
	}
	select {
	case reports <- report:
	default:
		s.logger.Warn("Dropping analysis report; no reader")
	}
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *SMTPIntake
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{intake: b.intake}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake     *SMTPIntake
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Logout ends the session
func (s *smtpSession) Logout() error {
	return nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data parses and analyzes the message
func (s *smtpSession) Data(r io.Reader) error {
	logger := s.intake.logger

	rawData, err := io.ReadAll(r)
	if err != nil {
		logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	email, err := ParseEmail(rawData)
	if err != nil {
		logger.Error("Failed to parse email message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}
	if email.From == "" {
		email.From = s.sender
	}
	if len(email.To) == 0 {
		email.To = s.recipients
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.intake.analysisTimeout)
	defer cancel()

	report, err := s.intake.analyzer.Analyze(ctx, email)
	if err != nil {
		logger.Error("Failed to analyze email",
			zap.Error(err),
			zap.String("sender", email.From))
		// Accept the message anyway; the sender has nothing to retry
		return nil
	}

	fields := []zap.Field{
		zap.String("sender", email.From),
		zap.String("subject", email.Subject),
		zap.String("classification", report.Classification),
		zap.String("spam", report.Spam),
	}
	if fu := report.FollowUp; fu != nil && fu.Decision != nil && fu.Decision.NeedsFollowUp {
		fields = append(fields,
			zap.String("followup_reason", fu.Decision.Reason),
			zap.String("calendar_file", fu.Artifact))
	}
	logger.Info("Analyzed email", fields...)

	s.intake.publishReport(report)
	return nil
}
