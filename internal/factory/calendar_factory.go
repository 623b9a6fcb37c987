package factory

import (
	"github.com/mikey/llm-email-assistant/internal/adapters/gcal"
	"github.com/mikey/llm-email-assistant/internal/adapters/ical"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// CalendarFactory wires the local artifact writer and the remote calendar
// into a follow-up orchestrator
type CalendarFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCalendarFactory creates a new calendar factory
func NewCalendarFactory(cfg *config.Config, logger *zap.Logger) *CalendarFactory {
	return &CalendarFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateArtifactWriter creates the .ics writer for the configured directory
func (f *CalendarFactory) CreateArtifactWriter() *ical.Writer {
	return ical.NewWriter(f.cfg.GetFollowUp().ArtifactDir, f.logger)
}

// CalendarComponents groups the orchestrator with the stores behind it.
// Authorizer is nil when client secrets are not configured.
type CalendarComponents struct {
	Orchestrator *core.FollowUpOrchestrator
	Store        *gcal.FileCredentialStore
	Authorizer   *gcal.LoopbackAuthorizer
}

// CreateCalendarComponents creates the orchestrator with local and remote calendar support
func (f *CalendarFactory) CreateCalendarComponents() (*CalendarComponents, error) {
	gcalFactory := gcal.NewFactory(f.cfg, f.logger)

	store, authorizer, err := gcalFactory.CreateCredentialStore()
	if err != nil {
		return nil, err
	}
	publisher, err := gcalFactory.CreatePublisher()
	if err != nil {
		return nil, err
	}

	orchestrator := core.NewFollowUpOrchestrator(
		f.CreateArtifactWriter(),
		store,
		publisher,
		f.logger,
		f.cfg.GetFollowUp().DurationMinutes,
	)
	return &CalendarComponents{
		Orchestrator: orchestrator,
		Store:        store,
		Authorizer:   authorizer,
	}, nil
}
