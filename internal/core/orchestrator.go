package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// FollowUpOrchestrator turns raw follow-up output into a decision and calendar events.
// Local artifacts are written as part of processing; remote publishing is a separate,
// explicitly triggered action gated on the credential store.
type FollowUpOrchestrator struct {
	writer          ArtifactWriter
	credentials     CredentialStore
	publisher       EventPublisher
	logger          *zap.Logger
	durationMinutes int
	now             func() time.Time
}

// NewFollowUpOrchestrator creates a new follow-up orchestrator
func NewFollowUpOrchestrator(
	writer ArtifactWriter,
	credentials CredentialStore,
	publisher EventPublisher,
	logger *zap.Logger,
	durationMinutes int,
) *FollowUpOrchestrator {
	if durationMinutes <= 0 {
		durationMinutes = DefaultEventDurationMinutes
	}
	return &FollowUpOrchestrator{
		writer:          writer,
		credentials:     credentials,
		publisher:       publisher,
		logger:          logger,
		durationMinutes: durationMinutes,
		now:             time.Now,
	}
}

// SetClock replaces the wall clock used to resolve timeframes
func (o *FollowUpOrchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// EventSpecFor resolves the decision's timeframe against the current time and builds the event
func (o *FollowUpOrchestrator) EventSpecFor(decision *FollowUpDecision) CalendarEventSpec {
	start := ResolveTimeframe(decision.TimeframeHint, o.now())
	return BuildEventSpec(decision, start, o.durationMinutes)
}

// Process extracts the decision from raw model output and, when a follow-up is needed,
// writes a local calendar artifact. Failures are recorded on the outcome, never returned.
func (o *FollowUpOrchestrator) Process(ctx context.Context, raw string) *FollowUpOutcome {
	outcome := &FollowUpOutcome{Raw: raw}

	decision, err := ExtractFollowUp(raw)
	if err != nil {
		o.logger.Warn("Could not parse follow-up decision", zap.Error(err))
		outcome.ParseError = err.Error()
		return outcome
	}
	outcome.Decision = decision

	if !decision.NeedsFollowUp {
		return outcome
	}

	spec := o.EventSpecFor(decision)
	outcome.SuggestedAt = spec.Start

	if o.writer == nil {
		return outcome
	}
	artifact, err := o.writer.Write(ctx, spec)
	if err != nil {
		o.logger.Warn("Failed to write follow-up calendar file", zap.Error(err))
		outcome.ArtifactError = err.Error()
		return outcome
	}
	outcome.Artifact = artifact

	o.logger.Debug("Wrote follow-up calendar file",
		zap.String("artifact", artifact),
		zap.Time("start", spec.Start))

	return outcome
}

// CredentialState reports whether remote publishing is currently possible
func (o *FollowUpOrchestrator) CredentialState(ctx context.Context) (CredentialStatus, error) {
	if o.credentials == nil {
		return CredentialStatus{State: CredentialUnauthenticated}, nil
	}
	return o.credentials.Load(ctx)
}

// Authenticate runs the interactive authorization flow
func (o *FollowUpOrchestrator) Authenticate(ctx context.Context) (CredentialStatus, error) {
	if o.credentials == nil {
		return CredentialStatus{State: CredentialUnauthenticated}, errors.New("remote calendar is not configured")
	}
	return o.credentials.AuthenticateInteractively(ctx)
}

// PublishRemote creates the event on the remote calendar.
// Without a valid grant it returns *NotAuthenticatedError and makes no network call.
func (o *FollowUpOrchestrator) PublishRemote(ctx context.Context, spec CalendarEventSpec) (*PublishedEvent, error) {
	status, err := o.CredentialState(ctx)
	if err != nil {
		return nil, &NotAuthenticatedError{Problem: err}
	}
	if !status.Authenticated() || o.publisher == nil {
		return nil, &NotAuthenticatedError{Problem: status.Problem}
	}

	published, err := o.publisher.Publish(ctx, *status.Credential, spec)
	if err != nil {
		var publishErr *PublishError
		if !errors.As(err, &publishErr) {
			publishErr = &PublishError{Message: err.Error(), Err: err}
		}
		o.logger.Error("Failed to publish follow-up event", zap.Error(publishErr))
		return nil, publishErr
	}

	o.logger.Info("Published follow-up event",
		zap.String("remote_id", published.RemoteID),
		zap.Time("start", spec.Start))

	return published, nil
}

// PublishDecision resolves the decision's timeframe and publishes it remotely
func (o *FollowUpOrchestrator) PublishDecision(ctx context.Context, decision *FollowUpDecision) (*PublishedEvent, error) {
	return o.PublishRemote(ctx, o.EventSpecFor(decision))
}
