package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestOrchestrator(writer ArtifactWriter, creds CredentialStore, publisher EventPublisher) *FollowUpOrchestrator {
	o := NewFollowUpOrchestrator(writer, creds, publisher, zap.NewNop(), 0)
	o.SetClock(func() time.Time { return fixedNow })
	return o
}

func TestProcessWritesArtifactForParsedDecision(t *testing.T) {
	writer := &recordingWriter{}
	o := newTestOrchestrator(writer, nil, nil)

	outcome := o.Process(context.Background(), "```json\n"+decisionJSON+"\n```")
	require.NotNil(t, outcome.Decision)
	assert.Empty(t, outcome.ParseError)
	assert.Equal(t, "/artifacts/followup.ics", outcome.Artifact)
	assert.True(t, outcome.SuggestedAt.Equal(fixedNow.AddDate(0, 0, 7)))

	require.Len(t, writer.specs, 1)
	spec := writer.specs[0]
	assert.Equal(t, "Confirm the meeting", spec.Title)
	assert.Equal(t, DefaultEventDurationMinutes, spec.DurationMinutes)
	assert.True(t, spec.Start.Equal(fixedNow.AddDate(0, 0, 7)))
}

func TestProcessSkipsArtifactWhenNotNeeded(t *testing.T) {
	writer := &recordingWriter{}
	o := newTestOrchestrator(writer, nil, nil)

	// the explanation mentions the flag but the parsed value is false
	raw := `{"needs_followup": false, "followup_reason": "Nothing here says \"needs_followup\": true"}`
	outcome := o.Process(context.Background(), raw)
	require.NotNil(t, outcome.Decision)
	assert.False(t, outcome.Decision.NeedsFollowUp)
	assert.Empty(t, outcome.Artifact)
	assert.Empty(t, writer.specs)
}

func TestProcessMalformedKeepsRaw(t *testing.T) {
	writer := &recordingWriter{}
	o := newTestOrchestrator(writer, nil, nil)

	raw := "I think this email needs action soon"
	outcome := o.Process(context.Background(), raw)
	assert.Nil(t, outcome.Decision)
	assert.Equal(t, raw, outcome.Raw)
	assert.Contains(t, outcome.ParseError, "malformed follow-up decision")
	assert.Empty(t, writer.specs)
}

func TestProcessArtifactFailureKeepsDecision(t *testing.T) {
	writer := &recordingWriter{err: &ArtifactWriteError{Path: "/ro/x.ics", Err: errors.New("permission denied")}}
	o := newTestOrchestrator(writer, nil, nil)

	outcome := o.Process(context.Background(), decisionJSON)
	require.NotNil(t, outcome.Decision)
	assert.True(t, outcome.Decision.NeedsFollowUp)
	assert.Empty(t, outcome.Artifact)
	assert.Contains(t, outcome.ArtifactError, "permission denied")
}

func TestPublishRemoteUnauthenticatedMakesNoCall(t *testing.T) {
	publisher := &countingPublisher{}
	spec := BuildEventSpec(&FollowUpDecision{Reason: "x"}, fixedNow, 30)

	for _, creds := range []CredentialStore{
		nil,
		&stubCredentials{},
		&stubCredentials{status: CredentialStatus{State: CredentialUnauthenticated, Problem: errors.New("corrupt")}},
		&stubCredentials{loadErr: errors.New("disk failure")},
	} {
		o := newTestOrchestrator(nil, creds, publisher)
		_, err := o.PublishRemote(context.Background(), spec)

		var notAuth *NotAuthenticatedError
		require.True(t, errors.As(err, &notAuth), "%v", err)
	}
	assert.Equal(t, 0, publisher.calls)
}

func TestPublishRemoteSuccess(t *testing.T) {
	publisher := &countingPublisher{}
	o := newTestOrchestrator(nil, &stubCredentials{status: authenticated()}, publisher)

	published, err := o.PublishDecision(context.Background(), &FollowUpDecision{
		NeedsFollowUp: true,
		Reason:        "Call the bank",
		TimeframeHint: "in 2 days",
	})
	require.NoError(t, err)
	assert.Equal(t, "remote-1", published.RemoteID)
	assert.Equal(t, 1, publisher.calls)
	assert.Equal(t, "Call the bank", publisher.last.Title)
	assert.True(t, publisher.last.Start.Equal(time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)))
}

func TestPublishRemoteWrapsProviderFailure(t *testing.T) {
	publisher := &countingPublisher{err: errors.New("connection reset")}
	o := newTestOrchestrator(nil, &stubCredentials{status: authenticated()}, publisher)

	_, err := o.PublishRemote(context.Background(), BuildEventSpec(&FollowUpDecision{}, fixedNow, 30))
	var publishErr *PublishError
	require.True(t, errors.As(err, &publishErr))
	assert.Equal(t, "connection reset", publishErr.Message)
	assert.Equal(t, 1, publisher.calls)
}

func TestPublishRemoteKeepsTypedProviderError(t *testing.T) {
	providerErr := &PublishError{StatusCode: 429, Message: "Rate Limit Exceeded"}
	o := newTestOrchestrator(nil, &stubCredentials{status: authenticated()}, &countingPublisher{err: providerErr})

	_, err := o.PublishRemote(context.Background(), BuildEventSpec(&FollowUpDecision{}, fixedNow, 30))
	assert.Same(t, providerErr, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestCredentialStateAndAuthenticate(t *testing.T) {
	o := newTestOrchestrator(nil, nil, nil)
	status, err := o.CredentialState(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Authenticated())
	_, err = o.Authenticate(context.Background())
	assert.Error(t, err)

	creds := &stubCredentials{}
	o = newTestOrchestrator(nil, creds, nil)
	status, err = o.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Authenticated())

	status, err = o.CredentialState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CredentialAuthenticated, status.State)
}
