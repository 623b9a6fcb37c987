package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildEventSpec(t *testing.T) {
	start := time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC)
	spec := BuildEventSpec(&FollowUpDecision{
		NeedsFollowUp: true,
		Reason:        "  Send invoice ",
		ActionItems:   []string{"attach PDF", "cc finance"},
	}, start, 45)

	assert.Equal(t, "Send invoice", spec.Title)
	assert.Equal(t, "Action items:\n- attach PDF\n- cc finance", spec.Description)
	assert.Equal(t, start, spec.Start)
	assert.Equal(t, start.Add(45*time.Minute), spec.End())
}

func TestBuildEventSpecDefaults(t *testing.T) {
	start := time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC)
	spec := BuildEventSpec(&FollowUpDecision{NeedsFollowUp: true}, start, 0)

	assert.Equal(t, DefaultEventTitle, spec.Title)
	assert.Empty(t, spec.Description)
	assert.Equal(t, DefaultEventDurationMinutes, spec.DurationMinutes)
}

func TestCredentialExpiredAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, Credential{AccessToken: "at"}.ExpiredAt(now, time.Minute))
	assert.False(t, Credential{AccessToken: "at", Expiry: now.Add(time.Hour)}.ExpiredAt(now, time.Minute))
	assert.True(t, Credential{AccessToken: "at", Expiry: now.Add(30 * time.Second)}.ExpiredAt(now, time.Minute))
	assert.True(t, Credential{AccessToken: "at", Expiry: now}.ExpiredAt(now, 0))
	assert.True(t, Credential{AccessToken: "at", Expiry: now.Add(-time.Second)}.ExpiredAt(now, -time.Hour))

	// no access token, nothing to present to the provider
	assert.True(t, Credential{}.ExpiredAt(now, time.Minute))
	assert.True(t, Credential{RefreshToken: "rt", Expiry: now.Add(time.Hour)}.ExpiredAt(now, 0))
}

func TestBuildEventSpecTruncatesToSeconds(t *testing.T) {
	start := time.Date(2024, 3, 3, 10, 0, 0, 123456789, time.Local)

	spec := BuildEventSpec(&FollowUpDecision{Reason: "Call back"}, start, 30)
	assert.True(t, time.Date(2024, 3, 3, 10, 0, 0, 0, time.Local).Equal(spec.Start))
	assert.Zero(t, spec.Start.Nanosecond())
}
