package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func publishSpec() core.CalendarEventSpec {
	return core.CalendarEventSpec{
		Title:           "Reply to vendor",
		Description:     "Action items:\n- Confirm delivery date",
		Start:           time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
	}
}

func TestPublishCreatesEvent(t *testing.T) {
	var body map[string]any
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "evt-1", "htmlLink": "https://calendar.example/event?eid=evt-1"}`))
	}))
	defer srv.Close()

	p := NewCalendarPublisher("", srv.URL+"/", zap.NewNop())
	published, err := p.Publish(context.Background(), core.Credential{AccessToken: "at-123", TokenType: "Bearer"}, publishSpec())
	require.NoError(t, err)
	assert.Equal(t, "evt-1", published.RemoteID)
	assert.Equal(t, "https://calendar.example/event?eid=evt-1", published.ViewURL)
	assert.Equal(t, 1, hits)

	assert.Equal(t, "Reply to vendor", body["summary"])
	assert.Equal(t, "Action items:\n- Confirm delivery date", body["description"])
	assert.Equal(t, "2024-03-08T09:00:00Z", body["start"].(map[string]any)["dateTime"])
	assert.Equal(t, "2024-03-08T09:30:00Z", body["end"].(map[string]any)["dateTime"])
}

func TestPublishSurfacesProviderMessage(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "Rate Limit Exceeded", "errors": [{"reason": "rateLimitExceeded"}]}}`))
	}))
	defer srv.Close()

	p := NewCalendarPublisher("team@example.com", srv.URL+"/", zap.NewNop())
	_, err := p.Publish(context.Background(), core.Credential{AccessToken: "at"}, publishSpec())
	require.Error(t, err)

	var publishErr *core.PublishError
	require.True(t, errors.As(err, &publishErr))
	assert.Equal(t, http.StatusForbidden, publishErr.StatusCode)
	assert.Equal(t, "Rate Limit Exceeded", publishErr.Message)
	assert.Equal(t, 1, hits, "publish is attempted at most once")
}
