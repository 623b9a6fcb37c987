package gcal

import (
	"context"
	"errors"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultCalendarID is the authenticated user's main calendar
const DefaultCalendarID = "primary"

// CalendarPublisher creates follow-up events on Google Calendar
type CalendarPublisher struct {
	calendarID string
	endpoint   string
	logger     *zap.Logger
}

// NewCalendarPublisher creates a publisher; an empty endpoint uses the public API
func NewCalendarPublisher(calendarID, endpoint string, logger *zap.Logger) *CalendarPublisher {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &CalendarPublisher{
		calendarID: calendarID,
		endpoint:   endpoint,
		logger:     logger,
	}
}

// Publish inserts one event. Provider failures become *core.PublishError; there is no retry.
func (p *CalendarPublisher) Publish(ctx context.Context, cred core.Credential, spec core.CalendarEventSpec) (*core.PublishedEvent, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(tokenFromCredential(cred))),
	}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, &core.PublishError{Message: err.Error(), Err: err}
	}

	event := &calendar.Event{
		Summary:     spec.Title,
		Description: spec.Description,
		Start:       &calendar.EventDateTime{DateTime: spec.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: spec.End().Format(time.RFC3339)},
	}

	created, err := svc.Events.Insert(p.calendarID, event).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = apiErr.Error()
			}
			return nil, &core.PublishError{StatusCode: apiErr.Code, Message: message, Err: err}
		}
		return nil, &core.PublishError{Message: err.Error(), Err: err}
	}

	p.logger.Debug("Calendar event created",
		zap.String("calendar_id", p.calendarID),
		zap.String("event_id", created.Id))

	return &core.PublishedEvent{RemoteID: created.Id, ViewURL: created.HtmlLink}, nil
}
