package ical

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/utils"
	"go.uber.org/zap"
)

const productID = "-//llm-email-assistant//Follow-Up//EN"

// Writer writes follow-up events as standalone iCalendar files
type Writer struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewWriter creates a writer that places calendar files in dir
func NewWriter(dir string, logger *zap.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Dir returns the directory calendar files are written to
func (w *Writer) Dir() string {
	return w.dir
}

// fileName derives a collision-free name from the creation instant
func (w *Writer) fileName(created time.Time) string {
	return fmt.Sprintf("followup_%s_%09d_%s.ics",
		created.Format("20060102_150405"),
		created.Nanosecond(),
		uuid.NewString()[:8])
}

// Write encodes the event and persists it atomically, returning the file path.
// A failed write leaves no partial file behind.
func (w *Writer) Write(ctx context.Context, spec core.CalendarEventSpec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &core.ArtifactWriteError{Path: w.dir, Err: err}
	}

	created := w.now()
	cal := newCalendar(spec, created)

	var buf bytes.Buffer
	if err := goical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", &core.ArtifactWriteError{Path: w.dir, Err: fmt.Errorf("encode calendar: %w", err)}
	}

	path := filepath.Join(w.dir, w.fileName(created))
	if err := utils.AtomicWriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &core.ArtifactWriteError{Path: path, Err: err}
	}

	w.logger.Debug("Calendar file written",
		zap.String("path", path),
		zap.String("title", spec.Title))

	return path, nil
}

func newCalendar(spec core.CalendarEventSpec, created time.Time) *goical.Calendar {
	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropProductID, productID)
	cal.Props.SetText(goical.PropVersion, "2.0")

	event := goical.NewEvent()
	event.Props.SetText(goical.PropUID, uuid.NewString())
	event.Props.SetDateTime(goical.PropDateTimeStamp, created.UTC())
	event.Props.SetDateTime(goical.PropDateTimeStart, spec.Start.UTC())
	event.Props.SetDateTime(goical.PropDateTimeEnd, spec.End().UTC())
	event.Props.SetText(goical.PropSummary, spec.Title)
	if spec.Description != "" {
		event.Props.SetText(goical.PropDescription, spec.Description)
	}

	cal.Children = append(cal.Children, event.Component)
	return cal
}
