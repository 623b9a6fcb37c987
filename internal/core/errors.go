package core

import (
	"fmt"
)

// MalformedFollowUpError is returned when model output is not a valid follow-up decision.
// Raw holds the original text so it can be shown to the user.
type MalformedFollowUpError struct {
	Raw string
	Err error
}

func (e *MalformedFollowUpError) Error() string {
	return fmt.Sprintf("malformed follow-up decision: %v", e.Err)
}

func (e *MalformedFollowUpError) Unwrap() error { return e.Err }

// ArtifactWriteError is returned when a calendar file cannot be written
type ArtifactWriteError struct {
	Path string
	Err  error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("failed to write calendar file %s: %v", e.Path, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error { return e.Err }

// NotAuthenticatedError is returned when a remote publish is attempted without a valid grant.
// No network call has been made.
type NotAuthenticatedError struct {
	Problem error
}

func (e *NotAuthenticatedError) Error() string {
	if e.Problem == nil {
		return "remote calendar not connected; authorization required"
	}
	return fmt.Sprintf("remote calendar not connected; authorization required: %v", e.Problem)
}

func (e *NotAuthenticatedError) Unwrap() error { return e.Problem }

// PublishError is returned when the remote provider rejects or fails the create call.
// Message is the provider's message, verbatim when available.
type PublishError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to create remote event (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("failed to create remote event: %s", e.Message)
}

func (e *PublishError) Unwrap() error { return e.Err }
