package server

import (
	"path/filepath"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
)

// Request payloads

type EmailTextRequest struct {
	ID   string `json:"id,omitempty" doc:"Caller-supplied identifier echoed back"`
	Text string `json:"text" minLength:"1" doc:"Email text to analyze"`
}

type AnalyzeRequest struct {
	ID      string `json:"id,omitempty"`
	From    string `json:"from,omitempty" doc:"Sender address, used for the whitelist shortcut"`
	Subject string `json:"subject,omitempty"`
	Text    string `json:"text" minLength:"1"`
}

type PublishRequest struct {
	Reason      string   `json:"followup_reason,omitempty"`
	Timeframe   string   `json:"suggested_timeframe,omitempty"`
	ActionItems []string `json:"action_items,omitempty"`
}

// Response payloads

type WelcomeResponse struct {
	Message string `json:"message"`
}

type SummaryResponse struct {
	ID      string `json:"id,omitempty"`
	Summary string `json:"summary"`
}

type BiasResponse struct {
	ID   string `json:"id,omitempty"`
	Bias string `json:"bias_analysis"`
}

type SentimentResponse struct {
	ID        string `json:"id,omitempty"`
	Sentiment string `json:"sentiment"`
}

type ClassificationResponse struct {
	ID             string `json:"id,omitempty"`
	Classification string `json:"classification"`
}

type SpamResponse struct {
	ID   string `json:"id,omitempty"`
	Spam string `json:"spam_result"`
}

type FollowUpResponse struct {
	ID            string                 `json:"id,omitempty"`
	Analysis      string                 `json:"analysis"`
	Decision      *core.FollowUpDecision `json:"decision,omitempty"`
	ParseError    string                 `json:"parse_error,omitempty"`
	CalendarFile  string                 `json:"calendar_file,omitempty"`
	DownloadPath  string                 `json:"download_path,omitempty"`
	ArtifactError string                 `json:"artifact_error,omitempty"`
	SuggestedAt   *time.Time             `json:"suggested_at,omitempty"`
}

type CalendarStatusResponse struct {
	State   string `json:"state" enum:"authenticated,unauthenticated"`
	Problem string `json:"problem,omitempty"`
}

type PublishResponse struct {
	RemoteID string    `json:"remote_id"`
	ViewURL  string    `json:"view_url"`
	Start    time.Time `json:"start"`
}

func toFollowUpResponse(id, basePath string, outcome *core.FollowUpOutcome) FollowUpResponse {
	resp := FollowUpResponse{
		ID:            id,
		Analysis:      outcome.Raw,
		Decision:      outcome.Decision,
		ParseError:    outcome.ParseError,
		ArtifactError: outcome.ArtifactError,
	}
	if outcome.Artifact != "" {
		resp.CalendarFile = filepath.Base(outcome.Artifact)
		resp.DownloadPath = basePath + "/artifacts/" + resp.CalendarFile
	}
	if !outcome.SuggestedAt.IsZero() {
		at := outcome.SuggestedAt
		resp.SuggestedAt = &at
	}
	return resp
}

func toStatusResponse(status core.CredentialStatus) CalendarStatusResponse {
	resp := CalendarStatusResponse{State: core.CredentialUnauthenticated.String()}
	if status.Authenticated() {
		resp.State = core.CredentialAuthenticated.String()
	}
	if status.Problem != nil {
		resp.Problem = status.Problem.Error()
	}
	return resp
}
