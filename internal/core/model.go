package core

import (
	"time"
)

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// AnalysisKind identifies one of the analysis prompts
type AnalysisKind string

const (
	KindSummary        AnalysisKind = "summary"
	KindBias           AnalysisKind = "bias"
	KindSentiment      AnalysisKind = "sentiment"
	KindClassification AnalysisKind = "classification"
	KindSpam           AnalysisKind = "spam"
	KindFollowUp       AnalysisKind = "followup"
)

// AnalysisReport holds the result of every analysis stage for one email.
// Each text field is either the model output or an "ERROR: ..." message.
type AnalysisReport struct {
	Summary        string           `json:"summary" yaml:"summary"`
	Bias           string           `json:"bias_analysis" yaml:"bias_analysis"`
	Sentiment      string           `json:"sentiment" yaml:"sentiment"`
	Classification string           `json:"classification" yaml:"classification"`
	Spam           string           `json:"spam_result" yaml:"spam_result"`
	FollowUp       *FollowUpOutcome `json:"followup" yaml:"followup"`
	AnalyzedAt     time.Time        `json:"analyzed_at" yaml:"analyzed_at"`
	ModelUsed      string           `json:"model_used" yaml:"model_used"`
}

// FollowUpDecision is the structured verdict on whether an email requires future action
type FollowUpDecision struct {
	NeedsFollowUp bool     `json:"needs_followup" yaml:"needs_followup"`
	Reason        string   `json:"followup_reason" yaml:"followup_reason"`
	TimeframeHint string   `json:"suggested_timeframe" yaml:"suggested_timeframe"`
	ActionItems   []string `json:"action_items" yaml:"action_items"`
}

// FollowUpOutcome is what the follow-up stage hands back to the caller.
// Raw is always set so malformed output can be shown to the user.
type FollowUpOutcome struct {
	Raw           string            `json:"analysis" yaml:"analysis"`
	Decision      *FollowUpDecision `json:"decision,omitempty" yaml:"decision,omitempty"`
	ParseError    string            `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
	Artifact      string            `json:"calendar_file,omitempty" yaml:"calendar_file,omitempty"`
	ArtifactError string            `json:"artifact_error,omitempty" yaml:"artifact_error,omitempty"`
	SuggestedAt   time.Time         `json:"suggested_at,omitempty" yaml:"suggested_at,omitempty"`
}

// CalendarEventSpec describes one calendar event derived from a follow-up decision
type CalendarEventSpec struct {
	Title           string
	Description     string
	Start           time.Time
	DurationMinutes int
}

// End returns the end of the event
func (s CalendarEventSpec) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// PublishedEvent identifies an event created on the remote calendar
type PublishedEvent struct {
	RemoteID string `json:"remote_id" yaml:"remote_id"`
	ViewURL  string `json:"view_url" yaml:"view_url"`
}

// Credential is the persisted authorization grant for the remote calendar provider
type Credential struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanRefresh reports whether the grant carries a refresh capability
func (c Credential) CanRefresh() bool {
	return c.RefreshToken != ""
}

// ExpiredAt reports whether the grant is past its validity window at now.
// A grant without an access token is always expired; otherwise a zero expiry never expires.
func (c Credential) ExpiredAt(now time.Time, leeway time.Duration) bool {
	if c.AccessToken == "" {
		return true
	}
	if c.Expiry.IsZero() {
		return false
	}
	if leeway < 0 {
		leeway = 0
	}
	return !now.Add(leeway).Before(c.Expiry)
}

// CredentialState is the lifecycle state of the stored grant
type CredentialState int

const (
	CredentialUnauthenticated CredentialState = iota
	CredentialAuthenticated
	CredentialExpired
)

func (s CredentialState) String() string {
	switch s {
	case CredentialAuthenticated:
		return "authenticated"
	case CredentialExpired:
		return "expired"
	default:
		return "unauthenticated"
	}
}

// CredentialStatus is the result of loading the stored grant.
// Problem carries a diagnostic when the store fell back to Unauthenticated
// for a reason other than simple absence (corrupt record, failed refresh).
type CredentialStatus struct {
	State      CredentialState
	Credential *Credential
	Problem    error
}

// Authenticated reports whether remote publishing is possible
func (s CredentialStatus) Authenticated() bool {
	return s.State == CredentialAuthenticated && s.Credential != nil
}

// CacheEntry is a cached text generation result
type CacheEntry struct {
	Key       string
	Kind      AnalysisKind
	Output    string
	CreatedAt time.Time
	ExpiresAt time.Time
}
