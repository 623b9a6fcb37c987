package core

import (
	"context"
)

// TextGenerator defines the interface for interacting with LLM services
type TextGenerator interface {
	// Generate sends a prompt and returns the model's text
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)

	// Name returns the provider/model used for generation
	Name() string
}

// CacheRepository defines the interface for caching generation results
type CacheRepository interface {
	// Get retrieves a cached entry by key
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// ArtifactWriter materializes an event as a standalone calendar file
type ArtifactWriter interface {
	// Write persists the event and returns an identifier for download
	Write(ctx context.Context, spec CalendarEventSpec) (string, error)
}

// CredentialStore persists and refreshes the remote calendar grant
type CredentialStore interface {
	// Load reads the stored grant, refreshing it in place when expired.
	// It returns an error only for storage faults distinct from absence.
	Load(ctx context.Context) (CredentialStatus, error)

	// AuthenticateInteractively runs the user-present authorization flow
	// and persists the result, replacing any prior record.
	AuthenticateInteractively(ctx context.Context) (CredentialStatus, error)
}

// EventPublisher creates events on the remote calendar
type EventPublisher interface {
	// Publish creates one event; there is no retry
	Publish(ctx context.Context, cred Credential, spec CalendarEventSpec) (*PublishedEvent, error)
}
