package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

type recordingWriter struct {
	mu    sync.Mutex
	specs []CalendarEventSpec
	err   error
}

func (w *recordingWriter) Write(_ context.Context, spec CalendarEventSpec) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	w.specs = append(w.specs, spec)
	return "/artifacts/followup.ics", nil
}

type stubCredentials struct {
	status  CredentialStatus
	loadErr error
}

func (s *stubCredentials) Load(context.Context) (CredentialStatus, error) {
	return s.status, s.loadErr
}

func (s *stubCredentials) AuthenticateInteractively(context.Context) (CredentialStatus, error) {
	s.status = authenticated()
	return s.status, nil
}

func authenticated() CredentialStatus {
	return CredentialStatus{
		State:      CredentialAuthenticated,
		Credential: &Credential{AccessToken: "token", Expiry: time.Now().Add(time.Hour)},
	}
}

type countingPublisher struct {
	mu    sync.Mutex
	calls int
	last  CalendarEventSpec
	err   error
}

func (p *countingPublisher) Publish(_ context.Context, _ Credential, spec CalendarEventSpec) (*PublishedEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = spec
	if p.err != nil {
		return nil, p.err
	}
	return &PublishedEvent{RemoteID: "remote-1", ViewURL: "https://calendar.example/remote-1"}, nil
}

// scriptedGenerator answers by prompt kind and counts calls
type scriptedGenerator struct {
	mu       sync.Mutex
	calls    map[AnalysisKind]int
	followUp string
	failKind AnalysisKind
}

func newScriptedGenerator(followUp string) *scriptedGenerator {
	return &scriptedGenerator{calls: map[AnalysisKind]int{}, followUp: followUp}
}

func kindOf(prompt string) AnalysisKind {
	switch {
	case strings.HasPrefix(prompt, "Summarize"):
		return KindSummary
	case strings.HasPrefix(prompt, "Detect any emotional"):
		return KindBias
	case strings.HasPrefix(prompt, "Give a sentiment"):
		return KindSentiment
	case strings.HasPrefix(prompt, "Classify"):
		return KindClassification
	case strings.HasPrefix(prompt, "Determine whether"):
		return KindSpam
	default:
		return KindFollowUp
	}
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, _ float32) (string, error) {
	kind := kindOf(prompt)
	g.mu.Lock()
	g.calls[kind]++
	g.mu.Unlock()

	if kind == g.failKind {
		return "", errors.New("quota exceeded")
	}
	if kind == KindFollowUp {
		return g.followUp, nil
	}
	return "output for " + string(kind), nil
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) count(kind AnalysisKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*CacheEntry{}}
}

func (c *mapCache) Get(_ context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return entry, nil
}

func (c *mapCache) Set(_ context.Context, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = entry
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *mapCache) Cleanup(context.Context) error { return nil }
