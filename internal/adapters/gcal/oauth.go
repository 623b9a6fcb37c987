package gcal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

var (
	// ErrAuthorizationDenied is returned when the user declines the consent screen
	ErrAuthorizationDenied = errors.New("calendar authorization denied")
	// ErrStateMismatch is returned when the callback does not belong to this flow
	ErrStateMismatch = errors.New("authorization callback state mismatch")
)

// LoadOAuthConfig reads installed-app client secrets and scopes them to event creation
func LoadOAuthConfig(secretsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}
	return cfg, nil
}

func credentialFromToken(tok *oauth2.Token) core.Credential {
	cred := core.Credential{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	return cred
}

func tokenFromCredential(cred core.Credential) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  cred.AccessToken,
		TokenType:    cred.TokenType,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	}
}

// OAuthRefresher refreshes grants against the provider's token endpoint
type OAuthRefresher struct {
	config *oauth2.Config
}

// NewOAuthRefresher creates a refresher for the given client configuration
func NewOAuthRefresher(config *oauth2.Config) *OAuthRefresher {
	return &OAuthRefresher{config: config}
}

// Refresh exchanges the refresh token for a new access token
func (r *OAuthRefresher) Refresh(ctx context.Context, cred core.Credential) (core.Credential, error) {
	// An empty access token forces the token source to hit the endpoint
	src := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return core.Credential{}, err
	}
	refreshed := credentialFromToken(tok)
	if refreshed.Scope == "" {
		refreshed.Scope = cred.Scope
	}
	return refreshed, nil
}

type callbackResult struct {
	code string
	err  error
}

// LoopbackAuthorizer runs the installed-app consent flow with a redirect to a
// short-lived listener on 127.0.0.1
type LoopbackAuthorizer struct {
	config  *oauth2.Config
	timeout time.Duration
	prompt  func(authURL string) error
	logger  *zap.Logger
}

// NewLoopbackAuthorizer creates an authorizer; prompt is called with the consent URL
func NewLoopbackAuthorizer(config *oauth2.Config, timeout time.Duration, logger *zap.Logger) *LoopbackAuthorizer {
	a := &LoopbackAuthorizer{
		config:  config,
		timeout: timeout,
		logger:  logger,
	}
	a.prompt = func(authURL string) error {
		a.logger.Info("Open this URL in a browser to authorize calendar access", zap.String("url", authURL))
		return nil
	}
	return a
}

// SetPrompt replaces how the consent URL is presented to the user
func (a *LoopbackAuthorizer) SetPrompt(prompt func(authURL string) error) {
	a.prompt = prompt
}

// Authorize waits for the user to grant access and exchanges the returned code
func (a *LoopbackAuthorizer) Authorize(ctx context.Context) (core.Credential, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return core.Credential{}, fmt.Errorf("start callback listener: %w", err)
	}

	cfg := *a.config
	cfg.RedirectURL = "http://" + ln.Addr().String() + "/callback"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "consent"))

	results := make(chan callbackResult, 1)
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "Unknown authorization request.", http.StatusBadRequest)
			deliver(callbackResult{err: ErrStateMismatch})
		case q.Get("error") != "":
			http.Error(w, "Authorization was not granted. You can close this window.", http.StatusForbidden)
			deliver(callbackResult{err: fmt.Errorf("%w: %s", ErrAuthorizationDenied, q.Get("error"))})
		case q.Get("code") == "":
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("authorization callback without code")})
		default:
			_, _ = w.Write([]byte("Calendar access granted. You can close this window."))
			deliver(callbackResult{code: q.Get("code")})
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Authorization callback server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if err := a.prompt(authURL); err != nil {
		return core.Credential{}, fmt.Errorf("present authorization URL: %w", err)
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return core.Credential{}, fmt.Errorf("waiting for authorization: %w", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return core.Credential{}, res.err
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return core.Credential{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return credentialFromToken(tok), nil
}
