package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/utils"
	"go.uber.org/zap"
)

var (
	// ErrCredentialExpired is reported when a grant is past its validity window and cannot be refreshed
	ErrCredentialExpired = errors.New("calendar credential expired and cannot be refreshed")
	// ErrCorruptCredential is reported when the stored record cannot be decoded
	ErrCorruptCredential = errors.New("stored calendar credential is unreadable")
	// ErrAuthorizationUnavailable is returned when no interactive flow is configured
	ErrAuthorizationUnavailable = errors.New("interactive calendar authorization is not available")
)

// Refresher exchanges a refresh capability for a new grant
type Refresher interface {
	Refresh(ctx context.Context, cred core.Credential) (core.Credential, error)
}

// Authorizer runs the user-present authorization flow
type Authorizer interface {
	Authorize(ctx context.Context) (core.Credential, error)
}

// FileCredentialStore keeps the single calendar grant of an installation in a JSON file
type FileCredentialStore struct {
	mu         sync.Mutex
	path       string
	refresher  Refresher
	authorizer Authorizer
	leeway     time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewFileCredentialStore creates a store backed by the file at path.
// refresher and authorizer may be nil when client secrets are not available.
func NewFileCredentialStore(
	path string,
	refresher Refresher,
	authorizer Authorizer,
	leeway time.Duration,
	logger *zap.Logger,
) *FileCredentialStore {
	return &FileCredentialStore{
		path:       path,
		refresher:  refresher,
		authorizer: authorizer,
		leeway:     leeway,
		logger:     logger,
		now:        time.Now,
	}
}

// Path returns the location of the credential file
func (s *FileCredentialStore) Path() string {
	return s.path
}

// Load reads the stored grant, refreshing it in place when it has expired.
// Absence and corruption both yield Unauthenticated; only other read faults are returned as errors.
func (s *FileCredentialStore) Load(ctx context.Context) (core.CredentialStatus, error) {
	if err := ctx.Err(); err != nil {
		return core.CredentialStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.CredentialStatus{State: core.CredentialUnauthenticated}, nil
		}
		return core.CredentialStatus{State: core.CredentialUnauthenticated, Problem: err},
			fmt.Errorf("read credential file: %w", err)
	}

	cred, err := decodeCredential(data)
	if err != nil {
		s.logger.Warn("Stored calendar credential is corrupt; re-authorization required",
			zap.String("path", s.path),
			zap.Error(err))
		return core.CredentialStatus{State: core.CredentialUnauthenticated, Problem: err}, nil
	}

	now := s.now()
	if !cred.ExpiredAt(now, s.leeway) {
		return core.CredentialStatus{State: core.CredentialAuthenticated, Credential: &cred}, nil
	}

	s.logger.Debug("Calendar credential expired",
		zap.String("state", core.CredentialExpired.String()),
		zap.Time("expiry", cred.Expiry))

	if !cred.CanRefresh() || s.refresher == nil {
		return core.CredentialStatus{State: core.CredentialUnauthenticated, Problem: ErrCredentialExpired}, nil
	}

	refreshed, err := s.refresher.Refresh(ctx, cred)
	if err != nil {
		s.logger.Warn("Failed to refresh calendar credential", zap.Error(err))
		return core.CredentialStatus{
			State:   core.CredentialUnauthenticated,
			Problem: fmt.Errorf("refresh calendar credential: %w", err),
		}, nil
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cred.RefreshToken
	}
	refreshed.UpdatedAt = now

	status := core.CredentialStatus{State: core.CredentialAuthenticated, Credential: &refreshed}
	if err := s.writeLocked(refreshed); err != nil {
		s.logger.Error("Failed to persist refreshed calendar credential", zap.Error(err))
		status.Problem = err
		return status, nil
	}

	s.logger.Info("Refreshed calendar credential", zap.Time("expiry", refreshed.Expiry))
	return status, nil
}

// AuthenticateInteractively runs the authorization flow and replaces any stored grant
func (s *FileCredentialStore) AuthenticateInteractively(ctx context.Context) (core.CredentialStatus, error) {
	if s.authorizer == nil {
		return core.CredentialStatus{State: core.CredentialUnauthenticated}, ErrAuthorizationUnavailable
	}

	cred, err := s.authorizer.Authorize(ctx)
	if err != nil {
		return core.CredentialStatus{State: core.CredentialUnauthenticated}, fmt.Errorf("authorize calendar access: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cred.UpdatedAt = s.now()
	if err := s.writeLocked(cred); err != nil {
		return core.CredentialStatus{State: core.CredentialUnauthenticated}, err
	}

	s.logger.Info("Calendar access authorized", zap.String("path", s.path))
	return core.CredentialStatus{State: core.CredentialAuthenticated, Credential: &cred}, nil
}

// Clear removes the stored grant
func (s *FileCredentialStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) writeLocked(cred core.Credential) error {
	payload, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := utils.AtomicWriteFile(s.path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

func decodeCredential(data []byte) (core.Credential, error) {
	var cred core.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return core.Credential{}, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		return core.Credential{}, fmt.Errorf("%w: record holds no grant", ErrCorruptCredential)
	}
	return cred, nil
}
