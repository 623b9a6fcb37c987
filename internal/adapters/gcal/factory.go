package gcal

import (
	"github.com/mikey/llm-email-assistant/internal/config"
	"go.uber.org/zap"
)

// Factory creates the Google Calendar collaborators from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new Google Calendar factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCredentialStore creates the file-backed credential store.
// Missing client secrets leave the store usable for reads but unable to refresh or authorize.
func (f *Factory) CreateCredentialStore() (*FileCredentialStore, *LoopbackAuthorizer, error) {
	calCfg, err := f.cfg.GetCalendar()
	if err != nil {
		return nil, nil, err
	}

	var refresher Refresher
	var authorizer *LoopbackAuthorizer
	oauthCfg, err := LoadOAuthConfig(calCfg.ClientSecretsFile)
	if err != nil {
		f.logger.Warn("Calendar client secrets unavailable; remote publishing limited to existing grants",
			zap.String("client_secrets_file", calCfg.ClientSecretsFile),
			zap.Error(err))
	} else {
		refresher = NewOAuthRefresher(oauthCfg)
		authorizer = NewLoopbackAuthorizer(oauthCfg, calCfg.AuthTimeout, f.logger)
	}

	var auth Authorizer
	if authorizer != nil {
		auth = authorizer
	}

	store := NewFileCredentialStore(calCfg.TokenFile, refresher, auth, calCfg.ExpiryLeeway, f.logger)
	return store, authorizer, nil
}

// CreatePublisher creates the calendar event publisher
func (f *Factory) CreatePublisher() (*CalendarPublisher, error) {
	calCfg, err := f.cfg.GetCalendar()
	if err != nil {
		return nil, err
	}
	return NewCalendarPublisher(calCfg.CalendarID, calCfg.Endpoint, f.logger), nil
}
