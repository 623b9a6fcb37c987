package factory

import (
	"fmt"
	"os"

	"github.com/mikey/llm-email-assistant/internal/adapters/intake"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/ports"
	"go.uber.org/zap"
)

// IntakeFactory creates email intakes based on configuration
type IntakeFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalyzerService
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalyzerService) *IntakeFactory {
	return &IntakeFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailIntake creates an email intake based on the configuration
func (f *IntakeFactory) CreateEmailIntake() (ports.EmailIntake, error) {
	serverCfg := f.cfg.GetServer()

	switch serverCfg.IntakeType {
	case "http":
		return intake.NewHTTPIntake(
			f.service,
			f.logger,
			serverCfg.ListenAddress,
			serverCfg.BasePath,
			f.cfg.GetFollowUp().ArtifactDir,
		), nil
	case "smtp":
		return intake.NewSMTPIntake(
			f.service,
			f.logger,
			serverCfg.SMTPListenAddress,
			serverCfg.SMTPDomain,
		), nil
	case "cli":
		cli, err := intake.NewCLIIntake(
			f.service,
			os.Stdout,
			f.cfg.GetString("cli.format"),
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
		if err != nil {
			return nil, err
		}
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported intake type: %s", serverCfg.IntakeType)
	}
}
