package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-assistant/internal/core"
)

// Config for the HTTP API handler.
type Config struct {
	Service     *core.AnalyzerService
	ArtifactDir string
	BasePath    string
	Logger      *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_authenticated"`
	Message string         `json:"message" example:"remote calendar not connected; authorization required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// NormalizeBasePath returns "" or a path with a leading and no trailing slash
func NormalizeBasePath(basePath string) string {
	basePath = strings.TrimRight(strings.TrimSpace(basePath), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return basePath
}

// New returns an HTTP handler exposing the email assistant API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("analyzer service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	basePath := NormalizeBasePath(cfg.BasePath)

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			messages := make([]string, 0, len(errs))
			for _, err := range errs {
				messages = append(messages, err.Error())
			}
			details = map[string]any{"errors": messages}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	hcfg := huma.DefaultConfig("LLM Email Assistant API", "1.0.0")
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)

	var group huma.API = api
	if basePath != "" {
		group = huma.NewGroup(api, basePath)
	}

	registerWelcome(group)
	registerAnalysis(group, cfg.Service)
	registerFollowUp(group, cfg.Service, basePath)
	registerCalendar(group, cfg.Service.FollowUps())
	registerArtifacts(group, cfg.ArtifactDir)

	return router, nil
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var notAuth *core.NotAuthenticatedError
	if errors.As(err, &notAuth) {
		return newAPIError(http.StatusUnauthorized, "not_authenticated", err.Error(), nil)
	}
	var publishErr *core.PublishError
	if errors.As(err, &publishErr) {
		details := map[string]any{}
		if publishErr.StatusCode != 0 {
			details["provider_status"] = publishErr.StatusCode
		}
		return newAPIError(http.StatusBadGateway, "publish_failed", publishErr.Message, details)
	}
	if errors.Is(err, core.ErrEmptyEmail) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "not_authenticated"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerWelcome(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "welcome",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Welcome message",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WelcomeResponse
	}, error) {
		return &struct {
			Body WelcomeResponse
		}{Body: WelcomeResponse{Message: "Welcome to the LLM Email Assistant API"}}, nil
	})
}

type emailTextInput struct {
	Body EmailTextRequest
}

func registerAnalysis(api huma.API, svc *core.AnalyzerService) {
	run := func(ctx context.Context, kind core.AnalysisKind, text string) (string, error) {
		out, err := svc.Run(ctx, kind, text)
		if err != nil {
			return "", handleError(err)
		}
		return out, nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "summarize",
		Method:      http.MethodPost,
		Path:        "/summarize",
		Summary:     "Summarize an email",
	}, func(ctx context.Context, input *emailTextInput) (*struct{ Body SummaryResponse }, error) {
		out, err := run(ctx, core.KindSummary, input.Body.Text)
		if err != nil {
			return nil, err
		}
		return &struct{ Body SummaryResponse }{Body: SummaryResponse{ID: input.Body.ID, Summary: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bias",
		Method:      http.MethodPost,
		Path:        "/bias",
		Summary:     "Detect emotional or political bias",
	}, func(ctx context.Context, input *emailTextInput) (*struct{ Body BiasResponse }, error) {
		out, err := run(ctx, core.KindBias, input.Body.Text)
		if err != nil {
			return nil, err
		}
		return &struct{ Body BiasResponse }{Body: BiasResponse{ID: input.Body.ID, Bias: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sentiment",
		Method:      http.MethodPost,
		Path:        "/sentiment",
		Summary:     "Score sentiment",
	}, func(ctx context.Context, input *emailTextInput) (*struct{ Body SentimentResponse }, error) {
		out, err := run(ctx, core.KindSentiment, input.Body.Text)
		if err != nil {
			return nil, err
		}
		return &struct{ Body SentimentResponse }{Body: SentimentResponse{ID: input.Body.ID, Sentiment: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "classify",
		Method:      http.MethodPost,
		Path:        "/classify",
		Summary:     "Classify an email",
	}, func(ctx context.Context, input *emailTextInput) (*struct{ Body ClassificationResponse }, error) {
		out, err := run(ctx, core.KindClassification, input.Body.Text)
		if err != nil {
			return nil, err
		}
		return &struct{ Body ClassificationResponse }{Body: ClassificationResponse{ID: input.Body.ID, Classification: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "spam-detection",
		Method:      http.MethodPost,
		Path:        "/spam-detection",
		Summary:     "Spam verdict",
	}, func(ctx context.Context, input *emailTextInput) (*struct{ Body SpamResponse }, error) {
		out, err := run(ctx, core.KindSpam, input.Body.Text)
		if err != nil {
			return nil, err
		}
		return &struct{ Body SpamResponse }{Body: SpamResponse{ID: input.Body.ID, Spam: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analyze",
		Method:      http.MethodPost,
		Path:        "/analyze",
		Summary:     "Run every analysis stage",
	}, func(ctx context.Context, input *struct{ Body AnalyzeRequest }) (*struct{ Body *core.AnalysisReport }, error) {
		report, err := svc.Analyze(ctx, &core.Email{
			From:    input.Body.From,
			Subject: input.Body.Subject,
			Body:    input.Body.Text,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body *core.AnalysisReport }{Body: report}, nil
	})
}

func registerFollowUp(api huma.API, svc *core.AnalyzerService, basePath string) {
	huma.Register(api, huma.Operation{
		OperationID: "followup",
		Method:      http.MethodPost,
		Path:        "/assistant/followup",
		Summary:     "Suggest a follow-up and write a calendar file",
	}, func(ctx context.Context, input *emailTextInput) (*struct{ Body FollowUpResponse }, error) {
		outcome, err := svc.FollowUp(ctx, input.Body.Text)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body FollowUpResponse }{Body: toFollowUpResponse(input.Body.ID, basePath, outcome)}, nil
	})
}

func registerCalendar(api huma.API, followUps *core.FollowUpOrchestrator) {
	huma.Register(api, huma.Operation{
		OperationID: "calendar-status",
		Method:      http.MethodGet,
		Path:        "/calendar/status",
		Summary:     "Remote calendar connection state",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body CalendarStatusResponse }, error) {
		status, err := followUps.CredentialState(ctx)
		if err != nil {
			status = core.CredentialStatus{State: core.CredentialUnauthenticated, Problem: err}
		}
		return &struct{ Body CalendarStatusResponse }{Body: toStatusResponse(status)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "calendar-connect",
		Method:      http.MethodPost,
		Path:        "/calendar/connect",
		Summary:     "Run the interactive authorization flow on the server host",
	}, func(ctx context.Context, _ *struct{}) (*struct{ Body CalendarStatusResponse }, error) {
		status, err := followUps.Authenticate(ctx)
		if err != nil {
			return nil, newAPIError(http.StatusBadGateway, "authorization_failed", err.Error(), nil)
		}
		return &struct{ Body CalendarStatusResponse }{Body: toStatusResponse(status)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "calendar-publish",
		Method:      http.MethodPost,
		Path:        "/calendar/publish",
		Summary:     "Create the follow-up on the remote calendar",
	}, func(ctx context.Context, input *struct{ Body PublishRequest }) (*struct{ Body PublishResponse }, error) {
		decision := &core.FollowUpDecision{
			NeedsFollowUp: true,
			Reason:        input.Body.Reason,
			TimeframeHint: input.Body.Timeframe,
			ActionItems:   input.Body.ActionItems,
		}
		spec := followUps.EventSpecFor(decision)
		published, err := followUps.PublishRemote(ctx, spec)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{ Body PublishResponse }{Body: PublishResponse{
			RemoteID: published.RemoteID,
			ViewURL:  published.ViewURL,
			Start:    spec.Start,
		}}, nil
	})
}

type artifactOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// resolveArtifact maps a download name to a file inside dir, rejecting anything else
func resolveArtifact(dir, name string) (string, error) {
	if dir == "" || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		!strings.HasSuffix(name, ".ics") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(dir, name), nil
}

func registerArtifacts(api huma.API, dir string) {
	huma.Register(api, huma.Operation{
		OperationID: "artifact-download",
		Method:      http.MethodGet,
		Path:        "/artifacts/{name}",
		Summary:     "Download a follow-up calendar file",
	}, func(ctx context.Context, input *struct {
		Name string `path:"name"`
	}) (*artifactOutput, error) {
		path, err := resolveArtifact(dir, input.Name)
		if err != nil {
			return nil, newAPIError(http.StatusNotFound, "not_found", "artifact not found", nil)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, newAPIError(http.StatusNotFound, "not_found", "artifact not found", nil)
			}
			return nil, handleError(err)
		}
		return &artifactOutput{
			ContentType:        "text/calendar; charset=utf-8",
			ContentDisposition: fmt.Sprintf("attachment; filename=%q", input.Name),
			Body:               data,
		}, nil
	})
}
