package intake

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/server"
	"go.uber.org/zap"
)

// HTTPIntake serves the analysis API over HTTP
type HTTPIntake struct {
	service     *core.AnalyzerService
	logger      *zap.Logger
	listenAddr  string
	basePath    string
	artifactDir string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewHTTPIntake creates a new HTTP intake
func NewHTTPIntake(service *core.AnalyzerService, logger *zap.Logger, listenAddr, basePath, artifactDir string) *HTTPIntake {
	return &HTTPIntake{
		service:     service,
		logger:      logger,
		listenAddr:  listenAddr,
		basePath:    basePath,
		artifactDir: artifactDir,
	}
}

// Addr returns the bound listen address once started
func (h *HTTPIntake) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return h.listenAddr
	}
	return h.listener.Addr().String()
}

// Start binds the listener and serves in the background
func (h *HTTPIntake) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	handler, err := server.New(server.Config{
		Service:     h.service,
		ArtifactDir: h.artifactDir,
		BasePath:    h.basePath,
		Logger:      h.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	ln, err := net.Listen("tcp", h.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.listenAddr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	h.server = srv
	h.listener = ln

	h.logger.Info("HTTP intake starting",
		zap.String("address", ln.Addr().String()),
		zap.String("base_path", server.NormalizeBasePath(h.basePath)))

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (h *HTTPIntake) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := h.server.Shutdown(ctx)
	h.server = nil
	return err
}

// ProcessEmail analyzes an email directly
func (h *HTTPIntake) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisReport, error) {
	return h.service.Analyze(ctx, email)
}
