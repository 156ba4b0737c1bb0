package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tpn/displaylauncher/internal/adapter/metrics"
	"github.com/tpn/displaylauncher/internal/domain"
	"github.com/tpn/displaylauncher/internal/platform/config"
	"github.com/tpn/displaylauncher/web"
)

type gateway interface {
	ListApplications(ctx context.Context) []domain.AppRecord
	Launch(ctx context.Context, packageName string) bool
	LaunchWithIntent(ctx context.Context, req domain.LaunchRequest) bool
	RequestUninstall(ctx context.Context, packageName string) bool
	StageAndRequestInstall(ctx context.Context, apkPath string) bool
}

type artifactStager interface {
	Stage(ctx context.Context, src io.Reader) (string, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	gateway gateway
	stager  artifactStager

	templates    *template.Template
	registry     *prometheus.Registry
	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer builds the control API. reg may be nil, in which case no
// metrics are recorded and /metrics is not mounted.
func NewServer(cfg *config.Config, gw gateway, stager artifactStager, reg *prometheus.Registry, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler

	srv := &Server{
		echo:         e,
		config:       cfg,
		gateway:      gw,
		stager:       stager,
		templates:    templates,
		registry:     reg,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

// Start binds a fresh listener and serves until the server fails or is shut
// down. It may be called again after a failure.
func (s *Server) Start() error {
	addr := ":" + s.config.Port
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.echo.Listener = ln

	slog.Info("Starting server", "addr", ln.Addr().String())
	if err := s.echo.Start(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Handler exposes the router, e.g. for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type controlPage struct {
	BaseURL string
	Version string
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

func (s *Server) getBaseURL(c echo.Context) string {
	scheme := "http"
	if c.Request().TLS != nil {
		scheme = "https"
	}
	if fwdProto := c.Request().Header.Get("X-Forwarded-Proto"); fwdProto == "http" || fwdProto == "https" {
		scheme = fwdProto
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request().Host)
}

func newHTTPMetrics(reg *prometheus.Registry) *metrics.HTTPMetrics {
	if reg == nil {
		return nil
	}
	return metrics.NewHTTPMetrics(reg)
}
