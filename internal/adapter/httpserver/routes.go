package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tpn/displaylauncher/internal/adapter/metrics"
	"github.com/tpn/displaylauncher/internal/platform/version"
)

const jsonBodyLimit = "1M"

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	if m := newHTTPMetrics(s.registry); m != nil {
		s.echo.Use(m.Middleware())
	}
	s.echo.Use(ErrorHandlingMiddleware())
	s.echo.Use(recoverMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"frame-ancestors 'none'",
		ReferrerPolicy: "same-origin",
	}))

	s.echo.GET("/", s.handleControlPage)

	s.registerHealthRoutes()
	s.registerAPIRoutes(newRateLimiter(s.config.RateLimitPerSecond, s.config.RateLimitBurst))

	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}
}

func (s *Server) registerAPIRoutes(rateLimiter echo.MiddlewareFunc) {
	jsonLimit := middleware.BodyLimit(jsonBodyLimit)
	uploadLimit := middleware.BodyLimit(s.config.MaxUploadSize)

	api := s.echo.Group("/api")
	api.GET("/apps", s.handleListApps)
	api.GET("/health", s.handleAPIHealth)
	api.POST("/launch", s.handleLaunch, rateLimiter, jsonLimit)
	api.POST("/launch-intent", s.handleLaunchIntent, rateLimiter, jsonLimit)
	api.POST("/uninstall", s.handleUninstall, rateLimiter, jsonLimit)
	api.POST("/upload-apk", s.handleUploadAPK, rateLimiter, uploadLimit)
}

func (s *Server) handleControlPage(c echo.Context) error {
	return s.renderTemplate(c, "control.html", controlPage{
		BaseURL: s.getBaseURL(c),
		Version: version.Version,
	})
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
