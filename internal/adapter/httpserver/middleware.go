package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tpn/displaylauncher/internal/platform/correlation"
	apperrors "github.com/tpn/displaylauncher/internal/platform/errors"
)

// apiResponse is the envelope of every control API answer.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.Header))
		c.Response().Header().Set(correlation.Header, id)
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ErrorHandlingMiddleware renders application errors as a failed envelope with
// status 200. Routing errors (*echo.HTTPError) pass through to httpErrorHandler.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			return HandleError(c, err)
		}
	}
}

// recoverMiddleware turns a handler panic into a "Server error" envelope.
func recoverMiddleware() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableErrorHandler: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			slog.ErrorContext(c.Request().Context(), "Recovered from panic",
				"path", c.Request().URL.Path,
				"method", c.Request().Method,
				"error", err,
				"stack", string(stack))
			return writeEnvelope(c, http.StatusOK, false, "Server error: "+err.Error())
		},
	})
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := append([]any{
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
	}, err.LogAttrs()...)

	ctx := c.Request().Context()
	switch err.Type {
	case apperrors.TypeValidation:
		slog.InfoContext(ctx, "Validation error", attrs...)
	case apperrors.TypeMalformed:
		slog.InfoContext(ctx, "Malformed request", attrs...)
	case apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Not found", attrs...)
	case apperrors.TypeDispatch:
		slog.WarnContext(ctx, "Dispatch error", attrs...)
	case apperrors.TypeIO:
		slog.ErrorContext(ctx, "I/O error", attrs...)
	case apperrors.TypeInternal:
		slog.ErrorContext(ctx, "Internal error", attrs...)
	default:
		slog.ErrorContext(ctx, "Unknown error type", attrs...)
	}
}

func HandleError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	structuredErr := apperrors.AsStructuredError(err)
	logError(c, structuredErr)
	return writeEnvelope(c, http.StatusOK, false, structuredErr.UserMessage())
}

func HandleValidationError(c echo.Context, message string) error {
	return HandleError(c, apperrors.ValidationError(message))
}

func writeEnvelope(c echo.Context, status int, success bool, message string) error {
	if err := c.JSON(status, apiResponse{Success: success, Message: message}); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// httpErrorHandler answers transport-level failures. Unknown routes and
// unsupported methods both read as a plain "Not Found".
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	var writeErr error
	switch code {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		writeErr = c.String(http.StatusNotFound, "Not Found")
	default:
		slog.WarnContext(c.Request().Context(), "Request rejected", "path", c.Request().URL.Path, "status", code, "error", err)
		writeErr = c.JSON(code, apiResponse{Success: false, Message: "Error: " + message})
	}
	if writeErr != nil {
		slog.ErrorContext(c.Request().Context(), "Failed to write error response", "error", writeErr)
	}
}
