package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tpn/displaylauncher/internal/domain"
	apperrors "github.com/tpn/displaylauncher/internal/platform/errors"
)

const (
	msgPackageRequired = "Package name is required"
	msgNoFile          = "No file uploaded"
	uploadField        = "file"
)

type packageRequest struct {
	PackageName string `json:"packageName"`
}

type launchIntentRequest struct {
	PackageName string            `json:"packageName"`
	Action      string            `json:"action"`
	Data        string            `json:"data"`
	Extras      map[string]string `json:"extras"`
}

func (s *Server) handleListApps(c echo.Context) error {
	apps := s.gateway.ListApplications(c.Request().Context())
	if err := c.JSON(http.StatusOK, apps); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLaunch(c echo.Context) error {
	var req packageRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.PackageName) == "" {
		return HandleValidationError(c, msgPackageRequired)
	}

	ok := s.gateway.Launch(c.Request().Context(), req.PackageName)
	return respond(c, ok, "App launched successfully", "Failed to launch app")
}

func (s *Server) handleLaunchIntent(c echo.Context) error {
	var req launchIntentRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.PackageName) == "" {
		return HandleValidationError(c, msgPackageRequired)
	}

	ok := s.gateway.LaunchWithIntent(c.Request().Context(), domain.LaunchRequest{
		PackageName: req.PackageName,
		Action:      req.Action,
		Data:        req.Data,
		Extras:      req.Extras,
	})
	return respond(c, ok, "App launched successfully with intent", "Failed to launch app with intent")
}

func (s *Server) handleUninstall(c echo.Context) error {
	var req packageRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.PackageName) == "" {
		return HandleValidationError(c, msgPackageRequired)
	}

	ok := s.gateway.RequestUninstall(c.Request().Context(), req.PackageName)
	return respond(c, ok, "Uninstall dialog opened", "Failed to open uninstall dialog")
}

func (s *Server) handleUploadAPK(c echo.Context) error {
	ctx := c.Request().Context()

	fh, err := c.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return HandleValidationError(c, msgNoFile)
	}
	if err != nil {
		return apperrors.MalformedError(err.Error(), err)
	}

	src, err := fh.Open()
	if err != nil {
		return apperrors.IOError("failed to read upload", err).WithField("filename", fh.Filename)
	}
	defer src.Close()

	path, err := s.stager.Stage(ctx, src)
	if err != nil {
		return err
	}

	ok := s.gateway.StageAndRequestInstall(ctx, path)
	return respond(c, ok, "Install dialog opened for uploaded APK", "Failed to open install dialog")
}

// decodeBody reads a JSON object. An empty body decodes as {}.
func decodeBody(c echo.Context, v any) error {
	err := json.NewDecoder(c.Request().Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperrors.MalformedError(err.Error(), err)
}

func respond(c echo.Context, ok bool, success, failure string) error {
	if ok {
		return writeEnvelope(c, http.StatusOK, true, success)
	}
	return writeEnvelope(c, http.StatusOK, false, failure)
}
