package app

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/tpn/displaylauncher/internal/adapter/metrics"
	"github.com/tpn/displaylauncher/internal/domain"
	apperrors "github.com/tpn/displaylauncher/internal/platform/errors"
)

const (
	opList      = "list"
	opLaunch    = "launch"
	opIntent    = "launch_intent"
	opUninstall = "uninstall"
	opInstall   = "install"
)

// GatewayOptions controls directory filtering and ordering.
type GatewayOptions struct {
	HostPackage   string
	Policy        domain.FilterPolicy
	CaseSensitive bool
}

// Gateway is the app directory and launch gateway. All operations are
// fail-closed: platform errors are logged and reported as false.
type Gateway struct {
	pm      domain.PackageManager
	stager  *Stager
	opts    GatewayOptions
	metrics *metrics.GatewayMetrics
}

var _ domain.Gateway = (*Gateway)(nil)

func NewGateway(pm domain.PackageManager, stager *Stager, opts GatewayOptions, m *metrics.GatewayMetrics) *Gateway {
	if opts.Policy == "" {
		opts.Policy = domain.FilterStrict
	}
	return &Gateway{
		pm:      pm,
		stager:  stager,
		opts:    opts,
		metrics: m,
	}
}

// ListApplications returns the installed applications sorted by name.
// Entries whose lookups fail are dropped; a failed enumeration yields an empty list.
func (g *Gateway) ListApplications(ctx context.Context) []domain.AppRecord {
	apps := []domain.AppRecord{}

	installed, err := g.pm.ListInstalledApplications(ctx)
	if err != nil {
		g.fail(ctx, opList, apperrors.DispatchError("failed to enumerate installed applications", err))
		g.metrics.Listed(0)
		return apps
	}

	for _, pkg := range installed {
		if !g.visible(ctx, pkg) {
			continue
		}

		label, err := g.pm.ApplicationLabel(ctx, pkg.PackageName)
		if err != nil {
			slog.DebugContext(ctx, "Dropping app without label", "package", pkg.PackageName, "error", err)
			continue
		}

		apps = append(apps, domain.AppRecord{
			Name:        label,
			PackageName: pkg.PackageName,
			IsSystemApp: pkg.System,
		})
	}

	slices.SortStableFunc(apps, g.compare)

	g.metrics.Operation(opList, true)
	g.metrics.Listed(len(apps))
	return apps
}

func (g *Gateway) visible(ctx context.Context, pkg domain.InstalledApp) bool {
	if pkg.PackageName == "" || pkg.PackageName == g.opts.HostPackage {
		return false
	}
	if g.opts.Policy == domain.FilterLenient {
		return true
	}
	if pkg.System {
		return false
	}
	intent, err := g.pm.ResolveLaunchIntent(ctx, pkg.PackageName)
	return err == nil && intent != nil
}

func (g *Gateway) compare(a, b domain.AppRecord) int {
	an, bn := a.Name, b.Name
	if !g.opts.CaseSensitive {
		an, bn = strings.ToLower(an), strings.ToLower(bn)
	}
	if c := strings.Compare(an, bn); c != 0 {
		return c
	}
	return strings.Compare(a.PackageName, b.PackageName)
}

// Launch starts the default launch entry point of packageName as a new task.
func (g *Gateway) Launch(ctx context.Context, packageName string) bool {
	return g.outcome(ctx, opLaunch, g.launchDefault(ctx, packageName, nil))
}

// LaunchWithIntent starts a custom intent targeted at the package. A bare MAIN
// action or no action at all falls back to the default entry point.
func (g *Gateway) LaunchWithIntent(ctx context.Context, req domain.LaunchRequest) bool {
	return g.outcome(ctx, opIntent, g.launchIntent(ctx, req))
}

func (g *Gateway) launchIntent(ctx context.Context, req domain.LaunchRequest) error {
	if req.Action == "" || (req.Action == domain.ActionMain && req.Data == "") {
		return g.launchDefault(ctx, req.PackageName, req.Extras)
	}
	if req.PackageName == "" {
		return apperrors.ValidationError("Package name is required")
	}

	intent := domain.Intent{
		Action:  req.Action,
		Package: req.PackageName,
		Flags:   domain.FlagNewTask,
	}
	if req.Data != "" {
		if _, err := url.Parse(req.Data); err != nil {
			return apperrors.ValidationError("invalid data URI").WithField("data", req.Data)
		}
		intent.Data = req.Data
	}
	if len(req.Extras) > 0 {
		intent.Extras = maps.Clone(req.Extras)
	}

	return g.dispatch(ctx, intent)
}

func (g *Gateway) launchDefault(ctx context.Context, packageName string, extras map[string]string) error {
	if packageName == "" {
		return apperrors.ValidationError("Package name is required")
	}

	intent, err := g.pm.ResolveLaunchIntent(ctx, packageName)
	if errors.Is(err, domain.ErrNoLaunchEntry) || errors.Is(err, domain.ErrPackageNotFound) || (err == nil && intent == nil) {
		return apperrors.NotFoundError("no launch entry point").WithField("package", packageName)
	}
	if err != nil {
		return apperrors.DispatchError("failed to resolve launch entry point", err).WithField("package", packageName)
	}

	launch := intent.WithExtras(extras)
	launch.Flags |= domain.FlagNewTask
	return g.dispatch(ctx, launch)
}

// RequestUninstall opens the platform's uninstall confirmation for the package.
// The result only says whether the request was accepted.
func (g *Gateway) RequestUninstall(ctx context.Context, packageName string) bool {
	if packageName == "" {
		return g.outcome(ctx, opUninstall, apperrors.ValidationError("Package name is required"))
	}
	return g.outcome(ctx, opUninstall, g.dispatch(ctx, domain.Intent{
		Action: domain.ActionDelete,
		Data:   "package:" + packageName,
		Flags:  domain.FlagNewTask,
	}))
}

// StageAndRequestInstall opens the platform's install confirmation for a staged
// archive. The archive is removed right away if the request is refused and
// after the stager's cleanup delay otherwise.
func (g *Gateway) StageAndRequestInstall(ctx context.Context, apkPath string) bool {
	intent := domain.Intent{
		Action: domain.ActionView,
		Data:   (&url.URL{Scheme: "file", Path: apkPath}).String(),
		Type:   domain.MimePackageArchive,
		Flags:  domain.FlagNewTask | domain.FlagGrantReadURIPermission,
	}

	if err := g.dispatch(ctx, intent); err != nil {
		g.stager.Remove(ctx, apkPath, removeReasonFailed)
		return g.outcome(ctx, opInstall, err)
	}

	g.stager.RemoveAfterDelay(ctx, apkPath)
	return g.outcome(ctx, opInstall, nil)
}

// SweepStaleArtifacts deletes staged archives older than the retention window.
func (g *Gateway) SweepStaleArtifacts(ctx context.Context) int {
	return g.stager.Sweep(ctx)
}

func (g *Gateway) dispatch(ctx context.Context, intent domain.Intent) error {
	if err := g.pm.DispatchIntent(ctx, intent); err != nil {
		return apperrors.DispatchError("activity start failed", err).
			WithField("package", intent.Package).
			WithField("action", intent.Action)
	}
	return nil
}

func (g *Gateway) outcome(ctx context.Context, op string, err error) bool {
	if err != nil {
		g.fail(ctx, op, err)
		return false
	}
	g.metrics.Operation(op, true)
	slog.InfoContext(ctx, "Gateway operation accepted", "operation", op)
	return true
}

func (g *Gateway) fail(ctx context.Context, op string, err error) {
	g.metrics.Operation(op, false)

	structured := apperrors.AsStructuredError(err)
	attrs := append([]any{"operation", op}, structured.LogAttrs()...)
	switch structured.Type {
	case apperrors.TypeValidation, apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Gateway operation rejected", attrs...)
	default:
		slog.WarnContext(ctx, "Gateway operation failed", attrs...)
	}
}
