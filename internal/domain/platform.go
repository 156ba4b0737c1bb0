package domain

import "context"

// PackageManager is the OS application registry and activity dispatcher.
//
// ResolveLaunchIntent returns ErrNoLaunchEntry when the package has no default
// launch activity. DispatchIntent is fire-and-forget: a nil error only means
// the platform accepted the request.
type PackageManager interface {
	ListInstalledApplications(ctx context.Context) ([]InstalledApp, error)
	ResolveLaunchIntent(ctx context.Context, packageName string) (*Intent, error)
	ApplicationLabel(ctx context.Context, packageName string) (string, error)
	DispatchIntent(ctx context.Context, intent Intent) error
}
