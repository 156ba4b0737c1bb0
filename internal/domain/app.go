package domain

import (
	"context"
	"fmt"
)

// AppRecord describes one installed application as shown to API clients.
type AppRecord struct {
	Name        string `json:"name"`
	PackageName string `json:"packageName"`
	IsSystemApp bool   `json:"isSystemApp"`
}

// InstalledApp is a registry entry before its label has been resolved.
type InstalledApp struct {
	PackageName string
	System      bool
}

// LaunchRequest is the input of a generalized launch.
type LaunchRequest struct {
	PackageName string
	Action      string
	Data        string
	Extras      map[string]string
}

// FilterPolicy selects which registry entries appear in the app directory.
type FilterPolicy string

const (
	// FilterStrict drops system apps and apps without a launch entry point.
	FilterStrict FilterPolicy = "strict"
	// FilterLenient keeps everything except the host package.
	FilterLenient FilterPolicy = "lenient"
)

func ParseFilterPolicy(s string) (FilterPolicy, error) {
	switch FilterPolicy(s) {
	case FilterStrict, FilterLenient:
		return FilterPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown filter policy %q", s)
	}
}

// Gateway is the app directory and launch gateway as seen by transports.
// Every operation is fail-closed: failures are reported as false, never as errors.
type Gateway interface {
	ListApplications(ctx context.Context) []AppRecord
	Launch(ctx context.Context, packageName string) bool
	LaunchWithIntent(ctx context.Context, req LaunchRequest) bool
	RequestUninstall(ctx context.Context, packageName string) bool
	StageAndRequestInstall(ctx context.Context, apkPath string) bool
}
