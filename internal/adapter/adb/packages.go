package adb

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/tpn/displaylauncher/internal/domain"
)

const (
	flagActivityNewTask        = 0x10000000
	flagGrantReadURIPermission = 0x00000001
)

var _ domain.PackageManager = (*Client)(nil)

// ListInstalledApplications reads the package list fresh from the device.
// Concurrent callers share one in-flight query.
func (c *Client) ListInstalledApplications(ctx context.Context) ([]domain.InstalledApp, error) {
	v, err, _ := c.lists.Do("packages", func() (any, error) {
		return c.listPackages(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.InstalledApp)), nil
}

func (c *Client) listPackages(ctx context.Context) ([]domain.InstalledApp, error) {
	system, err := c.pmList(ctx, "-s")
	if err != nil {
		return nil, fmt.Errorf("failed to list system packages: %w", err)
	}
	user, err := c.pmList(ctx, "-3")
	if err != nil {
		return nil, fmt.Errorf("failed to list user packages: %w", err)
	}

	seen := make(map[string]struct{}, len(system)+len(user))
	apps := make([]domain.InstalledApp, 0, len(system)+len(user))
	add := func(names []string, isSystem bool) {
		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			apps = append(apps, domain.InstalledApp{PackageName: name, System: isSystem})
		}
	}
	add(user, false)
	add(system, true)
	return apps, nil
}

func (c *Client) pmList(ctx context.Context, flag string) ([]string, error) {
	out, err := c.shell(ctx, "pm", "list", "packages", flag)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(line, "package:"); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ResolveLaunchIntent asks the package manager for the launcher activity.
func (c *Client) ResolveLaunchIntent(ctx context.Context, packageName string) (*domain.Intent, error) {
	out, err := c.shell(ctx, "cmd", "package", "resolve-activity", "--brief",
		"-a", domain.ActionMain, "-c", domain.CategoryLauncher, packageName)
	if err != nil {
		return nil, err
	}

	component := lastLine(out)
	if component == "" || strings.Contains(component, "No activity found") || !strings.Contains(component, "/") {
		return nil, domain.ErrNoLaunchEntry
	}

	return &domain.Intent{
		Action:     domain.ActionMain,
		Categories: []string{domain.CategoryLauncher},
		Package:    packageName,
		Component:  component,
	}, nil
}

// ApplicationLabel reads the label from dumpsys when the platform reports it
// and otherwise derives a readable name from the package identifier.
func (c *Client) ApplicationLabel(ctx context.Context, packageName string) (string, error) {
	out, err := c.shell(ctx, "dumpsys", "package", packageName)
	if err != nil {
		return "", err
	}
	if !strings.Contains(out, "Package ["+packageName+"]") {
		return "", fmt.Errorf("%w: %s", domain.ErrPackageNotFound, packageName)
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if label, ok := strings.CutPrefix(line, "application-label:"); ok {
			if label = strings.Trim(strings.TrimSpace(label), `'"`); label != "" {
				return label, nil
			}
		}
	}
	return labelFromPackage(packageName), nil
}

// DispatchIntent starts an activity with "am start". Archives referenced by a
// local file:// URI are pushed to the device first.
func (c *Client) DispatchIntent(ctx context.Context, intent domain.Intent) error {
	if strings.HasPrefix(intent.Data, "file://") {
		remote, err := c.push(ctx, intent.Data)
		if err != nil {
			return err
		}
		intent.Data = remote
	}

	out, err := c.shell(ctx, amStartArgs(intent)...)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Error:") || strings.HasPrefix(line, "Error type") {
			return fmt.Errorf("%w: %s", domain.ErrNoResolver, line)
		}
	}
	return nil
}

func (c *Client) push(ctx context.Context, fileURI string) (string, error) {
	u, err := url.Parse(fileURI)
	if err != nil {
		return "", fmt.Errorf("invalid file URI %q: %w", fileURI, err)
	}
	remote := path.Join(c.cfg.RemoteDir, path.Base(u.Path))
	if _, err := c.adb(ctx, "push", u.Path, remote); err != nil {
		return "", fmt.Errorf("failed to push archive: %w", err)
	}
	return "file://" + remote, nil
}

func amStartArgs(intent domain.Intent) []string {
	args := []string{"am", "start"}
	if intent.Action != "" {
		args = append(args, "-a", intent.Action)
	}
	if intent.Data != "" {
		args = append(args, "-d", intent.Data)
	}
	if intent.Type != "" {
		args = append(args, "-t", intent.Type)
	}
	for _, cat := range intent.Categories {
		args = append(args, "-c", cat)
	}
	if intent.Component != "" {
		args = append(args, "-n", intent.Component)
	} else if intent.Package != "" {
		args = append(args, "-p", intent.Package)
	}

	keys := make([]string, 0, len(intent.Extras))
	for k := range intent.Extras {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		args = append(args, "--es", k, intent.Extras[k])
	}

	var flags int
	if intent.Has(domain.FlagNewTask) {
		flags |= flagActivityNewTask
	}
	if intent.Has(domain.FlagGrantReadURIPermission) {
		flags |= flagGrantReadURIPermission
	}
	if flags != 0 {
		args = append(args, "-f", fmt.Sprintf("0x%08x", flags))
	}
	return args
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

var skipLabelParts = map[string]bool{
	"com": true, "net": true, "org": true, "android": true, "google": true, "app": true,
}

// labelFromPackage turns "org.videolan.vlc" into "Videolan Vlc".
func labelFromPackage(packageName string) string {
	parts := strings.Split(packageName, ".")
	var meaningful []string
	for _, p := range parts {
		if !skipLabelParts[strings.ToLower(p)] && len(p) > 2 {
			meaningful = append(meaningful, p)
		}
	}
	if len(meaningful) == 0 {
		meaningful = parts[len(parts)-1:]
	}
	for i, p := range meaningful {
		if p != "" {
			meaningful[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(meaningful, " ")
}
