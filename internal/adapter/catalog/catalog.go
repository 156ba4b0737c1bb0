// Package catalog implements domain.PackageManager over a YAML description of
// a device. It backs local development and demos where no device is attached;
// dispatched intents are recorded instead of executed.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/tpn/displaylauncher/internal/domain"
	"gopkg.in/yaml.v3"
)

// App is one entry of the device description.
type App struct {
	Package        string `yaml:"package"`
	Label          string `yaml:"label"`
	System         bool   `yaml:"system"`
	LaunchActivity string `yaml:"launch_activity"`
}

// Device is the top-level document of a catalog file.
type Device struct {
	Name string `yaml:"device"`
	Apps []App  `yaml:"apps"`
}

type Catalog struct {
	device Device
	byPkg  map[string]App

	mu         sync.Mutex
	dispatched []domain.Intent
}

var _ domain.PackageManager = (*Catalog)(nil)

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var dev Device
	if err := dec.Decode(&dev); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return New(dev)
}

func New(dev Device) (*Catalog, error) {
	byPkg := make(map[string]App, len(dev.Apps))
	for i, app := range dev.Apps {
		if app.Package == "" {
			return nil, fmt.Errorf("apps[%d]: package is required", i)
		}
		if _, dup := byPkg[app.Package]; dup {
			return nil, fmt.Errorf("apps[%d]: duplicate package %q", i, app.Package)
		}
		byPkg[app.Package] = app
	}
	return &Catalog{device: dev, byPkg: byPkg}, nil
}

func (c *Catalog) Name() string {
	return c.device.Name
}

func (c *Catalog) ListInstalledApplications(ctx context.Context) ([]domain.InstalledApp, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	apps := make([]domain.InstalledApp, 0, len(c.device.Apps))
	for _, app := range c.device.Apps {
		apps = append(apps, domain.InstalledApp{PackageName: app.Package, System: app.System})
	}
	return apps, nil
}

func (c *Catalog) ResolveLaunchIntent(_ context.Context, packageName string) (*domain.Intent, error) {
	app, ok := c.byPkg[packageName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPackageNotFound, packageName)
	}
	if app.LaunchActivity == "" {
		return nil, domain.ErrNoLaunchEntry
	}
	return &domain.Intent{
		Action:     domain.ActionMain,
		Categories: []string{domain.CategoryLauncher},
		Package:    app.Package,
		Component:  component(app),
	}, nil
}

func (c *Catalog) ApplicationLabel(_ context.Context, packageName string) (string, error) {
	app, ok := c.byPkg[packageName]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrPackageNotFound, packageName)
	}
	if app.Label == "" {
		return app.Package, nil
	}
	return app.Label, nil
}

// DispatchIntent accepts intents whose target exists on the described device.
func (c *Catalog) DispatchIntent(ctx context.Context, intent domain.Intent) error {
	if err := c.checkTarget(intent); err != nil {
		return err
	}

	c.mu.Lock()
	c.dispatched = append(c.dispatched, intent)
	c.mu.Unlock()

	slog.InfoContext(ctx, "Intent dispatched",
		"device", c.device.Name,
		"action", intent.Action,
		"package", intent.Package,
		"component", intent.Component,
		"data", intent.Data)
	return nil
}

func (c *Catalog) checkTarget(intent domain.Intent) error {
	if intent.Action == "" && intent.Component == "" {
		return errors.New("intent has neither action nor component")
	}

	target := intent.Package
	if pkg, _, ok := strings.Cut(intent.Component, "/"); ok {
		target = pkg
	}
	if intent.Action == domain.ActionDelete {
		target = strings.TrimPrefix(intent.Data, "package:")
	}
	if target == "" {
		return nil
	}
	if _, ok := c.byPkg[target]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoResolver, target)
	}
	return nil
}

// Dispatched returns a copy of every intent accepted so far.
func (c *Catalog) Dispatched() []domain.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.dispatched)
}

func component(app App) string {
	activity := app.LaunchActivity
	if strings.Contains(activity, "/") {
		return activity
	}
	return app.Package + "/" + activity
}
