package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tpn/displaylauncher/internal/domain"
)

const sampleYAML = `
device: living-room-tv
apps:
  - package: org.videolan.vlc
    label: VLC
    launch_activity: .StartActivity
  - package: com.netflix.ninja
    label: Netflix
    launch_activity: com.netflix.ninja/.MainActivity
  - package: com.android.settings
    label: Settings
    system: true
    launch_activity: .Settings
  - package: com.android.providers.media
    system: true
`

func mustParse(t *testing.T) *Catalog {
	t.Helper()
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	return c
}

func TestParse(t *testing.T) {
	c := mustParse(t)
	assert.Equal(t, "living-room-tv", c.Name())

	apps, err := c.ListInstalledApplications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.InstalledApp{
		{PackageName: "org.videolan.vlc"},
		{PackageName: "com.netflix.ninja"},
		{PackageName: "com.android.settings", System: true},
		{PackageName: "com.android.providers.media", System: true},
	}, apps)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "device: x\napps:\n  - package: a\n    colour: red\n", "colour"},
		{"missing package", "apps:\n  - label: Nameless\n", "apps[0]: package is required"},
		{"duplicate", "apps:\n  - package: a\n  - package: a\n", `apps[1]: duplicate package "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "living-room-tv", c.Name())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveLaunchIntent(t *testing.T) {
	c := mustParse(t)
	ctx := context.Background()

	intent, err := c.ResolveLaunchIntent(ctx, "org.videolan.vlc")
	require.NoError(t, err)
	assert.Equal(t, "org.videolan.vlc/.StartActivity", intent.Component)
	assert.Equal(t, domain.ActionMain, intent.Action)

	intent, err = c.ResolveLaunchIntent(ctx, "com.netflix.ninja")
	require.NoError(t, err)
	assert.Equal(t, "com.netflix.ninja/.MainActivity", intent.Component)

	_, err = c.ResolveLaunchIntent(ctx, "com.android.providers.media")
	assert.ErrorIs(t, err, domain.ErrNoLaunchEntry)

	_, err = c.ResolveLaunchIntent(ctx, "com.missing")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestApplicationLabel(t *testing.T) {
	c := mustParse(t)
	ctx := context.Background()

	label, err := c.ApplicationLabel(ctx, "org.videolan.vlc")
	require.NoError(t, err)
	assert.Equal(t, "VLC", label)

	label, err = c.ApplicationLabel(ctx, "com.android.providers.media")
	require.NoError(t, err)
	assert.Equal(t, "com.android.providers.media", label)

	_, err = c.ApplicationLabel(ctx, "com.missing")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestDispatchIntent(t *testing.T) {
	c := mustParse(t)
	ctx := context.Background()

	require.NoError(t, c.DispatchIntent(ctx, domain.Intent{Action: domain.ActionMain, Component: "org.videolan.vlc/.StartActivity"}))
	require.NoError(t, c.DispatchIntent(ctx, domain.Intent{Action: domain.ActionDelete, Data: "package:com.netflix.ninja"}))
	require.NoError(t, c.DispatchIntent(ctx, domain.Intent{Action: domain.ActionView, Data: "file:///tmp/uploaded_1.apk", Type: domain.MimePackageArchive}))

	err := c.DispatchIntent(ctx, domain.Intent{Action: domain.ActionDelete, Data: "package:com.missing"})
	assert.ErrorIs(t, err, domain.ErrNoResolver)

	err = c.DispatchIntent(ctx, domain.Intent{Action: "com.example.OPEN", Package: "com.missing"})
	assert.ErrorIs(t, err, domain.ErrNoResolver)

	err = c.DispatchIntent(ctx, domain.Intent{})
	assert.Error(t, err)

	got := c.Dispatched()
	require.Len(t, got, 3)
	assert.Equal(t, domain.ActionView, got[2].Action)
}
