package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tpn/displaylauncher/internal/domain"
)

type fakeLauncher struct {
	lastPath string
	lastBody map[string]any
	success  bool
}

func (f *fakeLauncher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastPath = r.URL.Path
	f.lastBody = nil
	if r.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
	}

	switch r.URL.Path {
	case "/api/apps":
		_, _ = io.WriteString(w, `[{"name":"Netflix","packageName":"com.netflix.ninja","isSystemApp":false},{"name":"VLC","packageName":"org.videolan.vlc","isSystemApp":false}]`)
	default:
		msg := "ok"
		if !f.success {
			msg = "Failed to launch app"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": f.success, "message": msg})
	}
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := root.Execute()
	return out.String(), err
}

func newFakeServer(t *testing.T, f *fakeLauncher) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv
}

func TestAppsCommand(t *testing.T) {
	srv := newFakeServer(t, &fakeLauncher{})

	out, err := run(t, srv, "apps", "--filter", "vlc")
	require.NoError(t, err)
	assert.Contains(t, out, "org.videolan.vlc")
	assert.NotContains(t, out, "com.netflix.ninja")
}

func TestLaunchCommand_Plain(t *testing.T) {
	f := &fakeLauncher{success: true}
	srv := newFakeServer(t, f)

	_, err := run(t, srv, "launch", "org.videolan.vlc")
	require.NoError(t, err)
	assert.Equal(t, "/api/launch", f.lastPath)
	assert.Equal(t, map[string]any{"packageName": "org.videolan.vlc"}, f.lastBody)
}

func TestLaunchCommand_WithIntent(t *testing.T) {
	f := &fakeLauncher{success: true}
	srv := newFakeServer(t, f)

	_, err := run(t, srv, "launch", "org.videolan.vlc", "-a", domain.ActionView, "-d", "https://x.test/v.mp4", "-e", "title=Demo")
	require.NoError(t, err)
	assert.Equal(t, "/api/launch-intent", f.lastPath)
	assert.Equal(t, map[string]any{
		"packageName": "org.videolan.vlc",
		"action":      domain.ActionView,
		"data":        "https://x.test/v.mp4",
		"extras":      map[string]any{"title": "Demo"},
	}, f.lastBody)
}

func TestLaunchCommand_Rejected(t *testing.T) {
	srv := newFakeServer(t, &fakeLauncher{success: false})

	out, err := run(t, srv, "launch", "com.missing")
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "Failed to launch app")
}

func TestParseExtras(t *testing.T) {
	got, err := parseExtras([]string{"a=1", "b=x=y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, got)

	_, err = parseExtras([]string{"novalue"})
	assert.Error(t, err)

	got, err = parseExtras(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
