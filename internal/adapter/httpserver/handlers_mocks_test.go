package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/tpn/displaylauncher/internal/domain"
	"github.com/tpn/displaylauncher/internal/platform/config"
)

// --- Mock implementations ---

type mockGateway struct {
	listFn      func(ctx context.Context) []domain.AppRecord
	launchFn    func(ctx context.Context, pkg string) bool
	intentFn    func(ctx context.Context, req domain.LaunchRequest) bool
	uninstallFn func(ctx context.Context, pkg string) bool
	installFn   func(ctx context.Context, path string) bool

	mu    sync.Mutex
	calls []string
}

func (m *mockGateway) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockGateway) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockGateway) ListApplications(ctx context.Context) []domain.AppRecord {
	m.record("list")
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []domain.AppRecord{}
}

func (m *mockGateway) Launch(ctx context.Context, pkg string) bool {
	m.record("launch " + pkg)
	if m.launchFn != nil {
		return m.launchFn(ctx, pkg)
	}
	return false
}

func (m *mockGateway) LaunchWithIntent(ctx context.Context, req domain.LaunchRequest) bool {
	m.record("intent " + req.PackageName)
	if m.intentFn != nil {
		return m.intentFn(ctx, req)
	}
	return false
}

func (m *mockGateway) RequestUninstall(ctx context.Context, pkg string) bool {
	m.record("uninstall " + pkg)
	if m.uninstallFn != nil {
		return m.uninstallFn(ctx, pkg)
	}
	return false
}

func (m *mockGateway) StageAndRequestInstall(ctx context.Context, path string) bool {
	m.record("install " + path)
	if m.installFn != nil {
		return m.installFn(ctx, path)
	}
	return false
}

type mockStager struct {
	stageFn func(ctx context.Context, src io.Reader) (string, error)
}

func (m *mockStager) Stage(ctx context.Context, src io.Reader) (string, error) {
	if m.stageFn != nil {
		return m.stageFn(ctx, src)
	}
	_, err := io.Copy(io.Discard, src)
	return "/tmp/uploaded_1.apk", err
}

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		MaxUploadSize:      "1M",
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
	}
}

type serverOptions struct {
	stager       artifactStager
	registry     *prometheus.Registry
	healthChecks []HealthCheck
}

func withStager(st artifactStager) func(*serverOptions) {
	return func(o *serverOptions) { o.stager = st }
}

func withRegistry(reg *prometheus.Registry) func(*serverOptions) {
	return func(o *serverOptions) { o.registry = reg }
}

func withHealthChecks(checks ...HealthCheck) func(*serverOptions) {
	return func(o *serverOptions) { o.healthChecks = checks }
}

func newTestServer(t *testing.T, gw gateway, opts ...func(*serverOptions)) *Server {
	t.Helper()

	o := serverOptions{stager: &mockStager{}}
	for _, opt := range opts {
		opt(&o)
	}

	srv, err := NewServer(testConfig(), gw, o.stager, o.registry, o.healthChecks)
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postJSON(srv *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(srv, req)
}

func postFile(t *testing.T, srv *Server, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-apk", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return serve(srv, req)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp
}
