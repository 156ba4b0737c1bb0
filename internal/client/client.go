// Package client is a Go client for the launcher control API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tpn/displaylauncher/internal/domain"
	"github.com/tpn/displaylauncher/internal/platform/version"
)

const DefaultBaseURL = "http://localhost:9091"

// Result is the {success, message} envelope returned by control endpoints.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Apps(ctx context.Context) ([]domain.AppRecord, error) {
	var apps []domain.AppRecord
	if err := c.get(ctx, "/api/apps", &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (c *Client) Health(ctx context.Context) (Result, error) {
	var res Result
	err := c.get(ctx, "/api/health", &res)
	return res, err
}

func (c *Client) Version(ctx context.Context) (version.Info, error) {
	var info version.Info
	err := c.get(ctx, "/version", &info)
	return info, err
}

func (c *Client) Launch(ctx context.Context, packageName string) (Result, error) {
	return c.postJSON(ctx, "/api/launch", map[string]string{"packageName": packageName})
}

func (c *Client) LaunchIntent(ctx context.Context, req domain.LaunchRequest) (Result, error) {
	body := struct {
		PackageName string            `json:"packageName"`
		Action      string            `json:"action,omitempty"`
		Data        string            `json:"data,omitempty"`
		Extras      map[string]string `json:"extras,omitempty"`
	}{req.PackageName, req.Action, req.Data, req.Extras}
	return c.postJSON(ctx, "/api/launch-intent", body)
}

func (c *Client) Uninstall(ctx context.Context, packageName string) (Result, error) {
	return c.postJSON(ctx, "/api/uninstall", map[string]string{"packageName": packageName})
}

// Install uploads a local archive and asks the device to install it.
func (c *Client) Install(ctx context.Context, apkPath string) (Result, error) {
	f, err := os.Open(apkPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", apkPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(apkPath))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", apkPath, err)
	}
	if err := w.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to build upload: %w", err)
	}

	var res Result
	err = c.do(ctx, http.MethodPost, "/api/upload-apk", w.FormDataContentType(), &body, &res)
	return res, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any) (Result, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode request: %w", err)
	}
	var res Result
	err = c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload), &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
