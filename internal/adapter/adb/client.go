// Package adb implements domain.PackageManager against a device reached
// through the adb command-line tool.
package adb

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/tpn/displaylauncher/internal/platform/retry"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultRemoteDir = "/data/local/tmp"
)

// Runner executes the adb binary. It exists so tests can script device output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// ExecRunner runs adb as a child process.
func ExecRunner() Runner {
	return execRunner{}
}

type Config struct {
	Path      string
	Serial    string
	Timeout   time.Duration
	RemoteDir string
	Retry     retry.Policy
}

type Client struct {
	cfg    Config
	runner Runner
	lists  singleflight.Group
}

func New(cfg Config, runner Runner) *Client {
	if cfg.Path == "" {
		cfg.Path = "adb"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = defaultRemoteDir
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = retry.Policy{MaxAttempts: 3, InitialBackoff: 500 * time.Millisecond, MaxBackoff: 2 * time.Second}
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
			slog.Warn("adb command failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		}
	}
	if runner == nil {
		runner = ExecRunner()
	}
	return &Client{cfg: cfg, runner: runner}
}

// Ping checks that the device answers; used as a readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	out, err := c.adb(ctx, "get-state")
	if err != nil {
		return err
	}
	if state := strings.TrimSpace(out); state != "device" {
		return fmt.Errorf("device state is %q", state)
	}
	return nil
}

func (c *Client) adb(ctx context.Context, args ...string) (string, error) {
	full := args
	if c.cfg.Serial != "" {
		full = append([]string{"-s", c.cfg.Serial}, args...)
	}

	return retry.Do(ctx, c.cfg.Retry, classify, func() (string, error) {
		runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		out, err := c.runner.Run(runCtx, c.cfg.Path, full...)
		return string(out), err
	})
}

// shell runs a command through the device shell. adb joins the arguments
// into one command line, so each one is quoted.
func (c *Client) shell(ctx context.Context, args ...string) (string, error) {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, "shell")
	for _, a := range args {
		quoted = append(quoted, shellQuote(a))
	}
	return c.adb(ctx, quoted...)
}

var transientMarkers = []string{
	"device offline",
	"no devices/emulators found",
	"device not found",
	"protocol fault",
	"connection reset",
}

func classify(err error) retry.Action {
	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return retry.Retry
		}
	}
	return retry.Stop
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("._/:=@%+,-", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
