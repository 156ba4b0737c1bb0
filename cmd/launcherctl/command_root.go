package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tpn/displaylauncher/internal/client"
)

const requestTimeout = 15 * time.Second

var errRejected = errors.New("request rejected by launcher")

type globalOptions struct {
	server  string
	timeout time.Duration
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "launcherctl",
		Short:         "Control a display launcher over its HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultServer := os.Getenv("LAUNCHER_URL")
	if defaultServer == "" {
		defaultServer = client.DefaultBaseURL
	}
	root.PersistentFlags().StringVarP(&opts.server, "server", "s", defaultServer, "launcher base URL (env LAUNCHER_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", requestTimeout, "per-request timeout")

	root.AddCommand(newAppsCmd(opts))
	root.AddCommand(newLaunchCmd(opts))
	root.AddCommand(newUninstallCmd(opts))
	root.AddCommand(newInstallCmd(opts))
	root.AddCommand(newHealthCmd(opts))
	root.AddCommand(newVersionCmd(opts))

	return root
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.server, o.timeout)
}

func (o *globalOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// report prints the server's message and turns a failed envelope into an error
// so the process exits non-zero.
func report(w io.Writer, res client.Result) error {
	_, _ = fmt.Fprintln(w, res.Message)
	if !res.Success {
		return errRejected
	}
	return nil
}
