package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tpn/displaylauncher/internal/platform/version"
)

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "client: %s\n", version.Get())

			ctx, cancel := opts.context(cmd)
			defer cancel()

			info, err := opts.client().Version(ctx)
			if err != nil {
				_, _ = fmt.Fprintf(out, "server: unavailable (%v)\n", err)
				return nil
			}
			_, _ = fmt.Fprintf(out, "server: %s\n", info)
			return nil
		},
	}
}
