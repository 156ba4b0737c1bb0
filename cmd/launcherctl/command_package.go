package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Open the uninstall confirmation for a package on the device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().Uninstall(ctx, args[0])
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res)
		},
	}
}

func newInstallCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install <file.apk>",
		Short: "Upload an APK and open the install confirmation on the device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().Install(ctx, args[0])
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res)
		},
	}
}

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the launcher API answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().Health(ctx)
			if err != nil {
				return fmt.Errorf("launcher unreachable: %w", err)
			}
			return report(cmd.OutOrStdout(), res)
		},
	}
}
