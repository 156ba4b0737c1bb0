package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tpn/displaylauncher/internal/client"
	"github.com/tpn/displaylauncher/internal/domain"
)

func newLaunchCmd(opts *globalOptions) *cobra.Command {
	var (
		action string
		data   string
		extras []string
	)

	cmd := &cobra.Command{
		Use:   "launch <package>",
		Short: "Launch an application, optionally with a custom intent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extraMap, err := parseExtras(extras)
			if err != nil {
				return err
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			c := opts.client()
			var res client.Result
			if action == "" && data == "" && len(extraMap) == 0 {
				res, err = c.Launch(ctx, args[0])
			} else {
				res, err = c.LaunchIntent(ctx, domain.LaunchRequest{
					PackageName: args[0],
					Action:      action,
					Data:        data,
					Extras:      extraMap,
				})
			}
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&action, "action", "a", "", "intent action, e.g. android.intent.action.VIEW")
	cmd.Flags().StringVarP(&data, "data", "d", "", "intent data URI")
	cmd.Flags().StringArrayVarP(&extras, "extra", "e", nil, "string extra as key=value (repeatable)")
	return cmd
}

func parseExtras(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid extra %q, want key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}
