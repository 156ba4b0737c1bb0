package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tpn/displaylauncher/internal/domain"
)

func newAppsCmd(opts *globalOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List launchable applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			apps, err := opts.client().Apps(ctx)
			if err != nil {
				return err
			}
			printApps(cmd.OutOrStdout(), matching(apps, filter))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show apps whose name or package contains this text")
	return cmd
}

func matching(apps []domain.AppRecord, filter string) []domain.AppRecord {
	if filter == "" {
		return apps
	}
	q := strings.ToLower(filter)
	var out []domain.AppRecord
	for _, app := range apps {
		if strings.Contains(strings.ToLower(app.Name), q) || strings.Contains(strings.ToLower(app.PackageName), q) {
			out = append(out, app)
		}
	}
	return out
}

func printApps(w io.Writer, apps []domain.AppRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tPACKAGE\tSYSTEM")
	for _, app := range apps {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\n", app.Name, app.PackageName, app.IsSystemApp)
	}
	_ = tw.Flush()
}
