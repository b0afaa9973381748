package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func routesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes in the manifest",
		Long: `List the manifest's routes in priority order and check that every
matcher compiles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			m, err := loadManifest(cmd.Context(), opts, cfg)
			if err != nil {
				return err
			}
			if _, err := m.Build(); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tMATCHER\tSOURCE\tOUTCOME")
			for i, r := range m.Routes {
				kind, source := r.Matcher()
				outcome := "render " + r.Render
				if r.Redirect != "" {
					outcome = "redirect " + r.Redirect
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, r.ID, kind, source, outcome)
			}
			return tw.Flush()
		},
	}
}
