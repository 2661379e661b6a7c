package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var programsCmd = &cobra.Command{
	Use:   "programs",
	Short: "List the programs the server answers about",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := loadRegistry(cfg.CatalogPath)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tJURISDICTION\tCATEGORY\tURL")
		for _, d := range registry.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Jurisdiction, d.Category, d.URL)
		}
		return w.Flush()
	},
}
