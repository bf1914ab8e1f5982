package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/iwvelando/business-forecast/pkg/scenario"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newScenariosCmd(root *rootFlags) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the active scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			scenarios, err := a.svc.ListScenarios(cmd.Context())
			if err != nil {
				return err
			}
			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(map[string][]scenario.Config{"scenarios": scenarios}); err != nil {
					return err
				}
				return enc.Close()
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tGROWTH\tCHURN\tCAC\tIMPRESSIONS\tCPM\tFILL\tSHARE")
			for _, sc := range scenarios {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%+.1f\n",
					sc.ScenarioKey, sc.Label, sc.Growth, sc.Churn, sc.CAC, sc.Impressions, sc.CPM, sc.FillRate, sc.PlatformRevenueShare)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the scenario table as YAML")
	return cmd
}
