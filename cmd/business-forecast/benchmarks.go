package main

import (
	"github.com/spf13/cobra"
)

func newBenchmarksCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "benchmarks",
		Short: "Print the benchmark table in effect as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.svc.Benchmarks().Write(cmd.OutOrStdout())
		},
	}
}
