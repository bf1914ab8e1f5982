package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/iwvelando/business-forecast/internal/engine"
	"github.com/iwvelando/business-forecast/internal/workspace"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/validation"
	"github.com/spf13/cobra"
)

func newVersionsCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage saved projection versions",
	}
	cmd.AddCommand(
		newVersionsListCmd(root),
		newVersionsSaveCmd(root),
		newVersionsShowCmd(root),
		newVersionsReplayCmd(root),
		newVersionsDeleteCmd(root),
	)
	return cmd
}

func newVersionsListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved versions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			snapshots, err := a.svc.ListVersions(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSCENARIO\tLABEL\tCREATED\tBY")
			for _, s := range snapshots {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.ScenarioKey, s.Label, s.CreatedAt.Local().Format(time.DateTime), s.CreatedBy)
			}
			return tw.Flush()
		},
	}
}

func newVersionsSaveCmd(root *rootFlags) *cobra.Command {
	var key, label, summary, createdBy string
	var sets []string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Compute a scenario and save it as a version",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := parseSetFlags(sets)
			if err != nil {
				return err
			}
			overrides, err := drivers.ParseOverrides(raw)
			if err != nil {
				return err
			}
			c, err := a.svc.ComputeProjection(cmd.Context(), key, overrides)
			if err != nil {
				return err
			}
			snap, err := a.svc.SaveComputation(cmd.Context(), c, label, summary, createdBy)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&key, "scenario", "s", "base", "scenario key")
	cmd.Flags().StringVarP(&label, "label", "l", "", "version label (required)")
	cmd.Flags().StringVar(&summary, "summary", "", "free-text summary")
	cmd.Flags().StringVar(&createdBy, "created-by", os.Getenv("USER"), "author")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "driver override as name=value")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

func newVersionsShowCmd(root *rootFlags) *cobra.Command {
	var outputFormat, outPath string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Render a saved version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			if outputFormat == "" {
				outputFormat = a.conf.Output.Format
			}
			if err := validation.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}
			snap, err := a.svc.GetVersion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entry := workspace.New().Reload(snap)
			return writeOutput(cmd.OutOrStdout(), outPath, outputFormat, []*engine.Computation{entry.Computation}, a.conf.Projection.StartMonth)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output-format", "o", "", "type of output override: pretty, csv, json, xlsx")
	cmd.Flags().StringVar(&outPath, "out", "", "write output to a file instead of stdout")
	return cmd
}

func newVersionsReplayCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay ID",
		Short: "Recompute a saved version and check it reproduces exactly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.svc.GetVersion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := a.svc.Replay(cmd.Context(), snap)
			if err != nil {
				return err
			}
			if !report.Matches {
				return fmt.Errorf("version %s does not reproduce from its drivers", snap.ID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %s reproduces exactly\n", snap.ID)
			return nil
		},
	}
}

func newVersionsDeleteCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.svc.DeleteVersion(cmd.Context(), args[0])
		},
	}
}
