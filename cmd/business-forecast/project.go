package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/business-forecast/internal/engine"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/output"
	"github.com/iwvelando/business-forecast/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type projectFlags struct {
	scenarios    []string
	sets         []string
	outputFormat string
	outPath      string
	saveLabel    string
	summary      string
	createdBy    string
}

func newProjectCmd(root *rootFlags) *cobra.Command {
	flags := &projectFlags{}
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Compute projections for one or more scenarios",
		Example: `  business-forecast project --scenario base --set arpu=30 --set baseOpex.2=950000
  business-forecast project --scenario all --output-format xlsx --out forecast.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()
			return runProject(cmd, a, flags)
		},
	}
	cmd.Flags().StringSliceVarP(&flags.scenarios, "scenario", "s", []string{"base"}, `scenario keys to project, or "all" for every active scenario`)
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "driver override as name=value (yearly drivers use name.N=value)")
	cmd.Flags().StringVarP(&flags.outputFormat, "output-format", "o", "", "type of output override: pretty, csv, json, xlsx")
	cmd.Flags().StringVar(&flags.outPath, "out", "", "write output to a file instead of stdout")
	cmd.Flags().StringVar(&flags.saveLabel, "save", "", "save each projection as a version with this label")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "summary stored with --save")
	cmd.Flags().StringVar(&flags.createdBy, "created-by", os.Getenv("USER"), "author stored with --save")
	return cmd
}

func runProject(cmd *cobra.Command, a *app, flags *projectFlags) error {
	ctx := cmd.Context()

	outputFormat := a.conf.Output.Format
	if flags.outputFormat != "" {
		outputFormat = flags.outputFormat
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	raw, err := parseSetFlags(flags.sets)
	if err != nil {
		return err
	}
	overrides, err := drivers.ParseOverrides(raw)
	if err != nil {
		return err
	}

	keys, err := resolveScenarioKeys(cmd, a.svc, flags.scenarios)
	if err != nil {
		return err
	}

	results := make([]*engine.Computation, 0, len(keys))
	for _, key := range keys {
		c, err := a.svc.ComputeProjection(ctx, key, overrides)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", key, err)
		}
		results = append(results, c)
	}

	if flags.saveLabel != "" {
		for _, c := range results {
			snap, err := a.svc.SaveComputation(ctx, c, flags.saveLabel, flags.summary, flags.createdBy)
			if err != nil {
				return err
			}
			a.logger.Info("saved projection",
				zap.String("op", "main.project"),
				zap.String("id", snap.ID),
				zap.String("scenario", snap.ScenarioKey),
			)
		}
	}

	return writeOutput(cmd.OutOrStdout(), flags.outPath, outputFormat, results, a.conf.Projection.StartMonth)
}

func writeOutput(stdout io.Writer, outPath, outputFormat string, results []*engine.Computation, startMonth string) error {
	if outPath == "" {
		return output.Write(stdout, outputFormat, results, startMonth)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := output.Write(f, outputFormat, results, startMonth); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func resolveScenarioKeys(cmd *cobra.Command, svc *engine.Service, requested []string) ([]string, error) {
	if len(requested) == 1 && requested[0] == "all" {
		scenarios, err := svc.ListScenarios(cmd.Context())
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(scenarios))
		for _, sc := range scenarios {
			keys = append(keys, sc.ScenarioKey)
		}
		return keys, nil
	}
	return requested, nil
}

// parseSetFlags turns repeated name=value flags into an override map.
func parseSetFlags(sets []string) (map[string]float64, error) {
	raw := make(map[string]float64, len(sets))
	for _, set := range sets {
		name, value, ok := strings.Cut(set, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", set)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", set, err)
		}
		if _, dup := raw[name]; dup {
			return nil, fmt.Errorf("driver %s set more than once", name)
		}
		raw[name] = v
	}
	return raw, nil
}
