package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iwvelando/business-forecast/internal/benchmark"
	"github.com/iwvelando/business-forecast/internal/config"
	"github.com/iwvelando/business-forecast/internal/engine"
	"github.com/iwvelando/business-forecast/internal/store"
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootFlags struct {
	configPath string
	logLevel   string
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	conf   *config.Configuration
	logger *zap.Logger
	svc    *engine.Service
	closer io.Closer
}

func (a *app) Close() {
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Warn("failed to close version store",
				zap.String("op", "main.Close"),
				zap.Error(err),
			)
		}
	}
	_ = a.logger.Sync()
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "business-forecast",
		Short:         "Business projection and scenario engine",
		Long:          "Project revenue, costs, EBITDA, break-even, runway and unit economics across named scenarios, and keep versioned snapshots of the results.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newProjectCmd(flags),
		newScenariosCmd(flags),
		newVersionsCmd(flags),
		newBenchmarksCmd(flags),
		newServeCmd(flags),
	)
	return root
}

// loadConfiguration reads the config file. The default path may be absent,
// in which case the built-in defaults apply; an explicit path must exist.
func loadConfiguration(cmd *cobra.Command, path string) (*config.Configuration, error) {
	conf, err := config.LoadConfiguration(path)
	if err == nil {
		return conf, nil
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("failed to load configuration at %s: %w", path, err)
}

func setup(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*app, error) {
	// A missing .env is normal; DATABASE_URL may come from the environment.
	_ = godotenv.Load()

	conf, err := loadConfiguration(cmd, flags.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := initializeLogger(conf.Logging, flags.logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	benchmarks, err := benchmark.Load(conf.Benchmarks.File)
	if err != nil {
		return nil, err
	}

	versions, closer, err := store.Open(ctx, conf.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open version store: %w", err)
	}

	svc := engine.New(logger, engine.Config{
		Drivers:    conf.Drivers,
		Options:    conf.ProjectionOptions(),
		Scenarios:  engine.StaticScenarios(conf.Scenarios),
		Store:      versions,
		Benchmarks: benchmarks,
	})
	return &app{conf: conf, logger: logger, svc: svc, closer: closer}, nil
}
