package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/business-forecast/internal/config"
	"github.com/iwvelando/business-forecast/internal/server"
	"github.com/iwvelando/business-forecast/internal/workspace"
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var serverConfigPath, address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the projection API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConf, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if address != "" {
				serverConf.Address = address
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := setup(ctx, cmd, root)
			if err != nil {
				return err
			}
			defer a.Close()

			// The server config may route logs separately from the CLI.
			logger := a.logger
			if serverConf.Logging != (config.LoggingConfig{}) {
				logger, err = initializeLogger(serverConf.Logging, root.logLevel)
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}

			handler := server.NewHandler(logger, a.svc, workspace.New(), server.Options{
				MaxBodySize:    serverConf.BodySizeBytes(),
				RequestTimeout: serverConf.RequestTimeoutDuration(),
				Version:        version,
			})
			return server.Run(ctx, logger, serverConf.Address, handler)
		},
	}
	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override")
	return cmd
}
