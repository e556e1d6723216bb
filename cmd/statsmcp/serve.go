package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/statsmcp/internal/infra/config"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/logging"
	"github.com/matiasleandrokruk/statsmcp/internal/server"
)

type serveFlags struct {
	configFile string
	envFile    string
	host       string
	port       int
	dataset    string
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP, JSON-RPC and REST server",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServeConfig(cmd, f)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("logging: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := server.Build(ctx, cfg, logger, server.BuildOptions{})
			if err != nil {
				return err
			}
			return app.Server.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configFile, "config", "", "YAML config file (default: $"+config.EnvKeyConfigFile+")")
	flags.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded when present")
	flags.StringVar(&f.host, "host", "", "bind host (overrides STATSMCP_HOST)")
	flags.IntVar(&f.port, "port", 0, "bind port (overrides STATSMCP_PORT)")
	flags.StringVar(&f.dataset, "dataset", "", "dataset path, CSV or SQLite (overrides DATASET_PATH)")
	return cmd
}

// loadServeConfig applies flags on top of file and environment settings and
// validates the result.
func loadServeConfig(cmd *cobra.Command, f serveFlags) (config.Config, error) {
	opts := config.LoadOptions{ConfigFile: f.configFile}
	if f.envFile != "" {
		opts.EnvFiles = []string{f.envFile}
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("dataset") {
		cfg.DatasetPath = f.dataset
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
