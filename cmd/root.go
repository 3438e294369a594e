package main

import (
	"fmt"

	"advisory-tracker/config"
	"advisory-tracker/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	envFile  string
	logLevel string
}

func rootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "advisory-tracker",
		Short:         "Coordinates advisory remediation across teams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "config/.env", "dotenv file loaded before the environment")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "overrides logging.level")

	cmd.AddCommand(
		serveCommand(opts),
		sweepCommand(opts),
		migrateCommand(opts),
	)
	return cmd
}

// setup loads configuration and builds the logger shared by every subcommand.
func (o *rootOptions) setup() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
