package main

import (
	"fmt"

	"advisory-tracker/internal/repository"
	"advisory-tracker/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func migrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations for the configured storage backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if cfg.Storage.Backend == "postgres" {
				if err := postgres.Migrate(ctx, cfg.Postgres); err != nil {
					return err
				}
				log.Infow("migrations applied", "backend", "postgres", "dir", cfg.Postgres.MigrationsDir)
				return nil
			}

			// the embedded backend migrates its models when it starts
			repo, err := repository.New(ctx, cfg.Storage.Backend, log, cfg)
			if err != nil {
				return err
			}
			if err := repo.OnStart(ctx); err != nil {
				return fmt.Errorf("migrate %s: %w", cfg.Storage.Backend, err)
			}
			log.Infow("migrations applied", "backend", cfg.Storage.Backend)
			return repo.OnStop(ctx)
		},
	}
}
