package main

import (
	"fmt"

	"advisory-tracker/internal/repository"
	"advisory-tracker/internal/sweeper"
	"advisory-tracker/internal/usecase"
	"advisory-tracker/internal/usecase/domain"

	"github.com/spf13/cobra"
)

func sweepCommand(opts *rootOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Release expired entry leases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			repo, err := repository.New(ctx, cfg.Storage.Backend, log, cfg)
			if err != nil {
				return err
			}
			if err := repo.OnStart(ctx); err != nil {
				return fmt.Errorf("repository start: %w", err)
			}
			defer func() { _ = repo.OnStop(ctx) }()

			uc := usecase.New(log.Named("usecase"), ctx, repo, cfg.HTTP.RequestTimeout, domain.WithLeaseTTL(cfg.Lease.TTL))
			if once {
				n, err := uc.SweepExpired(ctx)
				if err != nil {
					return err
				}
				log.Infow("sweep finished", "released", n)
				return nil
			}
			return sweeper.New(log, uc, cfg.Sweep.Interval).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single sweep and exit")
	return cmd
}
