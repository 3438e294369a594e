package main

import (
	"context"
	"fmt"

	"advisory-tracker/config"
	"advisory-tracker/internal/metrics"
	"advisory-tracker/internal/notify"
	"advisory-tracker/internal/repository"
	"advisory-tracker/internal/sweeper"
	"advisory-tracker/internal/transport/http/middleware"
	"advisory-tracker/internal/transport/http/server/handlers-fiber"
	"advisory-tracker/internal/usecase"
	"advisory-tracker/internal/usecase/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func serveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the lease sweeper and the notification dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	repo, err := repository.New(ctx, cfg.Storage.Backend, log, cfg)
	if err != nil {
		log.Errorw("repository initialization error", "error", err)
		return err
	}
	if err := repo.OnStart(ctx); err != nil {
		log.Errorw("repository start error", "error", err)
		return err
	}
	defer func() {
		_ = repo.OnStop(context.Background())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	coreMetrics, err := metrics.NewCoreMetrics(registry)
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(log, notify.NewLogSink(log), cfg.Notify.BufferSize, cfg.Notify.Workers, coreMetrics)
	uc := usecase.New(log.Named("usecase"), ctx, repo, cfg.HTTP.RequestTimeout,
		domain.WithLeaseTTL(cfg.Lease.TTL),
		domain.WithNotifier(dispatcher),
		domain.WithMetrics(coreMetrics),
	)

	serv := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.RequestTimeout,
		WriteTimeout: cfg.HTTP.RequestTimeout,
	})
	serv.Use(recover.New())
	serv.Use(requestid.New())
	serv.Use(middleware.RequestLogger(log))

	serv.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	serv.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	h := handlers_fiber.NewHandler(log, uc, cfg.Lease.TTL)
	handlers_fiber.RegisterHandlers(serv, h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("http server listening", "addr", cfg.ServerAddr())
		if err := serv.Listen(cfg.ServerAddr()); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := serv.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			log.Warnw("server shutdown timeout", "timeout", cfg.Server.ShutdownTimeout, "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	if cfg.Sweep.Enabled {
		s := sweeper.New(log, uc, cfg.Sweep.Interval)
		g.Go(func() error {
			return s.Run(gctx)
		})
	}
	return g.Wait()
}
