package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"inheritx/internal/audit"
	jwttoken "inheritx/internal/jwt_token"
	"inheritx/internal/platform/config"
	"inheritx/internal/platform/httpserver"
	"inheritx/internal/platform/logger"
	"inheritx/internal/platform/metrics"
	"inheritx/internal/platform/middleware"
	"inheritx/internal/registry"
	registrymetrics "inheritx/internal/registry/metrics"
	"inheritx/internal/registry/service"
	"inheritx/pkg/platform/circuit"
	"inheritx/pkg/platform/httputil"
)

func newServeCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the registry HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the built-in development JWT signing key")
	}

	owner, err := cfg.OwnerAddress()
	if err != nil {
		return err
	}
	registryID, err := cfg.ResolvedRegistryID()
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Error("failed to close backends", "error", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.New(promRegistry)
	registryMetrics := registrymetrics.New(promRegistry)

	publisherOpts := []audit.PublisherOption{audit.WithLogger(log)}
	if b.durableAudit {
		publisherOpts = append(publisherOpts,
			audit.WithFallback(audit.NewInMemoryStore(), circuit.New("audit-store")))
	}
	publisher := audit.NewPublisher(b.audit, publisherOpts...)

	g, gctx := errgroup.WithContext(ctx)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	var sink service.AuditPublisher = publisher
	if cfg.Audit.Async {
		queue := audit.NewQueue(cfg.Audit.QueueSize)
		sink = queue
		worker := audit.NewWorker(publisher, queue.Events(), audit.WithWorkerLogger(log))
		g.Go(func() error {
			if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	mod, err := registry.New(ctx, registry.Config{
		RegistryID: registryID,
		Owner:      owner,
		Store:      b.registry,
		Validator:  jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:     log,
	},
		service.WithAuditPublisher(sink),
		service.WithAuditLog(publisher),
		service.WithMetrics(registryMetrics),
	)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(httpMetrics))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Get("/healthz", healthHandler(b, log))
	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{Registry: promRegistry}))
	mod.Handler.Register(r)

	srv := httpserver.New(cfg.Server.Addr, r,
		httpserver.WithRequestTimeout(cfg.Server.RequestTimeout),
		httpserver.WithErrorLog(log),
	)

	g.Go(func() error {
		log.Info("starting inheritx",
			"addr", cfg.Server.Addr,
			"registry_id", registryID.String(),
			"owner", owner.String(),
			"store", cfg.Registry.Store,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// In-flight requests have finished; flush queued audit events.
		stopWorker()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped")
		return nil
	})
	return g.Wait()
}

func healthHandler(b *backends, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := b.Health(r.Context()); err != nil {
			log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
