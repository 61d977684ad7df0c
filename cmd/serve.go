package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/lostfound/internal/config"
	"github.com/Vovarama1992/lostfound/internal/delivery"
	ws "github.com/Vovarama1992/lostfound/internal/delivery/ws"
	"github.com/Vovarama1992/lostfound/internal/domain"
	"github.com/Vovarama1992/lostfound/internal/infra"
	"github.com/Vovarama1992/lostfound/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cfg, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	return cmd
}

// newLogger builds the production zap config, or the development one
// when LOG_LEVEL=debug.
func newLogger(level string) (*logger.ZapLogger, func(), error) {
	var (
		zcore *zap.Logger
		err   error
	)
	if level == "debug" {
		zcore, err = zap.NewDevelopment()
	} else {
		zcore, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init zap: %w", err)
	}
	return logger.NewZapLogger(zcore.Sugar()), func() { _ = zcore.Sync() }, nil
}

func serve(cfg *config.Config, migrate bool) error {
	// LOGGER
	zl, sync, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// POSTGRES
	pool, err := infra.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if migrate {
		if err := infra.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// SERVICES
	repo := infra.NewPostgresReportRepo(pool)

	images, err := infra.NewImageStore(cfg.Storage)
	if err != nil {
		return err
	}

	maxImage := cfg.MaxUploadMB << 20
	reports := domain.NewReportService(repo, images, zl, domain.ReportServiceOptions{
		MaxImageBytes: maxImage,
		UploadTimeout: cfg.UploadTimeout,
	})

	// WS HUB
	hub := ws.NewHub(zl)
	go hub.Forward(ctx, reports.Events())

	// ROUTER
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(delivery.RequestLogger(zl))

	routes := delivery.Routes{
		Reports: delivery.NewReportHandler(reports, zl, maxImage),
		Health:  delivery.NewHealthHandler(repo),
		Feed:    ws.FeedHandler(hub),
	}
	if cfg.ServeWeb {
		routes.Web = web.Handler()
	}
	if cfg.Storage.Provider == config.ProviderLocal {
		routes.Uploads = http.FileServer(http.Dir(cfg.Storage.LocalDir))
	}
	delivery.RegisterRoutes(r, routes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields: map[string]any{
				"port":          cfg.Port,
				"imageProvider": cfg.Storage.Provider,
				"serveWeb":      cfg.ServeWeb,
			},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zl.Log(logger.LogEntry{
				Level:   "error",
				Message: "server crashed",
				Error:   err,
			})
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "shutting down",
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
