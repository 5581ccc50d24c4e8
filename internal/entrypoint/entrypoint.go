package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/logging"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

const rateLimitPruneInterval = time.Minute

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// and calls onShutdown within the configured timeout.
func Serve(ctx context.Context, router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Dur("timeout", timeout).Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if onShutdown != nil {
			onShutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exiting")
	return nil
}

// Run wires the catalog, authentication, audit and maintenance components
// and serves the API until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) error {
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", version).Msg("Starting Librarian")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := OpenCatalog(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := cat.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := cat.Auth.EnsureAdminPassword(); err != nil {
		return fmt.Errorf("failed to set admin password: %w", err)
	}
	if cfg.Auth.AdminPassword == "" {
		log.Warn().Msg("AUTH_ADMIN_PASSWORD is not set; the admin account cannot log in")
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		log.Warn().Msg("Generated JWT secret (set AUTH_JWT_SECRET to keep tokens valid across restarts)")
	}
	tokens := auth.NewTokenIssuer(secret, cfg.Auth.TokenExpiry)

	limiter := auth.NewRateLimiter(cfg.Auth)
	limiter.Start(rateLimitPruneInterval)
	defer limiter.Stop()

	authMiddleware := auth.NewMiddleware(cat.Auth, tokens, limiter)

	routerCfg := http_controllers.RouterConfig{
		Books:              cat.Books,
		Editor:             cat.Editor,
		Authors:            cat.Authors,
		Series:             cat.Series,
		Genres:             cat.Genres,
		Diagnoser:          http_controllers.NewDiagnoser(cat.Books, cat.Authors, cat.Series, cat.Genres),
		AuthMiddleware:     authMiddleware,
		TokenIssuer:        tokens,
		AuditRecorder:      cat.Audit,
		AuditReader:        cat.Audit,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		Database:           cat.DB,
		Version:            version,
	}

	var (
		taskClient *tasks.Client
		maint      *scheduler.MaintenanceScheduler
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewVerifySeriesQueue(cat.Series, cat.Audit),
			tasks.NewCleanupAuditEventsQueue(cat.Audit, cat.Audit),
		)
		routerCfg.TaskQueue = taskClient
		maint = scheduler.NewMaintenanceScheduler(taskClient, cfg.Maintenance, cfg.Audit.RetentionDays)
	} else {
		log.Info().Msg("Task queue disabled; maintenance endpoints will return 503")
	}

	router := http_controllers.NewRouter(routerCfg)

	g, gctx := errgroup.WithContext(ctx)

	if taskClient != nil {
		taskCtx, cancelTasks := context.WithCancel(context.Background())
		defer cancelTasks()
		go taskClient.Start(taskCtx)

		g.Go(func() error {
			return maint.Start(gctx)
		})
	}

	g.Go(func() error {
		return Serve(gctx, router, cfg, func(shutdownCtx context.Context) {
			if taskClient != nil && !taskClient.Stop(shutdownCtx) {
				log.Warn().Msg("Task workers did not finish before the shutdown deadline")
			}
		})
	})

	return g.Wait()
}
