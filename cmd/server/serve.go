package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/database"
	"github.com/iliyamo/user-auth-service/internal/handler"
	"github.com/iliyamo/user-auth-service/internal/logger"
	"github.com/iliyamo/user-auth-service/internal/metrics"
	"github.com/iliyamo/user-auth-service/internal/middleware"
	"github.com/iliyamo/user-auth-service/internal/queue"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/router"
	"github.com/iliyamo/user-auth-service/internal/service"
	"github.com/iliyamo/user-auth-service/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. APP_ENDPOINTS selects which endpoint sets
(signup, login, reset) this process mounts.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	db, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher, err := utils.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return err
	}
	users := repository.NewUserRepo(db, hasher)
	tokens := repository.NewTokenRepo(db)

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewAMQPPublisher(cfg.AMQPURL, log)
	}

	auth := service.NewAuthService(users, events, log)
	reset := service.NewResetService(db, users, tokens, events, log)
	reset.TTL = cfg.ResetTokenTTL

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterMetrics(reg)

	e := echo.New()
	middleware.Apply(e, log, cfg.CORSOrigins)
	router.Register(e, cfg, db, router.Handlers{
		Auth:  handler.NewAuthHandler(auth, log),
		Reset: handler.NewResetHandler(reset, cfg.ResetURLBase, log),
	}, reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("driver", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

// openStore opens the configured database and applies migrations when
// DB_AUTO_MIGRATE is set.
func openStore(cfg config.Config, log zerolog.Logger) (*sql.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.DBDriver).Msg("open database failed")
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db, cfg.DBDriver); err != nil {
			db.Close()
			log.Error().Err(err).Msg("migrate failed")
			return nil, err
		}
	}
	return db, nil
}
