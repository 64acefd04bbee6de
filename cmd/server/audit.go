package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/logger"
	"github.com/iliyamo/user-auth-service/internal/queue"
)

// NewAuditCmd creates the audit subcommand.
func NewAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Consume auth events into the audit log",
		Long: `Consume the auth.events queue and append one line per event to
AUDIT_LOG_PATH. Runs until interrupted.`,
		RunE: runAudit,
	}
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", queue.AuthEventsQueue).Str("path", cfg.AuditLogPath).Msg("audit consumer starting")
	err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, cfg.AuditLogPath, log)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("audit consumer stopped")
		return nil
	}
	return err
}
