package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/database"
	"github.com/iliyamo/user-auth-service/internal/logger"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending embedded migrations for the configured DB_DRIVER and exit.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		return err
	}
	v, err := database.Version(db, cfg.DBDriver)
	if err != nil {
		return err
	}
	log.Info().Int64("version", v).Str("driver", cfg.DBDriver).Msg("migrations completed")
	return nil
}
