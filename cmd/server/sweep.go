package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/logger"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/service"
	"github.com/iliyamo/user-auth-service/internal/utils"
)

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired and used reset tokens",
		Long: `Delete every password reset token that is used or past its expiry.
The API also purges on each reset request; this runs the same purge once.`,
		RunE: runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
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
	reset := service.NewResetService(db, users, repository.NewTokenRepo(db), nil, log)

	n, err := reset.Sweep(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("deleted %d reset tokens\n", n)
	return nil
}
