package main // Entry point package

import (
	"os" // exit status

	"github.com/spf13/cobra" // CLI commands
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Running it without a subcommand
// starts the HTTP server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "user-auth-service",
		Short:        "Signup, login and password reset API",
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewAuditCmd())

	return cmd
}
