package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"estimator/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the prediction log schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repository.RunMigrations(cfg.GetPostgreSQLURL()); err != nil {
				return eris.Wrap(err, "migrate up")
			}
			zap.L().Info("all migrations applied successfully")
			return nil
		},
	}, &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repository.RunMigrationsDown(cfg.GetPostgreSQLURL()); err != nil {
				return eris.Wrap(err, "migrate down")
			}
			zap.L().Info("all migrations rolled back")
			return nil
		},
	})

	return cmd
}
