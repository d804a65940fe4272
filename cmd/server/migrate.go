package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/roomescape-reservation/internal/config"
	"github.com/iliyamo/roomescape-reservation/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.StoreDriver != config.StoreMySQL {
				return errors.New("migrate requires STORE_DRIVER=mysql")
			}
			ctx := cmd.Context()
			db, err := database.Open(ctx, a.cfg.DBUser, a.cfg.DBPass, a.cfg.DBHost, a.cfg.DBPort, a.cfg.DBName)
			if err != nil {
				return fmt.Errorf("db connection failed: %w", err)
			}
			defer db.Close()

			applied, err := database.Migrate(ctx, db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				a.log.Info().Msg("schema up to date")
				return nil
			}
			a.log.Info().Strs("migrations", applied).Msg("schema migrated")
			return nil
		},
	}
}
