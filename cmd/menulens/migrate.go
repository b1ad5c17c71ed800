package main

import (
	corecfg "github.com/menulens/menulens/internal/core/config"
	"github.com/menulens/menulens/internal/core/storage/postgres"
	"github.com/menulens/menulens/internal/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(loadConfig func() (*corecfg.Config, error)) *cobra.Command {
	var down bool

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
			if err != nil {
				return err
			}
			defer db.Close()

			if down {
				return migrations.Rollback(db)
			}
			return migrations.RunMigrations(db, true)
		},
	}

	migrateCmd.Flags().BoolVarP(&down, "down", "d", false, "Roll back the most recent migration")

	return migrateCmd
}
