package cmd

import (
	"intake/cmd/migration/initialize"
	"intake/cmd/migration/seed"
	"intake/config"
	"intake/internal/database"
	"intake/internal/logger"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo patients (development only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
				if err := initialize.InitializeTables(db, cfg, log); err != nil {
					return err
				}
				return seed.Seed(db.SQL, cfg, log)
			})
		},
	}
}
