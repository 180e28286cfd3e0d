package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"intake/cmd/migration/initialize"
	"intake/config"
	"intake/internal/database"
	"intake/internal/logger"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
				return initialize.InitializeTables(db, cfg, log)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
				count, err := db.Migrate(database.MigrateDown)
				if err != nil {
					return err
				}
				fmt.Printf("Rolled back %d migration(s).\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they have been applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
				status, err := db.MigrationStatus()
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "MIGRATION\tAPPLIED AT")
				for _, m := range status {
					appliedAt := "pending"
					if m.AppliedAt != nil {
						appliedAt = m.AppliedAt.UTC().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%s\t%s\n", m.ID, appliedAt)
				}
				return w.Flush()
			})
		},
	})

	return cmd
}

func withDatabase(fn func(db database.DB, cfg config.Config, log logger.Logger) error) error {
	cfg, closer, err := bootstrap()
	if err != nil {
		return err
	}
	defer closer.Close()

	log := logger.New("main").Function("migrate")

	db, err := database.New(cfg)
	if err != nil {
		return log.Err("failed to open database", err)
	}
	defer db.Close()

	return fn(db, cfg, log)
}
