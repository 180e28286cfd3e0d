package initialize

import (
	"intake/config"
	"intake/internal/database"
	"intake/internal/logger"
)

// InitializeTables brings the schema up to date. It is safe to run on every
// start.
func InitializeTables(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Applying schema migrations", "driver", db.Driver, "environment", config.Environment)

	applied, err := db.Migrate(database.MigrateUp)
	if err != nil {
		return log.Err("failed to apply migrations", err)
	}

	log.Info("Table initialization complete", "applied", applied)
	return nil
}
