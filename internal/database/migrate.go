package database

import (
	"embed"
	"time"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

type MigrationDirection string

const (
	MigrateUp   MigrationDirection = "up"
	MigrateDown MigrationDirection = "down"
)

type MigrationStatus struct {
	ID        string     `json:"id"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

func (s *DB) migrationSource() (*migrate.EmbedFileSystemMigrationSource, string) {
	if s.Driver == "postgres" {
		return &migrate.EmbedFileSystemMigrationSource{
			FileSystem: migrationFiles,
			Root:       "migrations/postgres",
		}, "postgres"
	}
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations/sqlite",
	}, "sqlite3"
}

// Migrate applies every pending migration going up, or rolls back the most
// recent one going down. It returns the number of migrations executed.
func (s *DB) Migrate(direction MigrationDirection) (int, error) {
	log := s.log.Function("Migrate")

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return 0, log.Err("failed to get database from GORM", err)
	}

	source, dialect := s.migrationSource()

	var applied int
	switch direction {
	case MigrateUp:
		applied, err = migrate.Exec(sqlDB, dialect, source, migrate.Up)
	case MigrateDown:
		applied, err = migrate.ExecMax(sqlDB, dialect, source, migrate.Down, 1)
	default:
		return 0, log.Error("unknown migration direction", "direction", direction)
	}
	if err != nil {
		return applied, log.Err("failed to run migrations", err, "direction", direction)
	}

	log.Info("Migrations executed", "direction", direction, "count", applied, "dialect", dialect)
	return applied, nil
}

func (s *DB) MigrationStatus() ([]MigrationStatus, error) {
	log := s.log.Function("MigrationStatus")

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return nil, log.Err("failed to get database from GORM", err)
	}

	source, dialect := s.migrationSource()

	migrations, err := source.FindMigrations()
	if err != nil {
		return nil, log.Err("failed to read migrations", err)
	}

	records, err := migrate.GetMigrationRecords(sqlDB, dialect)
	if err != nil {
		return nil, log.Err("failed to read migration records", err)
	}

	appliedAt := make(map[string]time.Time, len(records))
	for _, record := range records {
		appliedAt[record.Id] = record.AppliedAt
	}

	status := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		entry := MigrationStatus{ID: migration.Id}
		if at, ok := appliedAt[migration.Id]; ok {
			entry.Applied = true
			entry.AppliedAt = &at
		}
		status = append(status, entry)
	}

	return status, nil
}
