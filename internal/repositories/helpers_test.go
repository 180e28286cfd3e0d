package repositories

import (
	"context"
	"testing"
	"time"

	"intake/config"
	"intake/internal/database"
	. "intake/internal/models"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.DB {
	t.Helper()

	db, err := database.New(config.Config{DatabaseDbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(database.MigrateUp)
	require.NoError(t, err)

	return db
}

func strPtr(s string) *string {
	return &s
}

func seedPatient(t *testing.T, db database.DB, name, token string, createdAt time.Time) (*Patient, *Session) {
	t.Helper()
	ctx := context.Background()

	patient := &Patient{Name: name, DateOfBirth: "1980-01-01"}
	patient.CreatedAt = createdAt
	require.NoError(t, NewPatientRepository(db).Create(ctx, patient))

	if token == "" {
		return patient, nil
	}

	session := NewSession(patient.ID, token)
	require.NoError(t, NewSessionRepository(db, config.Config{}).Create(ctx, session))
	return patient, session
}
