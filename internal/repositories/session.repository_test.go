package repositories

import (
	"context"
	"testing"
	"time"

	"intake/config"
	. "intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewPatientRepository(db)
	ctx := context.Background()

	patient := &Patient{Name: "Jane Doe", DateOfBirth: "1980-01-01", Hospital: strPtr("St Vincent")}
	require.NoError(t, repo.Create(ctx, patient))
	require.NotZero(t, patient.ID)

	got, err := repo.GetByID(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "St Vincent", *got.Hospital)
	assert.Nil(t, got.Email)

	_, err = repo.GetByID(ctx, patient.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_GetByToken(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, config.Config{SessionCacheTTLMinutes: 30})
	ctx := context.Background()

	patient, _ := seedPatient(t, db, "Jane Doe", "tok-1", time.Now().UTC())

	session, err := repo.GetByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, patient.ID, session.PatientID)
	assert.Equal(t, StepODI, session.CurrentStep)
	assert.Empty(t, session.CompletedSteps)
	assert.Equal(t, SessionStatusInProgress, session.Status)
	require.NotNil(t, session.Patient)
	assert.Equal(t, "Jane Doe", session.Patient.Name)

	tests := []struct {
		name  string
		token string
	}{
		{"unknown token", "nope"},
		{"empty token", ""},
		{"blank token", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.GetByToken(ctx, tt.token)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSessionRepository_TokenIsUnique(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, config.Config{})
	patient, _ := seedPatient(t, db, "Jane Doe", "dup", time.Now().UTC())

	err := repo.Create(context.Background(), NewSession(patient.ID, "dup"))
	assert.Error(t, err)
}

func TestSessionRepository_SaveProgress(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, config.Config{})
	ctx := context.Background()
	seedPatient(t, db, "Jane Doe", "tok", time.Now().UTC())

	session, err := repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	require.NoError(t, session.CompleteStep(StepODI))
	session.Patient.Name = "changed"

	require.NoError(t, repo.SaveProgress(ctx, session))

	reloaded, err := repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, StepVAS, reloaded.CurrentStep)
	assert.Equal(t, []int{1}, []int(reloaded.CompletedSteps))
	assert.Equal(t, "Jane Doe", reloaded.Patient.Name, "patient row is not written")

	missing := NewSession(session.PatientID, "ghost")
	missing.ID = 999
	assert.ErrorIs(t, repo.SaveProgress(ctx, missing), ErrNotFound)
}

func TestSessionRepository_GetLatestByPatientID(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, config.Config{})
	ctx := context.Background()

	patient, first := seedPatient(t, db, "Jane Doe", "first", time.Now().UTC())

	got, err := repo.GetLatestByPatientID(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	lonely, _ := seedPatient(t, db, "No Session", "", time.Now().UTC())
	_, err = repo.GetLatestByPatientID(ctx, lonely.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
