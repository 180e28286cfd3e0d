package adminController

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"intake/config"
	"intake/internal/database"
	"intake/internal/events"
	. "intake/internal/models"
	"intake/internal/repositories"
	"intake/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db          database.DB
	controller  *AdminController
	patientRepo repositories.PatientRepository
	sessionRepo repositories.SessionRepository
	feed        <-chan events.Event
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()

	cfg.DatabaseDbPath = ":memory:"
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(database.MigrateUp)
	require.NoError(t, err)

	bus := events.New(nil, cfg)
	t.Cleanup(func() { _ = bus.Close() })
	feed, _ := bus.Subscribe(events.AdminChannel)

	patientRepo := repositories.NewPatientRepository(db)
	sessionRepo := repositories.NewSessionRepository(db, cfg)

	return &fixture{
		db: db,
		controller: New(
			repositories.NewAdminRepository(db),
			patientRepo,
			sessionRepo,
			repositories.NewQuestionnaireRepository(db),
			services.NewTransactionService(db),
			services.NewCacheInvalidationService(db, bus),
			cfg,
		),
		patientRepo: patientRepo,
		sessionRepo: sessionRepo,
		feed:        feed,
	}
}

func (f *fixture) seed(t *testing.T, name, token string) (*Patient, *Session) {
	t.Helper()
	ctx := context.Background()

	patient := &Patient{Name: name, DateOfBirth: "1980-01-01"}
	require.NoError(t, f.patientRepo.Create(ctx, patient))
	if token == "" {
		return patient, nil
	}

	session := NewSession(patient.ID, token)
	require.NoError(t, f.sessionRepo.Create(ctx, session))
	return patient, session
}

func floatPtr(v float64) *float64 { return &v }

func quote(fee, rebate, gap float64) IFCFinancials {
	return IFCFinancials{
		QuoteNumber: "Q-1",
		ItemNumber:  "51011",
		Description: "Lumbar fusion",
		Fee:         floatPtr(fee),
		Rebate:      floatPtr(rebate),
		Gap:         floatPtr(gap),
	}
}

func TestGetStats(t *testing.T) {
	f := newFixture(t, config.Config{})
	ctx := context.Background()

	_, done := f.seed(t, "Done", "t1")
	f.seed(t, "Second", "t2")
	f.seed(t, "Third", "t3")

	for step := FirstStep; step <= LastStep; step++ {
		require.NoError(t, done.CompleteStep(step))
	}
	require.NoError(t, f.sessionRepo.SaveProgress(ctx, done))

	stats, err := f.controller.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPatients)
	assert.Equal(t, int64(1), stats.CompletedSessions)
	assert.Equal(t, int64(2), stats.InProgressSessions)
	assert.Equal(t, int64(3), stats.TodayPatients)
}

func TestUpsertIFC_Idempotent(t *testing.T) {
	f := newFixture(t, config.Config{})
	ctx := context.Background()
	_, session := f.seed(t, "Jane Doe", "tok")

	first, err := f.controller.UpsertIFC(ctx, "tok", quote(5000, 3000, 2000))
	require.NoError(t, err)
	second, err := f.controller.UpsertIFC(ctx, "tok", quote(5000, 3000, 2000))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var rows []IFCResponse
	require.NoError(t, f.db.SQL.Where("session_id = ?", session.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Q-1", rows[0].QuoteNumber)
	assert.Equal(t, 5000.0, rows[0].Fee)
	assert.Equal(t, 3000.0, rows[0].Rebate)
	assert.Equal(t, 2000.0, rows[0].Gap)
	assert.Nil(t, rows[0].PatientSignature)

	reloaded, err := f.sessionRepo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, StepODI, reloaded.CurrentStep, "pre-fill does not advance the session")
}

func TestUpsertIFC_UpdatesInPlace(t *testing.T) {
	f := newFixture(t, config.Config{})
	ctx := context.Background()
	f.seed(t, "Jane Doe", "tok")

	_, err := f.controller.UpsertIFC(ctx, "tok", quote(5000, 3000, 2000))
	require.NoError(t, err)

	updated := quote(6000, 3000, 3000)
	updated.QuoteNumber = "Q-2"
	row, err := f.controller.UpsertIFC(ctx, "tok", updated)
	require.NoError(t, err)
	assert.Equal(t, "Q-2", row.QuoteNumber)
	assert.Equal(t, 6000.0, row.Fee)

	var count int64
	require.NoError(t, f.db.SQL.Table("ifc_responses").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	select {
	case event := <-f.feed:
		assert.Equal(t, events.IFCUpdated, event.Type)
	case <-time.After(time.Second):
		t.Fatal("no ifc event")
	}
}

func TestUpsertIFC_Errors(t *testing.T) {
	f := newFixture(t, config.Config{IFCVerifyGap: true, IFCGapTolerance: 0.01})
	ctx := context.Background()
	f.seed(t, "Jane Doe", "tok")

	_, err := f.controller.UpsertIFC(ctx, "missing", quote(5000, 3000, 2000))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.controller.UpsertIFC(ctx, "tok", quote(5000, 3000, 100))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.controller.UpsertIFC(ctx, "tok", quote(-1, 0, 0))
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, f.db.SQL.Table("ifc_responses").Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetIFCTemplate(t *testing.T) {
	f := newFixture(t, config.Config{})
	ctx := context.Background()
	f.seed(t, "Jane Doe", "tok")

	template, err := f.controller.GetIFCTemplate(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", template.PatientName)
	assert.Equal(t, "1980-01-01", template.DateOfBirth)
	assert.Nil(t, template.IFC)

	_, err = f.controller.UpsertIFC(ctx, "tok", quote(5000, 3000, 2000))
	require.NoError(t, err)

	template, err = f.controller.GetIFCTemplate(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, template.IFC)
	assert.Equal(t, "Q-1", template.IFC.QuoteNumber)

	_, err = f.controller.GetIFCTemplate(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPatientDetail(t *testing.T) {
	f := newFixture(t, config.Config{})
	ctx := context.Background()
	patient, _ := f.seed(t, "Jane Doe", "tok")
	lonely, _ := f.seed(t, "No Session", "")

	_, err := f.controller.UpsertIFC(ctx, "tok", quote(5000, 3000, 2000))
	require.NoError(t, err)

	detail, err := f.controller.GetPatientDetail(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", detail.Patient.Name)
	require.NotNil(t, detail.Session)
	assert.Equal(t, "tok", detail.Session.Token)
	assert.Nil(t, detail.ODI)
	assert.Nil(t, detail.Consent)
	require.NotNil(t, detail.IFC)

	detail, err = f.controller.GetPatientDetail(ctx, lonely.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Session)
	assert.Nil(t, detail.IFC)

	_, err = f.controller.GetPatientDetail(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPatients_InvalidStatus(t *testing.T) {
	f := newFixture(t, config.Config{})

	_, err := f.controller.ListPatients(context.Background(), PatientFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)

	patients, err := f.controller.ListPatients(context.Background(), PatientFilter{})
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestExportPatients(t *testing.T) {
	f := newFixture(t, config.Config{})
	ctx := context.Background()

	_, session := f.seed(t, "=Jane Doe", "tok")
	f.seed(t, "No Session", "")
	require.NoError(t, session.CompleteStep(StepODI))
	require.NoError(t, f.sessionRepo.SaveProgress(ctx, session))

	var out bytes.Buffer
	rows, err := f.controller.ExportPatients(ctx, PatientFilter{}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, patientExportHeaders, records[0])

	byName := map[string][]string{}
	for _, record := range records[1:] {
		byName[record[1]] = record
	}

	jane := byName["'=Jane Doe"]
	require.NotNil(t, jane)
	assert.Equal(t, "tok", jane[7])
	assert.Equal(t, "in_progress", jane[8])
	assert.Equal(t, "2", jane[9])
	assert.Equal(t, "1", jane[10])

	lonely := byName["No Session"]
	require.NotNil(t, lonely)
	assert.Equal(t, []string{"", "", "", ""}, lonely[7:])

	_, err = f.controller.ExportPatients(ctx, PatientFilter{Status: "archived"}, &out)
	assert.ErrorIs(t, err, ErrValidation)
}
