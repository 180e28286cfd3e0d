package repositories

import (
	"context"
	"errors"

	"intake/internal/database"
	"intake/internal/logger"
	. "intake/internal/models"
	"intake/internal/services"

	"gorm.io/gorm"
)

// QuestionnaireRepository stores at most one response row per session per
// questionnaire. Saving a second response for the same session overwrites
// the first in place.
type QuestionnaireRepository interface {
	SaveODI(ctx context.Context, response *ODIResponse) error
	SaveVAS(ctx context.Context, response *VASResponse) error
	SaveEQ5D(ctx context.Context, response *EQ5DResponse) error
	SaveConsent(ctx context.Context, response *SurgicalConsent) error
	SaveIFC(ctx context.Context, response *IFCResponse) error
	// FindIFC returns nil without error when no IFC row exists yet.
	FindIFC(ctx context.Context, sessionID int) (*IFCResponse, error)
	GetResponses(ctx context.Context, sessionID int, detail *PatientDetail) error
}

type questionnaireRepository struct {
	db  database.DB
	log logger.Logger
}

func NewQuestionnaireRepository(db database.DB) QuestionnaireRepository {
	return &questionnaireRepository{
		db:  db,
		log: logger.New("questionnaireRepository"),
	}
}

func (r *questionnaireRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

type sessionResponse[T any] interface {
	*T
	Identity() *ResponseModel
}

func upsertBySession[T any, PT sessionResponse[T]](db *gorm.DB, row PT) error {
	identity := row.Identity()

	var existing T
	err := db.Select("id").Where("session_id = ?", identity.SessionID).Take(&existing).Error
	switch {
	case err == nil:
		identity.ID = PT(&existing).Identity().ID
		return db.Save(row).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		identity.ID = 0
		return db.Create(row).Error
	default:
		return err
	}
}

func findBySession[T any](db *gorm.DB, sessionID int) (*T, error) {
	var row T
	err := db.Where("session_id = ?", sessionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *questionnaireRepository) SaveODI(ctx context.Context, response *ODIResponse) error {
	if err := upsertBySession(r.getDB(ctx), response); err != nil {
		return r.log.Function("SaveODI").Err("failed to save ODI response", err, "sessionID", response.SessionID)
	}
	return nil
}

func (r *questionnaireRepository) SaveVAS(ctx context.Context, response *VASResponse) error {
	if err := upsertBySession(r.getDB(ctx), response); err != nil {
		return r.log.Function("SaveVAS").Err("failed to save VAS response", err, "sessionID", response.SessionID)
	}
	return nil
}

func (r *questionnaireRepository) SaveEQ5D(ctx context.Context, response *EQ5DResponse) error {
	if err := upsertBySession(r.getDB(ctx), response); err != nil {
		return r.log.Function("SaveEQ5D").Err("failed to save EQ5D response", err, "sessionID", response.SessionID)
	}
	return nil
}

func (r *questionnaireRepository) SaveConsent(ctx context.Context, response *SurgicalConsent) error {
	if err := upsertBySession(r.getDB(ctx), response); err != nil {
		return r.log.Function("SaveConsent").Err("failed to save consent", err, "sessionID", response.SessionID)
	}
	return nil
}

func (r *questionnaireRepository) SaveIFC(ctx context.Context, response *IFCResponse) error {
	if err := upsertBySession(r.getDB(ctx), response); err != nil {
		return r.log.Function("SaveIFC").Err("failed to save IFC response", err, "sessionID", response.SessionID)
	}
	return nil
}

func (r *questionnaireRepository) FindIFC(ctx context.Context, sessionID int) (*IFCResponse, error) {
	row, err := findBySession[IFCResponse](r.getDB(ctx), sessionID)
	if err != nil {
		return nil, r.log.Function("FindIFC").Err("failed to find IFC response", err, "sessionID", sessionID)
	}
	return row, nil
}

// GetResponses fills every response slot of detail that has a row.
func (r *questionnaireRepository) GetResponses(ctx context.Context, sessionID int, detail *PatientDetail) error {
	log := r.log.Function("GetResponses")
	db := r.getDB(ctx)

	var err error
	if detail.ODI, err = findBySession[ODIResponse](db, sessionID); err != nil {
		return log.Err("failed to get ODI response", err, "sessionID", sessionID)
	}
	if detail.VAS, err = findBySession[VASResponse](db, sessionID); err != nil {
		return log.Err("failed to get VAS response", err, "sessionID", sessionID)
	}
	if detail.EQ5D, err = findBySession[EQ5DResponse](db, sessionID); err != nil {
		return log.Err("failed to get EQ5D response", err, "sessionID", sessionID)
	}
	if detail.Consent, err = findBySession[SurgicalConsent](db, sessionID); err != nil {
		return log.Err("failed to get consent", err, "sessionID", sessionID)
	}
	if detail.IFC, err = findBySession[IFCResponse](db, sessionID); err != nil {
		return log.Err("failed to get IFC response", err, "sessionID", sessionID)
	}

	return nil
}
