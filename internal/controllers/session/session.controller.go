package sessionController

import (
	"context"

	"intake/internal/events"
	"intake/internal/logger"
	. "intake/internal/models"
	"intake/internal/repositories"
	"intake/internal/services"

	"github.com/google/uuid"
)

type SessionController struct {
	patientRepo        repositories.PatientRepository
	sessionRepo        repositories.SessionRepository
	transactionService *services.TransactionService
	invalidation       *services.CacheInvalidationService
	log                logger.Logger
}

type CreateResult struct {
	SessionToken string `json:"session_token"`
	PatientID    int    `json:"patient_id"`
}

func New(
	patientRepo repositories.PatientRepository,
	sessionRepo repositories.SessionRepository,
	transactionService *services.TransactionService,
	invalidation *services.CacheInvalidationService,
) *SessionController {
	return &SessionController{
		patientRepo:        patientRepo,
		sessionRepo:        sessionRepo,
		transactionService: transactionService,
		invalidation:       invalidation,
		log:                logger.New("SessionController"),
	}
}

// Create registers a patient and opens their intake session. The token is a
// random v4 UUID and is the only credential the patient ever holds.
func (c *SessionController) Create(ctx context.Context, req CreateSessionRequest) (*CreateResult, error) {
	log := c.log.Function("Create")

	patient, err := req.ToPatient()
	if err != nil {
		return nil, err
	}

	var session *Session
	err = c.transactionService.Execute(ctx, func(txCtx context.Context) error {
		if err := c.patientRepo.Create(txCtx, patient); err != nil {
			return err
		}
		session = NewSession(patient.ID, uuid.New().String())
		return c.sessionRepo.Create(txCtx, session)
	})
	if err != nil {
		return nil, log.Err("failed to create session", err)
	}

	log.Info("Session created", "patientID", patient.ID, "sessionID", session.ID)
	c.invalidation.SessionChanged(ctx, events.SessionCreated, session, map[string]any{
		"name": patient.Name,
	})

	return &CreateResult{SessionToken: session.Token, PatientID: patient.ID}, nil
}

func (c *SessionController) Resolve(ctx context.Context, token string) (*SessionView, error) {
	session, err := c.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	view := session.View()
	return &view, nil
}
