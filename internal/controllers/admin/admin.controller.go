package adminController

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"intake/config"
	"intake/internal/events"
	"intake/internal/logger"
	. "intake/internal/models"
	"intake/internal/repositories"
	"intake/internal/services"
	"intake/internal/utils"
)

var patientExportHeaders = []string{
	"id", "name", "date_of_birth", "hospital", "email", "phone", "created_at",
	"session_token", "status", "current_step", "completed_steps",
}

type AdminController struct {
	adminRepo          repositories.AdminRepository
	patientRepo        repositories.PatientRepository
	sessionRepo        repositories.SessionRepository
	questionnaireRepo  repositories.QuestionnaireRepository
	transactionService *services.TransactionService
	invalidation       *services.CacheInvalidationService
	Config             config.Config
	now                func() time.Time
	log                logger.Logger
}

func New(
	adminRepo repositories.AdminRepository,
	patientRepo repositories.PatientRepository,
	sessionRepo repositories.SessionRepository,
	questionnaireRepo repositories.QuestionnaireRepository,
	transactionService *services.TransactionService,
	invalidation *services.CacheInvalidationService,
	config config.Config,
) *AdminController {
	return &AdminController{
		adminRepo:          adminRepo,
		patientRepo:        patientRepo,
		sessionRepo:        sessionRepo,
		questionnaireRepo:  questionnaireRepo,
		transactionService: transactionService,
		invalidation:       invalidation,
		Config:             config,
		now:                func() time.Time { return time.Now().UTC() },
		log:                logger.New("AdminController"),
	}
}

func (c *AdminController) ListPatients(ctx context.Context, filter PatientFilter) ([]PatientSummary, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, c.log.Function("ListPatients").
			Err("invalid status filter", ErrValidation, "status", filter.Status)
	}
	return c.adminRepo.ListPatients(ctx, filter)
}

// ExportPatients writes the filtered patient list to w as CSV and returns the
// number of data rows written.
func (c *AdminController) ExportPatients(ctx context.Context, filter PatientFilter, w io.Writer) (int, error) {
	log := c.log.Function("ExportPatients")

	patients, err := c.ListPatients(ctx, filter)
	if err != nil {
		return 0, err
	}

	writer, err := utils.NewCSVWriter(w, patientExportHeaders)
	if err != nil {
		return 0, log.Err("failed to start export", err)
	}

	for _, patient := range patients {
		if err := writer.Write(patientExportRow(patient)); err != nil {
			return writer.Rows(), log.Err("failed to write export row", err, "patientID", patient.ID)
		}
	}

	if err := writer.Flush(); err != nil {
		return writer.Rows(), log.Err("failed to flush export", err)
	}

	return writer.Rows(), nil
}

func patientExportRow(p PatientSummary) []string {
	steps := make([]string, len(p.CompletedSteps))
	for i, step := range p.CompletedSteps {
		steps[i] = strconv.Itoa(step)
	}

	row := []string{
		strconv.Itoa(p.ID),
		p.Name,
		p.DateOfBirth,
		deref(p.Hospital),
		deref(p.Email),
		deref(p.Phone),
		p.CreatedAt.UTC().Format(time.RFC3339),
		deref(p.SessionToken),
		"",
		"",
		strings.Join(steps, ";"),
	}
	if p.Status != nil {
		row[8] = string(*p.Status)
	}
	if p.CurrentStep != nil {
		row[9] = strconv.Itoa(*p.CurrentStep)
	}
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetPatientDetail returns the patient, their latest session and whichever
// responses exist. A patient without a session has every other field nil.
func (c *AdminController) GetPatientDetail(ctx context.Context, patientID int) (*PatientDetail, error) {
	patient, err := c.patientRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	detail := &PatientDetail{Patient: *patient}

	session, err := c.sessionRepo.GetLatestByPatientID(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return detail, nil
	}
	if err != nil {
		return nil, err
	}
	detail.Session = session

	if err := c.questionnaireRepo.GetResponses(ctx, session.ID, detail); err != nil {
		return nil, err
	}

	return detail, nil
}

func (c *AdminController) GetStats(ctx context.Context) (*Stats, error) {
	return c.adminRepo.GetStats(ctx, c.now())
}

// GetIFCTemplate returns what staff need to fill in the financial consent:
// who the patient is and any quote already recorded.
func (c *AdminController) GetIFCTemplate(ctx context.Context, token string) (*IFCTemplate, error) {
	session, err := c.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	ifc, err := c.questionnaireRepo.FindIFC(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	template := &IFCTemplate{SessionToken: session.Token, IFC: ifc}
	if session.Patient != nil {
		template.PatientName = session.Patient.Name
		template.DateOfBirth = session.Patient.DateOfBirth
	}

	return template, nil
}

// UpsertIFC writes the six quote fields for a session, updating the existing
// IFC row in place or inserting one ahead of the patient. The patient's
// signature and session progress are never touched.
func (c *AdminController) UpsertIFC(ctx context.Context, token string, financials IFCFinancials) (*IFCResponse, error) {
	log := c.log.Function("UpsertIFC")

	policy := GapPolicy{Verify: c.Config.IFCVerifyGap, Tolerance: c.Config.IFCGapTolerance}
	if err := financials.Validate(policy); err != nil {
		return nil, err
	}

	var (
		session *Session
		row     *IFCResponse
	)
	err := c.transactionService.Execute(ctx, func(txCtx context.Context) error {
		var err error
		session, err = c.sessionRepo.GetByToken(txCtx, token)
		if err != nil {
			return err
		}

		row, err = c.questionnaireRepo.FindIFC(txCtx, session.ID)
		if err != nil {
			return err
		}
		if row == nil {
			row = &IFCResponse{}
			row.SessionID = session.ID
			row.CompletedAt = c.now()
		}

		financials.Apply(row)
		return c.questionnaireRepo.SaveIFC(txCtx, row)
	})
	if err != nil {
		if IsClientError(err) {
			return nil, err
		}
		return nil, log.Err("failed to upsert IFC", err)
	}

	log.Info("IFC quote saved", "sessionID", session.ID, "ifcID", row.ID)
	c.invalidation.SessionChanged(ctx, events.IFCUpdated, session, map[string]any{
		"quote_number": row.QuoteNumber,
		"fee":          row.Fee,
		"rebate":       row.Rebate,
		"gap":          row.Gap,
	})

	return row, nil
}
