package questionnaireController

import (
	"context"
	"time"

	"intake/config"
	"intake/internal/events"
	"intake/internal/logger"
	. "intake/internal/models"
	"intake/internal/repositories"
	"intake/internal/services"
)

type QuestionnaireController struct {
	sessionRepo        repositories.SessionRepository
	questionnaireRepo  repositories.QuestionnaireRepository
	transactionService *services.TransactionService
	invalidation       *services.CacheInvalidationService
	gapPolicy          GapPolicy
	now                func() time.Time
	log                logger.Logger
}

type SubmissionResult struct {
	Success    bool `json:"success"`
	NextStep   Step `json:"next_step"`
	Completed  bool `json:"completed"`
	TotalScore *int `json:"total_score,omitempty"`
}

func New(
	sessionRepo repositories.SessionRepository,
	questionnaireRepo repositories.QuestionnaireRepository,
	transactionService *services.TransactionService,
	invalidation *services.CacheInvalidationService,
	config config.Config,
) *QuestionnaireController {
	return &QuestionnaireController{
		sessionRepo:        sessionRepo,
		questionnaireRepo:  questionnaireRepo,
		transactionService: transactionService,
		invalidation:       invalidation,
		gapPolicy:          GapPolicy{Verify: config.IFCVerifyGap, Tolerance: config.IFCGapTolerance},
		now:                func() time.Time { return time.Now().UTC() },
		log:                logger.New("QuestionnaireController"),
	}
}

func (c *QuestionnaireController) SubmitODI(ctx context.Context, req ODISubmission) (*SubmissionResult, error) {
	row, err := req.ToResponse()
	if err != nil {
		return nil, err
	}

	result, err := c.submit(ctx, req.Token(), StepODI, func(txCtx context.Context, session *Session, now time.Time) error {
		row.SessionID = session.ID
		row.CompletedAt = now
		return c.questionnaireRepo.SaveODI(txCtx, row)
	})
	if err != nil {
		return nil, err
	}

	result.TotalScore = &row.TotalScore
	return result, nil
}

func (c *QuestionnaireController) SubmitVAS(ctx context.Context, req VASSubmission) (*SubmissionResult, error) {
	row, err := req.ToResponse()
	if err != nil {
		return nil, err
	}

	return c.submit(ctx, req.Token(), StepVAS, func(txCtx context.Context, session *Session, now time.Time) error {
		row.SessionID = session.ID
		row.CompletedAt = now
		return c.questionnaireRepo.SaveVAS(txCtx, row)
	})
}

func (c *QuestionnaireController) SubmitEQ5D(ctx context.Context, req EQ5DSubmission) (*SubmissionResult, error) {
	row, err := req.ToResponse()
	if err != nil {
		return nil, err
	}

	return c.submit(ctx, req.Token(), StepEQ5D, func(txCtx context.Context, session *Session, now time.Time) error {
		row.SessionID = session.ID
		row.CompletedAt = now
		return c.questionnaireRepo.SaveEQ5D(txCtx, row)
	})
}

func (c *QuestionnaireController) SubmitConsent(ctx context.Context, req ConsentSubmission) (*SubmissionResult, error) {
	row, err := req.ToResponse(c.now())
	if err != nil {
		return nil, err
	}

	return c.submit(ctx, req.Token(), StepConsent, func(txCtx context.Context, session *Session, now time.Time) error {
		row.SessionID = session.ID
		row.CompletedAt = now
		return c.questionnaireRepo.SaveConsent(txCtx, row)
	})
}

// SubmitIFC merges the patient's financial consent onto any quote staff
// already pre-filled for the session.
func (c *QuestionnaireController) SubmitIFC(ctx context.Context, req IFCSubmission) (*SubmissionResult, error) {
	signedAt, err := req.Validate(c.gapPolicy, c.now())
	if err != nil {
		return nil, err
	}

	return c.submit(ctx, req.Token(), StepIFC, func(txCtx context.Context, session *Session, now time.Time) error {
		row, err := c.questionnaireRepo.FindIFC(txCtx, session.ID)
		if err != nil {
			return err
		}
		if row == nil {
			row = &IFCResponse{}
			row.SessionID = session.ID
		}
		req.Apply(row, signedAt)
		row.CompletedAt = now
		return c.questionnaireRepo.SaveIFC(txCtx, row)
	})
}

type saveFunc func(txCtx context.Context, session *Session, now time.Time) error

// submit resolves the session, writes the response row and advances the
// session inside one transaction. Nothing is persisted unless all three
// succeed.
func (c *QuestionnaireController) submit(
	ctx context.Context,
	token string,
	step Step,
	save saveFunc,
) (*SubmissionResult, error) {
	log := c.log.Function("submit")

	var (
		session      *Session
		wasCompleted bool
	)
	err := c.transactionService.Execute(ctx, func(txCtx context.Context) error {
		var err error
		session, err = c.sessionRepo.GetByToken(txCtx, token)
		if err != nil {
			return err
		}

		wasCompleted = session.IsCompleted()
		if err := session.CompleteStep(step); err != nil {
			return err
		}

		if err := save(txCtx, session, c.now()); err != nil {
			return err
		}

		return c.sessionRepo.SaveProgress(txCtx, session)
	})
	if err != nil {
		if IsClientError(err) {
			log.Debug("Submission rejected", "step", step, "error", err)
			return nil, err
		}
		return nil, log.Err("failed to submit questionnaire", err, "step", step)
	}

	eventType := events.StepCompleted
	if session.IsCompleted() && !wasCompleted {
		eventType = events.SessionCompleted
	}
	c.invalidation.SessionChanged(ctx, eventType, session, map[string]any{"step": int(step)})

	log.Info("Questionnaire submitted", "step", step, "sessionID", session.ID, "status", session.Status)
	return &SubmissionResult{
		Success:   true,
		NextStep:  session.CurrentStep,
		Completed: session.IsCompleted(),
	}, nil
}
