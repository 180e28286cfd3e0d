package seed

import (
	"errors"
	"time"

	"intake/config"
	"intake/internal/logger"
	. "intake/internal/models"

	"gorm.io/gorm"
)

func stringPtr(s string) *string {
	return &s
}

type demoPatient struct {
	patient Patient
	token   string
	steps   []Step
}

// Seed inserts a handful of demo patients at different points of the intake
// so the dashboard has something to show. Existing tokens are skipped.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	if !config.IsDevelopment() {
		return log.Error("refusing to seed outside development", "environment", config.Environment)
	}
	log.Info("Seeding development data")

	demos := []demoPatient{
		{
			patient: Patient{
				Name:        "Jane Doe",
				DateOfBirth: "1980-01-01",
				Hospital:    stringPtr("St Vincent's Private"),
				Email:       stringPtr("jane.doe@example.com"),
			},
			token: "demo-jane-doe",
		}, {
			patient: Patient{
				Name:        "John Smith",
				DateOfBirth: "1975-06-15",
				Hospital:    stringPtr("Royal North Shore"),
				Phone:       stringPtr("0400 000 000"),
			},
			token: "demo-john-smith",
			steps: []Step{StepODI, StepVAS},
		}, {
			patient: Patient{
				Name:        "Ada Lovelace",
				DateOfBirth: "1965-12-10",
				Email:       stringPtr("ada.lovelace@example.com"),
			},
			token: "demo-ada-lovelace",
			steps: []Step{StepODI, StepVAS, StepEQ5D, StepConsent, StepIFC},
		},
	}

	for _, demo := range demos {
		var existing Session
		err := db.Where("session_token = ?", demo.token).Take(&existing).Error
		if err == nil {
			log.Info("Session already exists", "token", demo.token)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return log.Err("failed to look up session", err, "token", demo.token)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			patient := demo.patient
			if err := tx.Create(&patient).Error; err != nil {
				return err
			}

			session := NewSession(patient.ID, demo.token)
			if err := tx.Omit("Patient").Create(session).Error; err != nil {
				return err
			}

			for _, step := range demo.steps {
				if err := tx.Create(demoResponse(step, session.ID)).Error; err != nil {
					return err
				}
				if err := session.CompleteStep(step); err != nil {
					return err
				}
			}
			return tx.Model(session).
				Select("current_step", "completed_steps", "status").
				Updates(session).Error
		})
		if err != nil {
			log.Er("failed to seed patient", err, "name", demo.patient.Name)
			continue
		}

		log.Info("Seeded patient", "name", demo.patient.Name, "steps", len(demo.steps))
	}

	return nil
}

func demoResponse(step Step, sessionID int) any {
	now := time.Now().UTC()
	base := ResponseModel{SessionID: sessionID, CompletedAt: now}

	switch step {
	case StepODI:
		odi := &ODIResponse{ResponseModel: base, PainIntensity: 3, PersonalCare: 1, Lifting: 4,
			Walking: 2, Sitting: 3, Standing: 3, Sleeping: 2, SexLife: 1, SocialLife: 2, Travelling: 2}
		odi.ComputeTotal()
		return odi
	case StepVAS:
		return &VASResponse{ResponseModel: base, NeckPain: 2, RightArm: 1, LeftArm: 0.5,
			BackPain: 7.5, RightLeg: 6, LeftLeg: 3}
	case StepEQ5D:
		return &EQ5DResponse{ResponseModel: base, Mobility: 1, PersonalCare: 0, UsualActivities: 1,
			PainDiscomfort: 2, AnxietyDepression: 0, HealthScale: 65}
	case StepConsent:
		return &SurgicalConsent{ResponseModel: base, ProcedureName: "Lumbar Fusion",
			ConsentItems:     NewConsentItems(map[string]string{"risks": "AL", "alternatives": "AL"}),
			PatientSignature: "Ada Lovelace", SignedAt: now}
	default:
		return &IFCResponse{ResponseModel: base, QuoteNumber: "Q-1001", ItemNumber: "51011",
			Description: "Posterior lumbar fusion", Fee: 5000, Rebate: 3000, Gap: 2000,
			PatientSignature: stringPtr("Ada Lovelace"), SignedAt: &now}
	}
}
