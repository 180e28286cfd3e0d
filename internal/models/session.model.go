package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Step is a questionnaire position in the fixed intake sequence.
type Step int

const (
	StepODI Step = iota + 1
	StepVAS
	StepEQ5D
	StepConsent
	StepIFC
)

const (
	FirstStep = StepODI
	LastStep  = StepIFC
)

var stepNames = map[Step]string{
	StepODI:     "odi",
	StepVAS:     "vas",
	StepEQ5D:    "eq5d",
	StepConsent: "consent",
	StepIFC:     "ifc",
}

func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

func (s SessionStatus) Valid() bool {
	return s == SessionStatusInProgress || s == SessionStatusCompleted
}

type Session struct {
	BaseModel
	PatientID      int                      `gorm:"not null;index"                        json:"patient_id"`
	Patient        *Patient                 `gorm:"foreignKey:PatientID"                  json:"patient,omitempty"`
	Token          string                   `gorm:"column:session_token;uniqueIndex;not null" json:"session_token"`
	CurrentStep    Step                     `gorm:"not null;default:1"                    json:"current_step"`
	CompletedSteps datatypes.JSONSlice[int] `gorm:"type:text;not null"                    json:"completed_steps"`
	Status         SessionStatus            `gorm:"type:text;not null;default:in_progress" json:"status"`
}

func (Session) TableName() string {
	return "sessions"
}

func NewSession(patientID int, token string) *Session {
	return &Session{
		PatientID:      patientID,
		Token:          token,
		CurrentStep:    FirstStep,
		CompletedSteps: datatypes.JSONSlice[int]{},
		Status:         SessionStatusInProgress,
	}
}

func (s *Session) HasCompleted(step Step) bool {
	return slices.Contains(s.CompletedSteps, int(step))
}

func (s *Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// CompleteStep records step as done and re-derives current step and status.
// Steps may be resubmitted but never skipped: a step beyond current_step is
// rejected without touching the session.
func (s *Session) CompleteStep(step Step) error {
	if !step.Valid() {
		return validationError("step %d is outside 1-%d", step, LastStep)
	}

	if step > s.CurrentStep && !s.HasCompleted(step) {
		return ErrStepOutOfOrder
	}

	if !s.HasCompleted(step) {
		s.CompletedSteps = append(s.CompletedSteps, int(step))
	}

	s.CurrentStep = s.nextStep()
	if s.allCompleted() {
		s.Status = SessionStatusCompleted
	} else {
		s.Status = SessionStatusInProgress
	}

	return nil
}

func (s *Session) nextStep() Step {
	for step := FirstStep; step <= LastStep; step++ {
		if !s.HasCompleted(step) {
			return step
		}
	}
	return LastStep
}

func (s *Session) allCompleted() bool {
	for step := FirstStep; step <= LastStep; step++ {
		if !s.HasCompleted(step) {
			return false
		}
	}
	return true
}

// SessionView is the patient-facing shape of a session: progress plus the
// identifying patient fields.
type SessionView struct {
	ID             int           `json:"id"`
	PatientID      int           `json:"patient_id"`
	Token          string        `json:"session_token"`
	CurrentStep    Step          `json:"current_step"`
	CompletedSteps []int         `json:"completed_steps"`
	Status         SessionStatus `json:"status"`
	Name           string        `json:"name"`
	DateOfBirth    string        `json:"date_of_birth"`
	Hospital       *string       `json:"hospital"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (s *Session) View() SessionView {
	completed := make([]int, len(s.CompletedSteps))
	copy(completed, s.CompletedSteps)

	view := SessionView{
		ID:             s.ID,
		PatientID:      s.PatientID,
		Token:          s.Token,
		CurrentStep:    s.CurrentStep,
		CompletedSteps: completed,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.Patient != nil {
		view.Name = s.Patient.Name
		view.DateOfBirth = s.Patient.DateOfBirth
		view.Hospital = s.Patient.Hospital
	}
	return view
}
