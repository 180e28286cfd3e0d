package models

import (
	"time"

	"gorm.io/datatypes"
)

// ODIResponse is step 1, the Oswestry Disability Index. Each section scores
// 0-5; TotalScore is always their sum.
type ODIResponse struct {
	ResponseModel
	PainIntensity int `gorm:"not null" json:"pain_intensity"`
	PersonalCare  int `gorm:"not null" json:"personal_care"`
	Lifting       int `gorm:"not null" json:"lifting"`
	Walking       int `gorm:"not null" json:"walking"`
	Sitting       int `gorm:"not null" json:"sitting"`
	Standing      int `gorm:"not null" json:"standing"`
	Sleeping      int `gorm:"not null" json:"sleeping"`
	SexLife       int `gorm:"not null" json:"sex_life"`
	SocialLife    int `gorm:"not null" json:"social_life"`
	Travelling    int `gorm:"not null" json:"travelling"`
	TotalScore    int `gorm:"not null" json:"total_score"`
}

func (ODIResponse) TableName() string {
	return "odi_responses"
}

func (r *ODIResponse) Sections() []int {
	return []int{
		r.PainIntensity, r.PersonalCare, r.Lifting, r.Walking, r.Sitting,
		r.Standing, r.Sleeping, r.SexLife, r.SocialLife, r.Travelling,
	}
}

func (r *ODIResponse) ComputeTotal() int {
	total := 0
	for _, score := range r.Sections() {
		total += score
	}
	r.TotalScore = total
	return total
}

// VASResponse is step 2, six pain ratings on a 0-10 scale.
type VASResponse struct {
	ResponseModel
	NeckPain float64 `gorm:"not null" json:"neck_pain"`
	RightArm float64 `gorm:"not null" json:"right_arm"`
	LeftArm  float64 `gorm:"not null" json:"left_arm"`
	BackPain float64 `gorm:"not null" json:"back_pain"`
	RightLeg float64 `gorm:"not null" json:"right_leg"`
	LeftLeg  float64 `gorm:"not null" json:"left_leg"`
}

func (VASResponse) TableName() string {
	return "vas_responses"
}

// EQ5DResponse is step 3, EQ-5D-3L. Dimensions are coded 0-2.
type EQ5DResponse struct {
	ResponseModel
	Mobility          int `gorm:"not null" json:"mobility"`
	PersonalCare      int `gorm:"not null" json:"personal_care"`
	UsualActivities   int `gorm:"not null" json:"usual_activities"`
	PainDiscomfort    int `gorm:"not null" json:"pain_discomfort"`
	AnxietyDepression int `gorm:"not null" json:"anxiety_depression"`
	HealthScale       int `gorm:"not null" json:"health_scale"`
}

func (EQ5DResponse) TableName() string {
	return "eq5d_responses"
}

// ConsentItems maps a consent clause key to the patient's initials.
type ConsentItems = datatypes.JSONType[map[string]string]

func NewConsentItems(items map[string]string) ConsentItems {
	return datatypes.NewJSONType(items)
}

// SurgicalConsent is step 4.
type SurgicalConsent struct {
	ResponseModel
	ProcedureName    string       `gorm:"type:text;not null" json:"procedure_name"`
	ConsentItems     ConsentItems `gorm:"type:text;not null" json:"consent_items"`
	PatientSignature string       `gorm:"type:text;not null" json:"patient_signature"`
	WitnessSignature *string      `gorm:"type:text"          json:"witness_signature"`
	SignedAt         time.Time    `gorm:"not null"           json:"signed_at"`
}

func (SurgicalConsent) TableName() string {
	return "surgical_consent"
}

// IFCResponse is step 5, informed financial consent. Staff may write the
// quote fields before the patient reaches the step, so the signature and
// signing time stay empty until the patient submits.
type IFCResponse struct {
	ResponseModel
	QuoteNumber      string     `gorm:"type:text" json:"quote_number"`
	ItemNumber       string     `gorm:"type:text" json:"item_number"`
	Description      string     `gorm:"type:text" json:"description"`
	Fee              float64    `gorm:"not null"  json:"fee"`
	Rebate           float64    `gorm:"not null"  json:"rebate"`
	Gap              float64    `gorm:"not null"  json:"gap"`
	PatientSignature *string    `gorm:"type:text" json:"patient_signature"`
	SignedAt         *time.Time `json:"signed_at"`
}

func (IFCResponse) TableName() string {
	return "ifc_responses"
}

// PatientDetail is the admin review of one patient; every response is nil
// until that step has been written.
type PatientDetail struct {
	Patient Patient          `json:"patient"`
	Session *Session         `json:"session"`
	ODI     *ODIResponse     `json:"odi"`
	VAS     *VASResponse     `json:"vas"`
	EQ5D    *EQ5DResponse    `json:"eq5d"`
	Consent *SurgicalConsent `json:"consent"`
	IFC     *IFCResponse     `json:"ifc"`
}

type PatientSummary struct {
	ID               int                      `json:"id"`
	Name             string                   `json:"name"`
	DateOfBirth      string                   `json:"date_of_birth"`
	Hospital         *string                  `json:"hospital"`
	Email            *string                  `json:"email"`
	Phone            *string                  `json:"phone"`
	CreatedAt        time.Time                `json:"created_at"`
	SessionToken     *string                  `json:"session_token"`
	CurrentStep      *int                     `json:"current_step"`
	CompletedSteps   datatypes.JSONSlice[int] `json:"completed_steps"`
	Status           *SessionStatus           `json:"status"`
	SessionCreatedAt *time.Time               `json:"session_created_at"`
}

type PatientFilter struct {
	Status SessionStatus
	Search string
}

type Stats struct {
	TotalPatients      int64 `json:"total_patients"`
	CompletedSessions  int64 `json:"completed_sessions"`
	InProgressSessions int64 `json:"in_progress_sessions"`
	TodayPatients      int64 `json:"today_patients"`
}

type IFCTemplate struct {
	PatientName  string       `json:"patient_name"`
	DateOfBirth  string       `json:"date_of_birth"`
	SessionToken string       `json:"session_token"`
	IFC          *IFCResponse `json:"ifc"`
}
