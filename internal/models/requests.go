package models

import (
	"math"
	"strings"
	"time"

	"intake/internal/utils"
)

var dateValidator = utils.NewDateValidator()

type CreateSessionRequest struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	Hospital    string `json:"hospital"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// ToPatient validates the request and builds the patient row. Date of birth
// is normalised to YYYY-MM-DD.
func (r CreateSessionRequest) ToPatient() (*Patient, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, validationError("name is required")
	}

	if strings.TrimSpace(r.DateOfBirth) == "" {
		return nil, validationError("date_of_birth is required")
	}

	dob, ok := dateValidator.NormalizeDate(r.DateOfBirth)
	if !ok {
		return nil, validationError("date_of_birth %q is not a valid date", r.DateOfBirth)
	}

	return &Patient{
		Name:        name,
		DateOfBirth: dob,
		Hospital:    optional(r.Hospital),
		Email:       optional(r.Email),
		Phone:       optional(r.Phone),
	}, nil
}

type ODISubmission struct {
	SessionToken  string `json:"session_token"`
	PainIntensity *int   `json:"pain_intensity"`
	PersonalCare  *int   `json:"personal_care"`
	Lifting       *int   `json:"lifting"`
	Walking       *int   `json:"walking"`
	Sitting       *int   `json:"sitting"`
	Standing      *int   `json:"standing"`
	Sleeping      *int   `json:"sleeping"`
	SexLife       *int   `json:"sex_life"`
	SocialLife    *int   `json:"social_life"`
	Travelling    *int   `json:"travelling"`
}

func (s ODISubmission) Token() string { return s.SessionToken }

func (s ODISubmission) ToResponse() (*ODIResponse, error) {
	fields := []struct {
		name  string
		value *int
	}{
		{"pain_intensity", s.PainIntensity},
		{"personal_care", s.PersonalCare},
		{"lifting", s.Lifting},
		{"walking", s.Walking},
		{"sitting", s.Sitting},
		{"standing", s.Standing},
		{"sleeping", s.Sleeping},
		{"sex_life", s.SexLife},
		{"social_life", s.SocialLife},
		{"travelling", s.Travelling},
	}
	for _, field := range fields {
		if err := requireIntRange(field.name, field.value, 0, 5); err != nil {
			return nil, err
		}
	}

	response := &ODIResponse{
		PainIntensity: *s.PainIntensity,
		PersonalCare:  *s.PersonalCare,
		Lifting:       *s.Lifting,
		Walking:       *s.Walking,
		Sitting:       *s.Sitting,
		Standing:      *s.Standing,
		Sleeping:      *s.Sleeping,
		SexLife:       *s.SexLife,
		SocialLife:    *s.SocialLife,
		Travelling:    *s.Travelling,
	}
	response.ComputeTotal()

	return response, nil
}

type VASSubmission struct {
	SessionToken string   `json:"session_token"`
	NeckPain     *float64 `json:"neck_pain"`
	RightArm     *float64 `json:"right_arm"`
	LeftArm      *float64 `json:"left_arm"`
	BackPain     *float64 `json:"back_pain"`
	RightLeg     *float64 `json:"right_leg"`
	LeftLeg      *float64 `json:"left_leg"`
}

func (s VASSubmission) Token() string { return s.SessionToken }

func (s VASSubmission) ToResponse() (*VASResponse, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"neck_pain", s.NeckPain},
		{"right_arm", s.RightArm},
		{"left_arm", s.LeftArm},
		{"back_pain", s.BackPain},
		{"right_leg", s.RightLeg},
		{"left_leg", s.LeftLeg},
	}
	for _, field := range fields {
		if err := requireFloatRange(field.name, field.value, 0, 10); err != nil {
			return nil, err
		}
	}

	return &VASResponse{
		NeckPain: *s.NeckPain,
		RightArm: *s.RightArm,
		LeftArm:  *s.LeftArm,
		BackPain: *s.BackPain,
		RightLeg: *s.RightLeg,
		LeftLeg:  *s.LeftLeg,
	}, nil
}

type EQ5DSubmission struct {
	SessionToken      string `json:"session_token"`
	Mobility          *int   `json:"mobility"`
	PersonalCare      *int   `json:"personal_care"`
	UsualActivities   *int   `json:"usual_activities"`
	PainDiscomfort    *int   `json:"pain_discomfort"`
	AnxietyDepression *int   `json:"anxiety_depression"`
	HealthScale       *int   `json:"health_scale"`
}

func (s EQ5DSubmission) Token() string { return s.SessionToken }

func (s EQ5DSubmission) ToResponse() (*EQ5DResponse, error) {
	dimensions := []struct {
		name  string
		value *int
	}{
		{"mobility", s.Mobility},
		{"personal_care", s.PersonalCare},
		{"usual_activities", s.UsualActivities},
		{"pain_discomfort", s.PainDiscomfort},
		{"anxiety_depression", s.AnxietyDepression},
	}
	for _, dimension := range dimensions {
		if err := requireIntRange(dimension.name, dimension.value, 0, 2); err != nil {
			return nil, err
		}
	}
	if err := requireIntRange("health_scale", s.HealthScale, 0, 100); err != nil {
		return nil, err
	}

	return &EQ5DResponse{
		Mobility:          *s.Mobility,
		PersonalCare:      *s.PersonalCare,
		UsualActivities:   *s.UsualActivities,
		PainDiscomfort:    *s.PainDiscomfort,
		AnxietyDepression: *s.AnxietyDepression,
		HealthScale:       *s.HealthScale,
	}, nil
}

type ConsentSubmission struct {
	SessionToken     string            `json:"session_token"`
	ProcedureName    string            `json:"procedure_name"`
	ConsentItems     map[string]string `json:"consent_items"`
	PatientSignature string            `json:"patient_signature"`
	WitnessSignature string            `json:"witness_signature"`
	SignedAt         string            `json:"signed_at"`
}

func (s ConsentSubmission) Token() string { return s.SessionToken }

// ToResponse validates the consent. now is the signing time when the form
// did not send one.
func (s ConsentSubmission) ToResponse(now time.Time) (*SurgicalConsent, error) {
	procedure := strings.TrimSpace(s.ProcedureName)
	if procedure == "" {
		return nil, validationError("procedure_name is required")
	}

	if len(s.ConsentItems) == 0 {
		return nil, validationError("consent_items must contain at least one item")
	}
	items := make(map[string]string, len(s.ConsentItems))
	for key, initials := range s.ConsentItems {
		if strings.TrimSpace(key) == "" {
			return nil, validationError("consent_items contains an empty key")
		}
		if strings.TrimSpace(initials) == "" {
			return nil, validationError("consent item %q is missing initials", key)
		}
		items[key] = strings.TrimSpace(initials)
	}

	signature := strings.TrimSpace(s.PatientSignature)
	if signature == "" {
		return nil, validationError("patient_signature is required")
	}

	signedAt, err := signedAtOrNow(s.SignedAt, now)
	if err != nil {
		return nil, err
	}

	return &SurgicalConsent{
		ProcedureName:    procedure,
		ConsentItems:     NewConsentItems(items),
		PatientSignature: signature,
		WitnessSignature: optional(s.WitnessSignature),
		SignedAt:         signedAt,
	}, nil
}

// IFCFinancials are the quote fields staff can write ahead of the patient.
type IFCFinancials struct {
	QuoteNumber string   `json:"quote_number"`
	ItemNumber  string   `json:"item_number"`
	Description string   `json:"description"`
	Fee         *float64 `json:"fee"`
	Rebate      *float64 `json:"rebate"`
	Gap         *float64 `json:"gap"`
}

// GapPolicy controls whether the submitted gap must equal fee - rebate.
// The zero value trusts the caller.
type GapPolicy struct {
	Verify    bool
	Tolerance float64
}

func (f IFCFinancials) Validate(policy GapPolicy) error {
	amounts := []struct {
		name  string
		value *float64
	}{
		{"fee", f.Fee},
		{"rebate", f.Rebate},
		{"gap", f.Gap},
	}
	for _, amount := range amounts {
		if amount.value == nil {
			return validationError("%s is required", amount.name)
		}
		if math.IsNaN(*amount.value) || math.IsInf(*amount.value, 0) {
			return validationError("%s must be a number", amount.name)
		}
		if *amount.value < 0 {
			return validationError("%s must not be negative", amount.name)
		}
	}

	if policy.Verify {
		expected := *f.Fee - *f.Rebate
		if math.Abs(expected-*f.Gap) > policy.Tolerance {
			return validationError("gap %.2f does not equal fee - rebate (%.2f)", *f.Gap, expected)
		}
	}

	return nil
}

// Apply copies the financial fields onto row, overwriting every value.
func (f IFCFinancials) Apply(row *IFCResponse) {
	row.QuoteNumber = strings.TrimSpace(f.QuoteNumber)
	row.ItemNumber = strings.TrimSpace(f.ItemNumber)
	row.Description = strings.TrimSpace(f.Description)
	row.Fee = *f.Fee
	row.Rebate = *f.Rebate
	row.Gap = *f.Gap
}

type IFCSubmission struct {
	IFCFinancials
	SessionToken     string `json:"session_token"`
	PatientSignature string `json:"patient_signature"`
	SignedAt         string `json:"signed_at"`
}

func (s IFCSubmission) Token() string { return s.SessionToken }

func (s IFCSubmission) Validate(policy GapPolicy, now time.Time) (time.Time, error) {
	if err := s.IFCFinancials.Validate(policy); err != nil {
		return time.Time{}, err
	}

	if strings.TrimSpace(s.PatientSignature) == "" {
		return time.Time{}, validationError("patient_signature is required")
	}

	return signedAtOrNow(s.SignedAt, now)
}

// Apply merges the patient's submission onto row. Blank quote fields keep
// whatever staff pre-filled.
func (s IFCSubmission) Apply(row *IFCResponse, signedAt time.Time) {
	if v := strings.TrimSpace(s.QuoteNumber); v != "" {
		row.QuoteNumber = v
	}
	if v := strings.TrimSpace(s.ItemNumber); v != "" {
		row.ItemNumber = v
	}
	if v := strings.TrimSpace(s.Description); v != "" {
		row.Description = v
	}
	row.Fee = *s.Fee
	row.Rebate = *s.Rebate
	row.Gap = *s.Gap
	row.PatientSignature = optional(s.PatientSignature)
	row.SignedAt = &signedAt
}

func requireIntRange(name string, value *int, lo, hi int) error {
	if value == nil {
		return validationError("%s is required", name)
	}
	if *value < lo || *value > hi {
		return validationError("%s must be between %d and %d", name, lo, hi)
	}
	return nil
}

func requireFloatRange(name string, value *float64, lo, hi float64) error {
	if value == nil {
		return validationError("%s is required", name)
	}
	if math.IsNaN(*value) || *value < lo || *value > hi {
		return validationError("%s must be between %g and %g", name, lo, hi)
	}
	return nil
}

func signedAtOrNow(input string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(input) == "" {
		return now.UTC(), nil
	}
	signedAt, ok := dateValidator.ParseTimestamp(input)
	if !ok {
		return time.Time{}, validationError("signed_at %q is not a valid timestamp", input)
	}
	return signedAt, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
