package models

type Patient struct {
	BaseModel
	Name        string  `gorm:"type:text;not null" json:"name"`
	DateOfBirth string  `gorm:"type:text;not null" json:"date_of_birth"`
	Hospital    *string `gorm:"type:text"          json:"hospital"`
	Email       *string `gorm:"type:text;index"    json:"email"`
	Phone       *string `gorm:"type:text"          json:"phone"`
}

func (Patient) TableName() string {
	return "patients"
}
