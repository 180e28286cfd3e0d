package models

import (
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        int            `gorm:"type:integer;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime"                        json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"                        json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"                                 json:"-"`
}

// ResponseModel is embedded by every questionnaire response row. A session
// owns at most one row per questionnaire.
type ResponseModel struct {
	ID          int       `gorm:"type:integer;primaryKey;autoIncrement" json:"id"`
	SessionID   int       `gorm:"not null;uniqueIndex"                  json:"session_id"`
	CompletedAt time.Time `gorm:"not null"                              json:"completed_at"`
}

func (r *ResponseModel) Identity() *ResponseModel {
	return r
}
