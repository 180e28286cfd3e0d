package repositories

import (
	"context"
	"errors"
	"fmt"

	"intake/internal/database"
	"intake/internal/logger"
	. "intake/internal/models"
	"intake/internal/services"

	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *Patient) error
	GetByID(ctx context.Context, id int) (*Patient, error)
}

type patientRepository struct {
	db  database.DB
	log logger.Logger
}

func NewPatientRepository(db database.DB) PatientRepository {
	return &patientRepository{
		db:  db,
		log: logger.New("patientRepository"),
	}
}

func (r *patientRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *patientRepository) Create(ctx context.Context, patient *Patient) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(patient).Error; err != nil {
		return log.Err("failed to create patient", err)
	}

	return nil
}

func (r *patientRepository) GetByID(ctx context.Context, id int) (*Patient, error) {
	log := r.log.Function("GetByID")

	var patient Patient
	err := r.getDB(ctx).First(&patient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("patient %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, log.Err("failed to get patient", err, "patientID", id)
	}

	return &patient, nil
}
