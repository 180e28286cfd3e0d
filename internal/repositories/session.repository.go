package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"intake/config"
	"intake/internal/database"
	"intake/internal/logger"
	. "intake/internal/models"
	"intake/internal/services"

	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	GetLatestByPatientID(ctx context.Context, patientID int) (*Session, error)
	SaveProgress(ctx context.Context, session *Session) error
}

type sessionRepository struct {
	db  database.DB
	ttl time.Duration
	log logger.Logger
}

func NewSessionRepository(db database.DB, config config.Config) SessionRepository {
	return &sessionRepository{
		db:  db,
		ttl: time.Duration(config.SessionCacheTTLMinutes) * time.Minute,
		log: logger.New("sessionRepository"),
	}
}

func (r *sessionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *sessionRepository) Create(ctx context.Context, session *Session) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Omit("Patient").Create(session).Error; err != nil {
		return log.Err("failed to create session", err, "patientID", session.PatientID)
	}

	return nil
}

// GetByToken resolves a session with its patient. Reads outside a
// transaction go through the session cache; reads inside one always hit
// the database so the caller sees its own uncommitted writes.
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	log := r.log.Function("GetByToken")

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}

	_, inTx := services.GetTransaction(ctx)
	cache := database.NewCacheBuilder(r.db.Cache.Session, token).
		WithHashPattern(services.SessionCachePattern).
		WithContext(ctx)

	if !inTx {
		var cached Session
		found, err := cache.Get(&cached)
		if err != nil {
			log.Warn("Session cache read failed", "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	var session Session
	err := r.getDB(ctx).Preload("Patient").Where("session_token = ?", token).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, log.Err("failed to get session", err)
	}

	if !inTx {
		if err := cache.WithStruct(&session).WithTTL(r.ttl).Set(); err != nil {
			log.Warn("Session cache write failed", "error", err, "sessionID", session.ID)
		}
	}

	return &session, nil
}

func (r *sessionRepository) GetLatestByPatientID(ctx context.Context, patientID int) (*Session, error) {
	log := r.log.Function("GetLatestByPatientID")

	var session Session
	err := r.getDB(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC, id DESC").
		Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session for patient %d: %w", patientID, ErrNotFound)
	}
	if err != nil {
		return nil, log.Err("failed to get session", err, "patientID", patientID)
	}

	return &session, nil
}

// SaveProgress writes only the progress columns; the preloaded patient is
// never touched.
func (r *sessionRepository) SaveProgress(ctx context.Context, session *Session) error {
	log := r.log.Function("SaveProgress")

	result := r.getDB(ctx).
		Model(session).
		Select("current_step", "completed_steps", "status", "updated_at").
		Updates(session)
	if result.Error != nil {
		return log.Err("failed to save session progress", result.Error, "sessionID", session.ID)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("session %d: %w", session.ID, ErrNotFound)
	}

	return nil
}
