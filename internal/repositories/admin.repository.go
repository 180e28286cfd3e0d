package repositories

import (
	"context"
	"strings"
	"time"

	"intake/internal/database"
	"intake/internal/logger"
	. "intake/internal/models"
	"intake/internal/services"

	"gorm.io/gorm"
)

type AdminRepository interface {
	ListPatients(ctx context.Context, filter PatientFilter) ([]PatientSummary, error)
	GetStats(ctx context.Context, now time.Time) (*Stats, error)
}

type adminRepository struct {
	db  database.DB
	log logger.Logger
}

func NewAdminRepository(db database.DB) AdminRepository {
	return &adminRepository{
		db:  db,
		log: logger.New("adminRepository"),
	}
}

func (r *adminRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

// Search text is matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const patientSummaryColumns = `p.id, p.name, p.date_of_birth, p.hospital, p.email, p.phone, p.created_at,
	s.session_token, s.current_step, COALESCE(s.completed_steps, '[]') AS completed_steps,
	s.status, s.created_at AS session_created_at`

// ListPatients returns every patient, newest first, with their session
// progress. Patients without a session carry null session fields.
func (r *adminRepository) ListPatients(ctx context.Context, filter PatientFilter) ([]PatientSummary, error) {
	log := r.log.Function("ListPatients")

	query := r.getDB(ctx).
		Table("patients AS p").
		Select(patientSummaryColumns).
		Joins("LEFT JOIN sessions AS s ON s.patient_id = p.id AND s.deleted_at IS NULL").
		Where("p.deleted_at IS NULL")

	if filter.Status != "" {
		query = query.Where("s.status = ?", filter.Status)
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + likeEscaper.Replace(search) + "%"
		query = query.Where(
			`(LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(p.email, '')) LIKE ? ESCAPE '\' `+
				`OR LOWER(COALESCE(p.hospital, '')) LIKE ? ESCAPE '\')`,
			like, like, like,
		)
	}

	patients := []PatientSummary{}
	if err := query.Order("p.created_at DESC, p.id DESC").Scan(&patients).Error; err != nil {
		return nil, log.Err("failed to list patients", err, "status", filter.Status)
	}

	return patients, nil
}

// GetStats counts patients and sessions. "Today" is the UTC calendar day
// containing now.
func (r *adminRepository) GetStats(ctx context.Context, now time.Time) (*Stats, error) {
	log := r.log.Function("GetStats")
	db := r.getDB(ctx)

	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var stats Stats
	if err := db.Model(&Patient{}).Count(&stats.TotalPatients).Error; err != nil {
		return nil, log.Err("failed to count patients", err)
	}
	if err := db.Model(&Session{}).
		Where("status = ?", SessionStatusCompleted).
		Count(&stats.CompletedSessions).Error; err != nil {
		return nil, log.Err("failed to count completed sessions", err)
	}
	if err := db.Model(&Session{}).
		Where("status = ?", SessionStatusInProgress).
		Count(&stats.InProgressSessions).Error; err != nil {
		return nil, log.Err("failed to count in-progress sessions", err)
	}
	if err := db.Model(&Patient{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Count(&stats.TodayPatients).Error; err != nil {
		return nil, log.Err("failed to count today's patients", err)
	}

	return &stats, nil
}
