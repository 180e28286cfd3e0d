package services

import (
	"context"
	"time"

	"intake/internal/database"
	"intake/internal/events"
	"intake/internal/logger"
	. "intake/internal/models"

	"github.com/google/uuid"
)

const SessionCachePattern = "session:%s"

// CacheInvalidationService runs after a commit: it evicts the cached view of
// the touched session and announces the change on the admin channel.
type CacheInvalidationService struct {
	cache    database.CacheClient
	eventBus *events.EventBus
	log      logger.Logger
}

func NewCacheInvalidationService(
	db database.DB,
	eventBus *events.EventBus,
) *CacheInvalidationService {
	return &CacheInvalidationService{
		cache:    db.Cache.Session,
		eventBus: eventBus,
		log:      logger.New("CacheInvalidationService"),
	}
}

func (s *CacheInvalidationService) SessionChanged(
	ctx context.Context,
	eventType events.EventType,
	session *Session,
	data map[string]any,
) {
	log := s.log.Function("SessionChanged")

	if err := database.NewCacheBuilder(s.cache, session.Token).
		WithHashPattern(SessionCachePattern).
		WithContext(ctx).
		Delete(); err != nil {
		log.Er("failed to evict session cache", err, "sessionID", session.ID)
	}

	payload := map[string]any{
		"session_id":      session.ID,
		"patient_id":      session.PatientID,
		"current_step":    session.CurrentStep,
		"completed_steps": session.CompletedSteps,
		"status":          session.Status,
	}
	for key, value := range data {
		payload[key] = value
	}

	event := events.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Channel:   events.AdminChannel,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	}

	if err := s.eventBus.Publish(ctx, event); err != nil {
		log.Er("failed to publish event", err, "type", eventType, "sessionID", session.ID)
	}
}
