package services

import (
	"context"
	"testing"
	"time"

	"intake/config"
	"intake/internal/database"
	"intake/internal/events"
	. "intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionChanged_PublishesAdminEvent(t *testing.T) {
	bus := events.New(nil, config.Config{})
	defer bus.Close()

	feed, cancel := bus.Subscribe(events.AdminChannel)
	defer cancel()

	service := NewCacheInvalidationService(database.DB{}, bus)

	session := NewSession(7, "token")
	require.NoError(t, session.CompleteStep(StepODI))
	session.ID = 3

	service.SessionChanged(context.Background(), events.StepCompleted, session, map[string]any{"step": 1})

	select {
	case event := <-feed:
		assert.Equal(t, events.StepCompleted, event.Type)
		assert.Equal(t, events.AdminChannel, event.Channel)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, 3, event.Data["session_id"])
		assert.Equal(t, 7, event.Data["patient_id"])
		assert.Equal(t, StepVAS, event.Data["current_step"])
		assert.Equal(t, 1, event.Data["step"])
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestSessionChanged_ClosedBusDoesNotPanic(t *testing.T) {
	bus := events.New(nil, config.Config{})
	require.NoError(t, bus.Close())

	service := NewCacheInvalidationService(database.DB{}, bus)
	assert.NotPanics(t, func() {
		service.SessionChanged(context.Background(), events.SessionCreated, NewSession(1, "t"), nil)
	})
}
