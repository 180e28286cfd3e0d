package app

import (
	"testing"

	"intake/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WiresEverything(t *testing.T) {
	a, err := New(config.Config{
		Environment:    "test",
		DatabaseDriver: config.DriverSQLite,
		DatabaseDbPath: ":memory:",
	})
	require.NoError(t, err)

	assert.NotNil(t, a.SessionController)
	assert.NotNil(t, a.QuestionnaireController)
	assert.NotNil(t, a.AdminController)
	assert.NotNil(t, a.Websocket)
	assert.False(t, a.Database.Cache.Enabled())

	assert.NoError(t, a.Close())
}

func TestNew_DatabaseFailure(t *testing.T) {
	_, err := New(config.Config{Environment: "test", DatabaseDriver: "oracle"})
	assert.Error(t, err)
}

func TestValidate_EmptyConfig(t *testing.T) {
	a := &App{}
	assert.Error(t, a.validate())
}
