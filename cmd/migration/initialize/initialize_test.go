package initialize

import (
	"testing"

	"intake/config"
	"intake/internal/database"
	"intake/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeTables_Idempotent(t *testing.T) {
	cfg := config.Config{DatabaseDbPath: ":memory:"}
	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	log := logger.New("test")
	require.NoError(t, InitializeTables(db, cfg, log))
	require.NoError(t, InitializeTables(db, cfg, log))

	status, err := db.MigrationStatus()
	require.NoError(t, err)
	for _, m := range status {
		assert.True(t, m.Applied, m.ID)
	}
}
