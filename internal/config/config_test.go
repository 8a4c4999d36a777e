package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "paike", cfg.App.Name)
	assert.Equal(t, 7012, cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Engine.GenerateTimeout)
	assert.Equal(t, 3, cfg.Engine.MaxSuggestions)
	assert.Equal(t, 10, cfg.Engine.OptimizerPasses)
	assert.Equal(t, "09:00", cfg.Grid.DayStart)
	assert.Equal(t, "17:00", cfg.Grid.DayEnd)
	assert.Equal(t, 60, cfg.Grid.SlotMinutes)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ENGINE_GENERATE_TIMEOUT", "45s")
	t.Setenv("GRID_SLOT_MINUTES", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 45*time.Second, cfg.Engine.GenerateTimeout)
	assert.Equal(t, 90, cfg.Grid.SlotMinutes)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-number")
	t.Setenv("ENGINE_GENERATE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7012, cfg.App.Port)
	assert.Equal(t, 30*time.Second, cfg.Engine.GenerateTimeout)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5432, Name: "paike",
		User: "svc", Password: "secret", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=svc password=secret dbname=paike sslmode=require",
		cfg.DSN())
}
