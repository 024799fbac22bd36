package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("REPORT_API_BASE_URL", "https://students.aui.ma/api/")
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "https://students.aui.ma/api", cfg.ReportAPIBaseURL)
		assert.Equal(t, 60*time.Second, cfg.ReportAPITimeout)
		assert.Equal(t, 20, cfg.NotificationLimit)
		assert.Equal(t, 50, cfg.DefaultRowsPerPage)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("REPORT_API_TIMEOUT", "5s")
		t.Setenv("NOTIFICATION_LIMIT", "5")
		t.Setenv("SKIP_AUTH", "true")
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 5*time.Second, cfg.ReportAPITimeout)
		assert.Equal(t, 5, cfg.NotificationLimit)
		assert.True(t, cfg.SkipAuth)
	})

	t.Run("invalid numbers fall back", func(t *testing.T) {
		t.Setenv("REPORT_API_TIMEOUT", "soon")
		t.Setenv("DEFAULT_ROWS_PER_PAGE", "-3")
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 60*time.Second, cfg.ReportAPITimeout)
		assert.Equal(t, 50, cfg.DefaultRowsPerPage)
	})
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Atlantis"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Africa/Casablanca"
	assert.Equal(t, "Africa/Casablanca", cfg.Location().String())
}
