package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOGS_PRIVILEGED_ACTIONS", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, DefaultPrivilegedActions, cfg.Logs.PrivilegedActions)
	assert.False(t, cfg.Logs.UnscopedAdminFallback)
	assert.Equal(t, []string{"http://middleware:3001"}, cfg.CORS.AllowedOrigins)
}

func TestLoadPrivilegedActionsOverride(t *testing.T) {
	t.Setenv("LOGS_PRIVILEGED_ACTIONS", " DELETE_ADMIN , ,CREATE_ORGANIZATION")
	t.Setenv("LOGS_UNSCOPED_ADMIN_FALLBACK", "true")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"DELETE_ADMIN", "CREATE_ORGANIZATION"}, cfg.Logs.PrivilegedActions)
	assert.True(t, cfg.Logs.UnscopedAdminFallback)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, 2*time.Minute, parseDuration("", 2*time.Minute))
	assert.Equal(t, 2*time.Minute, parseDuration("bogus", 2*time.Minute))
	assert.Equal(t, 30*time.Second, parseDuration("30s", 2*time.Minute))
}
