package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"teleecho/internal/authclient"
	"teleecho/internal/constants"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "AUTH_SERVICE_URL", "AUTH_SERVICE_TIMEOUT", "REGISTER_REDIRECT_DELAY", "DATABASE_URL"} {
		t.Setenv(k, "")
	}

	cfg := NewConfigFromEnvironment(nil, nil)

	assert.Equal(t, authclient.DefaultBaseURL, cfg.AuthServiceURL)
	assert.Equal(t, 10*time.Second, cfg.AuthServiceTimeout)
	assert.Equal(t, 2*time.Second, cfg.RegisterRedirectDelay)
	assert.Equal(t, "3000", cfg.Port)
	assert.Empty(t, cfg.DatabaseUrl)
	assert.False(t, cfg.CookieSecure)
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv("ENV", constants.EnvProduction)
	t.Setenv("PORT", "8080")
	t.Setenv("AUTH_SERVICE_URL", "http://users.internal:8020")
	t.Setenv("AUTH_SERVICE_TIMEOUT", "3s")
	t.Setenv("REGISTER_REDIRECT_DELAY", "500ms")
	t.Setenv("DATABASE_URL", "postgres://localhost/teleecho")

	cfg := NewConfigFromEnvironment(nil, nil)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://users.internal:8020", cfg.AuthServiceURL)
	assert.Equal(t, 3*time.Second, cfg.AuthServiceTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RegisterRedirectDelay)
	assert.Equal(t, "postgres://localhost/teleecho", cfg.DatabaseUrl)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.DisableLogColors)
	assert.False(t, cfg.EnableStackTrace)
}

func TestTestDatabaseURL(t *testing.T) {
	t.Setenv("ENV", constants.EnvTest)
	t.Setenv("DATABASE_URL", "postgres://prod")
	t.Setenv("TEST_DATABASE_URL", "postgres://test")

	cfg := NewConfigFromEnvironment(nil, nil)
	assert.Equal(t, "postgres://test", cfg.DatabaseUrl)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REGISTER_REDIRECT_DELAY", "soon")

	cfg := NewConfigFromEnvironment(nil, nil)
	assert.Equal(t, 2*time.Second, cfg.RegisterRedirectDelay)
}
