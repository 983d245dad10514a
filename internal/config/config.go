package config

import (
	"io/fs"
	"os"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"teleecho/internal/authclient"
	"teleecho/internal/constants"
	"teleecho/internal/forms"
)

// Config is the global config for the app router. Host and Port are needed for absolute URL generation.
type Config struct {
	Env                   string
	Host                  string
	Port                  string
	AuthServiceURL        string
	AuthServiceTimeout    time.Duration
	RegisterRedirectDelay time.Duration
	CookieSecure          bool
	// DatabaseUrl enables postgres session storage. Sessions are kept in
	// memory when it is empty.
	DatabaseUrl      string
	DisableLogColors bool
	EnableStackTrace bool
	CompileOnRender  bool
	ViewsFS          fs.FS
	StaticFS         fs.FS
}

func NewConfigFromEnvironment(viewsFS, staticFS fs.FS) Config {
	env := os.Getenv("ENV")
	dbUrlKey := "DATABASE_URL"
	if env == constants.EnvTest {
		dbUrlKey = "TEST_DATABASE_URL"
	}

	authURL := os.Getenv("AUTH_SERVICE_URL")
	if authURL == "" {
		authURL = authclient.DefaultBaseURL
	}

	return Config{
		Env:                   env,
		Host:                  os.Getenv("HOST"),
		Port:                  getEnvDefault("PORT", "3000"),
		AuthServiceURL:        authURL,
		AuthServiceTimeout:    getDuration("AUTH_SERVICE_TIMEOUT", 10*time.Second),
		RegisterRedirectDelay: getDuration("REGISTER_REDIRECT_DELAY", forms.DefaultRedirectDelay),
		CookieSecure:          env == constants.EnvProduction,
		DatabaseUrl:           os.Getenv(dbUrlKey),
		DisableLogColors:      env == constants.EnvProduction,
		EnableStackTrace:      env == constants.EnvDevelopment,
		CompileOnRender:       env == constants.EnvDevelopment,
		ViewsFS:               viewsFS,
		StaticFS:              staticFS,
	}
}

// NewTestConfig returns a config with in-memory sessions talking to the user
// service at authURL.
func NewTestConfig(authURL string, viewsFS, staticFS fs.FS) *Config {
	return &Config{
		Env:                   constants.EnvTest,
		Host:                  "127.0.0.1",
		Port:                  "3000",
		AuthServiceURL:        authURL,
		AuthServiceTimeout:    time.Second,
		RegisterRedirectDelay: forms.DefaultRedirectDelay,
		DisableLogColors:      true,
		EnableStackTrace:      true,
		ViewsFS:               viewsFS,
		StaticFS:              staticFS,
	}
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fiberlog.Warnf("invalid %s %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
