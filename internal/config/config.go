// Package config loads service configuration from the environment.
package config

import "github.com/kelseyhightower/envconfig"

// Config holds everything cmd/server needs to wire the process.
type Config struct {
	// Port the HTTP server listens on. 8111 avoids clashing with the usual
	// 8080 dev servers on the same machine.
	Port string `envconfig:"PORT" default:"8111"`

	// UseMemoryStore switches persistence to the in-memory store for local
	// development; no Firestore project or credentials required.
	UseMemoryStore bool `envconfig:"USE_MEMORY_STORE" default:"false"`

	// SkipAuth disables Firebase token verification. Dev and seeding only.
	SkipAuth bool `envconfig:"SKIP_AUTH" default:"false"`

	Env       string `envconfig:"ENV" default:"production"`
	ProjectID string `envconfig:"GOOGLE_CLOUD_PROJECT"`

	// GeminiModel is the model used for categorization, insights and Q&A.
	GeminiModel string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`

	// AvatarBucket, when set, receives uploaded profile photos; otherwise
	// photo data URLs are stored inline on the profile document.
	AvatarBucket string `envconfig:"AVATAR_BUCKET"`

	// DevUserID is the identity every request runs as when auth is
	// skipped. Defaults to the user the seed script targets.
	DevUserID string `envconfig:"DEV_USER_ID" default:"local-dev-user"`

	// AllowedOrigins supplements the built-in CORS origin list.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "local" {
		cfg.UseMemoryStore = true
	}
	return &cfg, nil
}

// Local reports whether the process is running in local development mode.
func (c *Config) Local() bool {
	return c.Env == "local" || c.UseMemoryStore
}
