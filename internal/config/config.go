package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// MinSessionSecretLength is the shortest accepted cookie signing secret.
const MinSessionSecretLength = 32

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port                   int           `envconfig:"PORT" default:"8080"`
	LogLevel               string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL            string        `envconfig:"DATABASE_URL" required:"true"`
	Version                string        `envconfig:"VERSION" default:"dev"`
	BcryptCost             int           `envconfig:"BCRYPT_COST" default:"12"`
	SessionSecret          string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTLHours        int           `envconfig:"SESSION_TTL_HOURS" default:"12"`
	SecureCookie           bool          `envconfig:"SECURE_COOKIE" default:"false"`
	Timezone               string        `envconfig:"TIMEZONE" default:"UTC"`
	SeedUsersPath          string        `envconfig:"SEED_USERS_PATH" default:""`
	SessionCleanupInterval time.Duration `envconfig:"SESSION_CLEANUP_INTERVAL" default:"15m"`
	Currency               string        `envconfig:"CURRENCY" default:"NGN"`
}

// Load reads configuration from environment variables into a Config struct.
// Variables in a .env file in the working directory fill in anything unset.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must have at least %d characters", MinSessionSecretLength)
	}
	if c.SessionTTLHours <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.SessionCleanupInterval <= 0 {
		return errors.New("SESSION_CLEANUP_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// SessionTTL is the lifetime of a login session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Location is the time zone in which license and trial dates are evaluated.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
