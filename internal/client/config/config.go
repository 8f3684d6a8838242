package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the incidentauth CLI.
//
// Fields:
//   - APIBaseURL: absolute root of the REST API, e.g. http://localhost:3000/api.
//   - RequestTimeout: per-request HTTP timeout.
//   - DataDir, DBFile: location of the local SQLite database.
//   - OTPResendTimeout: how long the resend action stays disabled.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL       string
	RequestTimeout   time.Duration
	DataDir          string
	DBFile           string
	OTPResendTimeout time.Duration
	LogLevel         string
}

// EnvFile is the dotenv file read from the working directory, if present.
const EnvFile = ".env"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:3000/api"
	c.RequestTimeout = 10 * time.Second
	c.DataDir = "~/.incidentauth"
	c.DBFile = "incidentauth.db"
	c.OTPResendTimeout = 120 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the .env file, the environment, a JSON file and command-line flags, in that
// order. args are the command-line arguments without the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, EnvFile); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.APIBaseURL == "":
		return fmt.Errorf("config: api base url is empty")
	case c.RequestTimeout <= 0:
		return fmt.Errorf("config: request timeout must be positive, got %s", c.RequestTimeout)
	case c.OTPResendTimeout <= 0:
		return fmt.Errorf("config: otp resend timeout must be positive, got %s", c.OTPResendTimeout)
	}
	return nil
}
