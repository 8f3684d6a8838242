package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables understood by the client.
const (
	EnvAPIURL         = "INCIDENTAUTH_API_URL"
	EnvDataDir        = "INCIDENTAUTH_DATA_DIR"
	EnvLogLevel       = "INCIDENTAUTH_LOG_LEVEL"
	EnvRequestTimeout = "INCIDENTAUTH_REQUEST_TIMEOUT"
)

// parseEnv overlays Config with environment variables. Values from envFile
// (dotenv format) are used when the real environment does not set them; a
// missing envFile is not an error.
func parseEnv(cfg *Config, envFile string) error {
	vars := map[string]string{}

	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("read %s: %w", envFile, err)
		default:
			vars = fileVars
		}
	}

	for _, key := range []string{EnvAPIURL, EnvDataDir, EnvLogLevel, EnvRequestTimeout} {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}

	if v := vars[EnvAPIURL]; v != "" {
		cfg.APIBaseURL = v
	}
	if v := vars[EnvDataDir]; v != "" {
		cfg.DataDir = v
	}
	if v := vars[EnvLogLevel]; v != "" {
		cfg.LogLevel = v
	}
	if v := vars[EnvRequestTimeout]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
