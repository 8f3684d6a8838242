package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/incidentauth/internal/flagx"
	"github.com/dmitrijs2005/incidentauth/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "10s" or as integer nanoseconds. Absent fields leave the
// runtime Config untouched.
type JsonConfig struct {
	APIBaseURL       string          `json:"api_base_url"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	DataDir          string          `json:"data_dir"`
	DBFile           string          `json:"db_file"`
	OTPResendTimeout *timex.Duration `json:"otp_resend_timeout"`
	LogLevel         string          `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.DBFile != "" {
		cfg.DBFile = jc.DBFile
	}
	if jc.OTPResendTimeout != nil {
		cfg.OTPResendTimeout = jc.OTPResendTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
