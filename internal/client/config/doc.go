// Package config loads runtime configuration for the incidentauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, read with godotenv.
//  3. Environment variables INCIDENTAUTH_API_URL, INCIDENTAUTH_DATA_DIR,
//     INCIDENTAUTH_LOG_LEVEL and INCIDENTAUTH_REQUEST_TIMEOUT.
//  4. Optional JSON file selected via -c or -config.
//  5. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   API base URL
//	-t int      request timeout (seconds)
//	-d string   data directory
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "10s"
// or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://incidents.example.com/api",
//	  "request_timeout": "10s",
//	  "data_dir": "~/.incidentauth",
//	  "db_file": "incidentauth.db",
//	  "otp_resend_timeout": "2m",
//	  "log_level": "info"
//	}
package config
