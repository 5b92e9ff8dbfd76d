package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable read by Load.
const Prefix = "NAMEMATCH"

// Settings are the process-level options shared by the binaries.
type Settings struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ConfigPath  string `envconfig:"CONFIG" default:"config.json"`

	Addr            string        `envconfig:"ADDR" default:":8080"`
	MaxUploadMB     int64         `envconfig:"MAX_UPLOAD_MB" default:"16"`
	RateLimit       float64       `envconfig:"RATE_LIMIT" default:"10"`
	RateBurst       int           `envconfig:"RATE_BURST" default:"20"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads NAMEMATCH_* variables into Settings and validates them.
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if strings.TrimSpace(s.ConfigPath) == "" {
		return fmt.Errorf("%s_CONFIG is required", Prefix)
	}
	if s.MaxUploadMB < 1 {
		return fmt.Errorf("%s_MAX_UPLOAD_MB must be >= 1", Prefix)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("%s_RATE_LIMIT must be >= 0", Prefix)
	}
	if s.RateLimit > 0 && s.RateBurst < 1 {
		return fmt.Errorf("%s_RATE_BURST must be >= 1 when rate limiting", Prefix)
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s_SHUTDOWN_TIMEOUT must be positive", Prefix)
	}
	return nil
}

// MaxUploadBytes is the request body limit in bytes.
func (s *Settings) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}
