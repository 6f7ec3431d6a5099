package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"SCOUT_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"SCOUT_DB_MAX_CONNS" default:"8"`

	ConfigDir string `envconfig:"SCOUT_CONFIG_DIR" default:"config"`

	HTTPHost string `envconfig:"SCOUT_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"SCOUT_HTTP_PORT" default:"8090"`

	IngestCron string `envconfig:"SCOUT_INGEST_CRON" default:"0 */6 * * *"`
	DigestCron string `envconfig:"SCOUT_DIGEST_CRON" default:"0 8 * * *"`

	TicketmasterAPIKey string `envconfig:"TICKETMASTER_API_KEY" default:""`

	SMTPHost     string `envconfig:"SCOUT_SMTP_HOST" default:""`
	SMTPPort     int    `envconfig:"SCOUT_SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SCOUT_SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SCOUT_SMTP_PASSWORD" default:""`
	DigestFrom   string `envconfig:"SCOUT_DIGEST_FROM" default:""`
	DigestTo     string `envconfig:"SCOUT_DIGEST_TO" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("SCOUT_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("SCOUT_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("SCOUT_DB_MIN_CONNS (%d) cannot exceed SCOUT_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.ConfigDir) == "" {
		return fmt.Errorf("SCOUT_CONFIG_DIR is required")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("SCOUT_HTTP_PORT must be a valid port")
	}
	return nil
}
