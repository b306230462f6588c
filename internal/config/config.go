// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds host-interop configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"host-interop"`

	// SubjectPrefix roots every interop subject (<prefix>.client, <prefix>.host.*, <prefix>.ui.*).
	SubjectPrefix string `envconfig:"INTEROP_SUBJECT_PREFIX" default:"interop"`

	// Host session
	HostType          string        `envconfig:"HOST_TYPE"`
	FuzzyEchoHostType string        `envconfig:"FUZZY_ECHO_HOST_TYPE" default:"NX"`
	EchoWindow        time.Duration `envconfig:"SELECTION_ECHO_WINDOW" default:"1000ms"`
	HostCallTimeout   time.Duration `envconfig:"HOST_CALL_TIMEOUT" default:"30s"`
	HandshakeTimeout  time.Duration `envconfig:"HANDSHAKE_TIMEOUT" default:"5s"`

	// Bootstrap and component table
	BootstrapFile      string `envconfig:"INTEROP_BOOTSTRAP_FILE"`
	ComponentTableFile string `envconfig:"COMPONENT_TABLE_FILE"`

	// Database (optional; backs the component table when COMPONENT_TABLE_FILE is empty)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// HTTP health endpoint
	HTTPAddr string `envconfig:"INTEROP_HTTP_ADDR"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the interop server.
func (c *Config) ValidateForServe() error {
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if strings.TrimSpace(c.SubjectPrefix) == "" || strings.ContainsAny(c.SubjectPrefix, " *>") {
		return fmt.Errorf("%s - INTEROP_SUBJECT_PREFIX %q is not a valid subject token", logPrefix, c.SubjectPrefix)
	}
	if c.EchoWindow <= 0 {
		return fmt.Errorf("%s - SELECTION_ECHO_WINDOW must be positive", logPrefix)
	}
	if c.HostCallTimeout <= 0 {
		return fmt.Errorf("%s - HOST_CALL_TIMEOUT must be positive", logPrefix)
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("%s - HANDSHAKE_TIMEOUT must be positive", logPrefix)
	}
	if c.RunMigrations && c.DatabaseURL == "" {
		return fmt.Errorf("%s - RUN_MIGRATIONS requires DATABASE_URL", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear, seed).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}
