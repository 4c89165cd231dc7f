package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amecontrol/sigtapload/internal/auth"
)

// Defaults for values the config file leaves unset.
const (
	DefaultListenAddr      = ":8080"
	DefaultMaxUploadBytes  = 10 << 20
	DefaultJWTIssuer       = "sigtapload"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTokenTTL        = 8 * time.Hour

	// EnvSigningKey overrides server.jwt_signing_key.
	EnvSigningKey = "JWT_SIGNING_KEY"

	minSigningKeyLen = 32
)

// Config holds all runtime configuration for a sigtapload run.
type Config struct {
	DSN         string
	FilePath    string
	LogFormat   string // "text" or "json"
	LogLevel    string
	Overwrite   bool
	SubmittedBy string
	Server      ServerConfig
}

// ServerConfig configures the HTTP API and token minting.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	AdminTier       int           `yaml:"admin_tier"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	Server ServerConfig `yaml:"server"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.Server = yc.Server
	return nil
}

// ApplyDefaults fills unset server values and applies environment overrides.
func (c *Config) ApplyDefaults() {
	s := &c.Server
	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.MaxUploadBytes == 0 {
		s.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if s.AdminTier == 0 {
		s.AdminTier = auth.TierAdmin
	}
	if s.JWTIssuer == "" {
		s.JWTIssuer = DefaultJWTIssuer
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.TokenTTL == 0 {
		s.TokenTTL = DefaultTokenTTL
	}
	if key := os.Getenv(EnvSigningKey); key != "" {
		s.JWTSigningKey = key
	}
}

// JWT returns the token settings.
func (c *Config) JWT() auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     c.Server.JWTIssuer,
		SigningKey: []byte(c.Server.JWTSigningKey),
	}
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks both file and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.ValidateDSN()
}

// ValidateDSN checks that a database is configured.
func (c *Config) ValidateDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

// ValidateServer checks the settings needed to serve or mint tokens.
func (c *Config) ValidateServer() error {
	s := c.Server
	if len(s.JWTSigningKey) < minSigningKeyLen {
		return fmt.Errorf("jwt signing key must be at least %d bytes (set %s or server.jwt_signing_key)",
			minSigningKeyLen, EnvSigningKey)
	}
	if s.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes must not be negative")
	}
	if s.AdminTier < 1 {
		return fmt.Errorf("server.admin_tier must be positive")
	}
	return nil
}
