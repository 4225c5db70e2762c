package config

import (
	"time"

	redisclient "github.com/vietddude/chainsink/internal/infra/redis"
	"github.com/vietddude/chainsink/internal/infra/storage/postgres"
	"github.com/vietddude/chainsink/internal/processing/ans"
	"github.com/vietddude/chainsink/internal/processing/tokenclaims"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   postgres.Config    `yaml:"database"`
	Redis      redisclient.Config `yaml:"redis"`
	Source     SourceConfig       `yaml:"source"`
	Processors ProcessorsConfig   `yaml:"processors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SourceConfig holds transaction source settings.
type SourceConfig struct {
	// Path points at a JSON-lines transaction dump, one record per line in
	// ascending version order.
	Path         string        `yaml:"path"`
	BatchSize    int           `yaml:"batch_size"`
	StartVersion uint64        `yaml:"start_version"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// ProcessorsConfig selects which processors run and carries their
// per-processor settings.
type ProcessorsConfig struct {
	Enabled     []string           `yaml:"enabled"`
	ANS         ans.Config         `yaml:"ans"`
	TokenClaims tokenclaims.Config `yaml:"token_claims"`
}
