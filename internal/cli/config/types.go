// Package config provides configuration management for the askql CLI.
//
// The shared target type lives in pkg/core, and the metadata and model
// settings are owned by the packages that consume them. They are
// re-exported here via type aliases so commands only import this package.
package config

import (
	"time"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/metadata"
	"github.com/leapstack-labs/askql/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// MetadataConfig is an alias for the metadata retriever configuration.
type MetadataConfig = metadata.Config

// LLMConfig is an alias for the language model configuration.
type LLMConfig = llm.Config

// SynthesisConfig controls how analyses become SQL.
type SynthesisConfig struct {
	// DefaultSchema qualifies bare table names.
	DefaultSchema string `koanf:"default_schema"`
	// GroupMatch is the grouping repair policy: substring or exact.
	GroupMatch string `koanf:"group_match"`
}

// ExecutionConfig controls query execution.
type ExecutionConfig struct {
	MaxRetries   uint64 `koanf:"max_retries"`
	ReportErrors bool   `koanf:"report_errors"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	LogFormat    string               `koanf:"log_format"`
	Environment  string               `koanf:"environment"`
	Target       *TargetConfig        `koanf:"target"`
	Metadata     MetadataConfig       `koanf:"metadata"`
	LLM          LLMConfig            `koanf:"llm"`
	Synthesis    SynthesisConfig      `koanf:"synthesis"`
	Execution    ExecutionConfig      `koanf:"execution"`
	Server       ServerConfig         `koanf:"server"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target   *TargetConfig `koanf:"target"`
	Endpoint string        `koanf:"endpoint"`
}

// Default configuration values
const (
	ConfigFileName    = "askql.yaml"
	ConfigFileNameAlt = "askql.yml"
	EnvPrefix         = "ASKQL_"

	DefaultOutput          = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat       = "text"
	DefaultStorePath       = ".askql/triples.db"
	DefaultAddr            = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMetadataTimeout = 30 * time.Second
	DefaultLLMTimeout      = 60 * time.Second
	DefaultMaxRetries      = 2
)
