package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/askql/internal/config"
	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/metadata"
	"github.com/leapstack-labs/askql/pkg/synth"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps CLI flag names onto nested config keys. Flags not listed
// map kebab-case to snake_case at the top level.
var flagKeys = map[string]string{
	"database":      "target.database",
	"target-type":   "target.type",
	"source":        "metadata.source",
	"endpoint":      "metadata.endpoint",
	"prefix":        "metadata.prefix",
	"graph":         "metadata.graph",
	"store":         "metadata.store_path",
	"model":         "llm.model",
	"schema":        "synthesis.default_schema",
	"group-match":   "synthesis.group_match",
	"report-errors": "execution.report_errors",
	"addr":          "server.addr",
}

// defaults returns the lowest-priority configuration layer.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"verbose":                  false,
		"output":                   DefaultOutput,
		"log_format":               DefaultLogFormat,
		"metadata.source":          metadata.SourceSPARQL,
		"metadata.prefix":          metadata.DefaultPrefix,
		"metadata.store_path":      DefaultStorePath,
		"metadata.timeout":         DefaultMetadataTimeout.String(),
		"metadata.max_retries":     DefaultMaxRetries,
		"llm.provider":             llm.DefaultProvider,
		"llm.model":                llm.DefaultModel,
		"llm.max_tokens":           llm.DefaultMaxTokens,
		"llm.timeout":              DefaultLLMTimeout.String(),
		"llm.max_retries":          DefaultMaxRetries,
		"synthesis.default_schema": synth.DefaultSchema,
		"synthesis.group_match":    synth.MatchSubstring,
		"execution.max_retries":    1,
		"execution.report_errors":  false,
		"server.addr":              DefaultAddr,
		"server.shutdown_timeout":  DefaultShutdownTimeout.String(),
	}
}

// findConfigFile finds the config file to use.
// Priority: explicit path > askql.yaml > askql.yml in dir
func findConfigFile(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// configExistsIn checks if an askql config file exists in the directory.
func configExistsIn(dir string) bool {
	return findConfigFile("", dir) != ""
}

// findProjectRootUpward searches upward from startDir for an askql config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the directory relative paths resolve against.
// Priority: directory of an explicit config file > nearest ancestor holding
// askql.yaml > current working directory.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := findProjectRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags)
}

// LoadConfigWithTarget loads configuration with an optional environment override.
// The envOverride parameter selects which entry of environments: to merge
// over the base target.
func LoadConfigWithTarget(cfgFile string, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile)

	// Paths given as flags are relative to CWD, not the project root.
	var flagDatabase, flagStore string
	if flags != nil {
		flagDatabase = absFlag(flags, "database")
		flagStore = absFlag(flags, "store")
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile, projectRoot)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (ASKQL_ prefix)
	// Transform: ASKQL_LLM__API_KEY -> llm.api_key
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Determine which environment to use for target selection
	envName := cfg.Environment
	if envOverride != "" {
		envName = envOverride
	}
	if envName != "" && cfg.Environments != nil {
		if envCfg, ok := cfg.Environments[envName]; ok {
			if envCfg.Target != nil {
				cfg.Target = intconfig.MergeTargetConfig(cfg.Target, envCfg.Target)
			}
			if envCfg.Endpoint != "" {
				cfg.Metadata.Endpoint = envCfg.Endpoint
			}
		}
	}

	// Initialize default target if not specified
	if cfg.Target == nil {
		cfg.Target = &TargetConfig{}
	}
	intconfig.ApplyTargetDefaults(cfg.Target)
	intconfig.ExpandTargetEnvVars(cfg.Target)

	cfg.LLM.APIKey = intconfig.ExpandEnvVars(cfg.LLM.APIKey)
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	// Resolve file paths: flags against CWD, everything else against the project root.
	if flagDatabase != "" {
		cfg.Target.Database = flagDatabase
	} else if cfg.Target.Type != "postgres" {
		cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
	}
	if flagStore != "" {
		cfg.Metadata.StorePath = flagStore
	} else {
		cfg.Metadata.StorePath = resolvePathRelativeTo(cfg.Metadata.StorePath, projectRoot)
	}

	// Validate target configuration
	if err := intconfig.ValidateTarget(cfg.Target); err != nil {
		return nil, fmt.Errorf("invalid target configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// absFlag returns the absolute form of a path flag that was explicitly set.
func absFlag(flags *pflag.FlagSet, name string) string {
	if flags.Lookup(name) == nil || !flags.Changed(name) {
		return ""
	}
	v, _ := flags.GetString(name)
	if v == "" || v == ":memory:" {
		return v
	}
	if abs, err := filepath.Abs(v); err == nil {
		return abs
	}
	return v
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithTarget is called.
func GetCurrentConfig() *Config {
	return currentConfig
}
