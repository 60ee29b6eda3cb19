package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/askql/internal/metadata"
	"github.com/leapstack-labs/askql/pkg/synth"
)

var (
	outputFormats = []string{"auto", "text", "markdown", "json", "csv"}
	logFormats    = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
// Missing endpoints and credentials are reported later by the component
// that needs them, so commands like triples load work without an LLM key.
func (c *Config) Validate() error {
	if c.OutputFormat != "" && !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of %v)", c.OutputFormat, outputFormats)
	}
	if c.LogFormat != "" && !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (expected one of %v)", c.LogFormat, logFormats)
	}

	switch c.Metadata.Source {
	case "", metadata.SourceSPARQL, metadata.SourceStore:
	default:
		return fmt.Errorf("invalid metadata.source %q (expected %s or %s)",
			c.Metadata.Source, metadata.SourceSPARQL, metadata.SourceStore)
	}

	if _, err := synth.MatcherByName(c.Synthesis.GroupMatch); err != nil {
		return fmt.Errorf("invalid synthesis.group_match: %w", err)
	}
	return nil
}
