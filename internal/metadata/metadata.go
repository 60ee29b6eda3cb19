// Package metadata retrieves the schema description (subject-predicate-object
// triples) that grounds question analysis. Triples come either from a remote
// SPARQL endpoint or from a local SQLite triple store.
package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/askql/pkg/core"
)

// DefaultPrefix is the namespace the flight schema description lives under.
const DefaultPrefix = "http://flight_database.org/"

// Metadata sources.
const (
	SourceSPARQL = "sparql"
	SourceStore  = "store"
)

// Retriever returns every triple whose subject starts with prefix.
type Retriever interface {
	Retrieve(ctx context.Context, prefix string) ([]core.Triple, error)
}

// Config selects and configures the metadata source.
type Config struct {
	Source     string        `koanf:"source"`
	Endpoint   string        `koanf:"endpoint"`
	Prefix     string        `koanf:"prefix"`
	Graph      string        `koanf:"graph"`
	StorePath  string        `koanf:"store_path"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries uint64        `koanf:"max_retries"`
}

// New builds the configured retriever. The returned closer releases any
// resources held by it and is never nil.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Retriever, io.Closer, error) {
	switch cfg.Source {
	case SourceSPARQL, "":
		r, err := NewSPARQL(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, nopCloser{}, nil
	case SourceStore:
		s, err := OpenStore(ctx, cfg.StorePath, logger)
		if err != nil {
			return nil, nil, err
		}
		s.Graph = cfg.Graph
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown metadata source %q (available: %s, %s)", cfg.Source, SourceSPARQL, SourceStore)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Static serves a fixed set of triples, filtered by prefix.
type Static []core.Triple

// Retrieve returns the triples whose subject starts with prefix.
func (s Static) Retrieve(_ context.Context, prefix string) ([]core.Triple, error) {
	var out []core.Triple
	for _, t := range s {
		if strings.HasPrefix(t.Subject, prefix) {
			out = append(out, t)
		}
	}
	return out, nil
}
