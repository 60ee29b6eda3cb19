package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/askql/pkg/core"
)

// Factory builds an unconnected adapter.
type Factory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	aliases    = make(map[string]string)
)

// Register makes a target type available under name and any aliases.
// Adapter packages call it from init. Names are matched case-insensitively.
func Register(name string, factory Factory, alias ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name = strings.ToLower(name)
	factories[name] = factory
	for _, a := range alias {
		aliases[strings.ToLower(a)] = name
	}
}

// Resolve maps a configured target type, or one of its aliases, to the
// registered name.
func Resolve(targetType string) (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return resolveLocked(targetType)
}

func resolveLocked(targetType string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(targetType))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	_, ok := factories[name]
	return name, ok
}

// Get returns the factory registered for targetType.
func Get(targetType string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	name, ok := resolveLocked(targetType)
	if !ok {
		return nil, false
	}
	return factories[name], true
}

// IsRegistered reports whether targetType names a registered adapter.
func IsRegistered(targetType string) bool {
	_, ok := Resolve(targetType)
	return ok
}

// ListAdapters returns the registered names, sorted. Aliases are omitted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewAdapter creates an unconnected adapter for cfg.Type.
// A nil logger makes the adapter discard its logs.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// Open creates the adapter for cfg and connects it.
func Open(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	db, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}
	if err := db.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", db.DialectName(), err)
	}
	return db, nil
}

// UnknownAdapterError is returned when a target type has no adapter.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q (available: %s); set target.type in askql.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
