// Package ingest turns heterogeneous web sources (JSON-LD pages, ICS feeds,
// scraped HTML, third-party APIs) into normalized event records and runs the
// periodic batch that persists, deduplicates and enriches them.
package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/config"
)

// Adapter is the capability contract every source adapter implements.
// FetchRaw retrieves the source's native payload; Parse extracts normalized
// events from it. Parse takes a context because some extraction strategies
// fetch sub-pages or linked feeds.
type Adapter interface {
	Name() string
	FetchRaw(ctx context.Context) (any, error)
	Parse(ctx context.Context, raw any) ([]NormalizedEvent, error)
}

// Deps carries the shared collaborators adapter constructors need.
type Deps struct {
	Fetcher            *Fetcher
	Logger             zerolog.Logger
	TicketmasterAPIKey string
}

// Constructor builds an adapter for one configured source.
type Constructor func(cfg config.SourceConfig, deps Deps) (Adapter, error)

var registry = map[string]Constructor{}

// Register adds an adapter constructor under a string key. Called from
// adapter init functions at startup.
func Register(name string, fn Constructor) {
	registry[name] = fn
}

// RegisteredAdapters lists the known adapter keys, sorted.
func RegisteredAdapters() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewAdapter resolves the adapter named in the source config. An empty or
// unknown adapter key falls back to the generic config-driven adapter.
func NewAdapter(cfg config.SourceConfig, deps Deps) (Adapter, error) {
	key := cfg.Adapter
	if key == "" {
		key = "generic"
	}
	ctor, ok := registry[key]
	if !ok {
		deps.Logger.Warn().Str("source", cfg.Name).Str("adapter", key).
			Msg("unknown adapter, falling back to generic")
		ctor = registry["generic"]
		if ctor == nil {
			return nil, fmt.Errorf("generic adapter is not registered")
		}
	}
	return ctor(cfg, deps)
}

// RunAdapter composes a full fetch+parse pass for one adapter.
func RunAdapter(ctx context.Context, a Adapter, logger zerolog.Logger) ([]NormalizedEvent, error) {
	logger.Info().Str("source", a.Name()).Msg("fetching")
	raw, err := a.FetchRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", a.Name(), err)
	}

	logger.Info().Str("source", a.Name()).Msg("parsing")
	events, err := a.Parse(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", a.Name(), err)
	}

	logger.Info().Str("source", a.Name()).Int("event_count", len(events)).Msg("parsed events")
	return events, nil
}
