package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/config"
)

const (
	strategyJSONLD      = "json_ld"
	strategyICS         = "ics"
	strategyCSS         = "css_selectors"
	strategyFollowLinks = "follow_links"
)

func init() {
	Register("generic", func(cfg config.SourceConfig, deps Deps) (Adapter, error) {
		return NewGenericAdapter(cfg, deps), nil
	})
}

// GenericAdapter covers every source that can be described declaratively in
// sources.yaml: pick a fetch method and an extraction strategy, no code.
type GenericAdapter struct {
	cfg    config.SourceConfig
	deps   Deps
	logger zerolog.Logger
}

func NewGenericAdapter(cfg config.SourceConfig, deps Deps) *GenericAdapter {
	return &GenericAdapter{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With().Str("adapter", "generic").Logger(),
	}
}

func (a *GenericAdapter) Name() string { return a.cfg.Name }

// FetchRaw retrieves the source page, through a headless browser when the
// source needs client-side rendering.
func (a *GenericAdapter) FetchRaw(ctx context.Context) (any, error) {
	if a.cfg.Method == "browser" {
		return a.deps.Fetcher.GetRendered(ctx, a.cfg.URL)
	}
	return a.deps.Fetcher.GetText(ctx, a.cfg.URL)
}

// Parse dispatches to the configured extraction strategy. An unknown
// strategy logs a warning and falls back to JSON-LD.
func (a *GenericAdapter) Parse(ctx context.Context, raw any) ([]NormalizedEvent, error) {
	body, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("generic adapter expects a string payload, got %T", raw)
	}
	strategy := a.cfg.Extraction.Strategy
	switch strategy {
	case strategyJSONLD, strategyICS, strategyCSS, strategyFollowLinks:
	default:
		if strategy != "" {
			a.logger.Warn().Str("source", a.cfg.Name).Str("strategy", strategy).
				Msg("unknown extraction strategy, falling back to json_ld")
		}
		strategy = strategyJSONLD
	}
	return a.parseWith(ctx, strategy, body)
}

func (a *GenericAdapter) parseWith(ctx context.Context, strategy, body string) ([]NormalizedEvent, error) {
	switch strategy {
	case strategyICS:
		return a.parseICS(ctx, body)
	case strategyCSS:
		return a.parseCSS(body)
	case strategyFollowLinks:
		return a.parseFollowLinks(ctx, body)
	default:
		return a.parseJSONLD(body)
	}
}

func (a *GenericAdapter) defaultVenue() string {
	return a.cfg.Extraction.DefaultVenue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func resolveAgainst(pageURL, href string) string {
	a := &GenericAdapter{cfg: config.SourceConfig{URL: pageURL}}
	return a.resolveURL(href)
}

// asList wraps a decoded JSON value into a slice so single objects and
// arrays share one code path.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

func getString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func getFloat(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
