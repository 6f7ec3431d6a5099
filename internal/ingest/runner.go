package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/metrics"
	"github.com/dustpunk/scout/internal/pipeline"
)

const fetchAttempts = 3

// Runner executes one full ingestion batch: every enabled source in
// sequence, then deduplication and enrichment over the combined active set.
type Runner struct {
	pool    *db.Pool
	sources []config.SourceConfig
	venues  config.VenueRegistry
	deps    Deps
	logger  zerolog.Logger

	// Injectable for tests; defaults to sleepCtx.
	sleep func(ctx context.Context, d time.Duration)
}

func NewRunner(pool *db.Pool, sources []config.SourceConfig, venues config.VenueRegistry, deps Deps) *Runner {
	return &Runner{
		pool:    pool,
		sources: sources,
		venues:  venues,
		deps:    deps,
		logger:  deps.Logger.With().Str("component", "runner").Logger(),
		sleep:   sleepCtx,
	}
}

// Run executes the batch and records its summary row. A failing source does
// not abort the batch; it is counted and the remaining sources still run.
func (r *Runner) Run(ctx context.Context) (*db.IngestRun, error) {
	started := time.Now().UTC()
	run, err := r.pool.CreateIngestRun(ctx, started)
	if err != nil {
		return nil, fmt.Errorf("create ingest run: %w", err)
	}
	r.logger.Info().Str("run_uuid", run.RunUUID).Int("source_count", len(r.sources)).Msg("ingest batch starting")

	for _, src := range r.sources {
		if !src.Enabled {
			r.logger.Debug().Str("source", src.Name).Msg("source disabled, skipping")
			continue
		}
		if err := r.runSource(ctx, run, src); err != nil {
			run.SourcesFailed++
			metrics.SourcesFailed.Inc()
			r.logger.Error().Err(err).Str("source", src.Name).Msg("source failed")
			continue
		}
		run.SourcesOK++
		metrics.SourcesSucceeded.Inc()
	}

	if err := r.postProcess(ctx, run); err != nil {
		msg := err.Error()
		run.Status = db.RunStatusFailed
		run.ErrorMessage = &msg
		if finishErr := r.pool.FinishIngestRun(ctx, run, time.Now().UTC()); finishErr != nil {
			r.logger.Error().Err(finishErr).Msg("recording failed run")
		}
		return run, err
	}

	run.Status = db.RunStatusSucceeded
	if run.SourcesOK == 0 && run.SourcesFailed > 0 {
		run.Status = db.RunStatusFailed
	}
	if err := r.pool.FinishIngestRun(ctx, run, time.Now().UTC()); err != nil {
		return run, fmt.Errorf("finish ingest run: %w", err)
	}

	r.logger.Info().
		Str("run_uuid", run.RunUUID).
		Str("status", run.Status).
		Int("sources_ok", run.SourcesOK).
		Int("sources_failed", run.SourcesFailed).
		Int("events_parsed", run.EventsParsed).
		Int("events_stored", run.EventsStored).
		Int("dupes_merged", run.DupesMerged).
		Int("enriched", run.Enriched).
		Msg("ingest batch finished")
	return run, nil
}

// runSource fetches and parses one source with retries, then upserts its
// events.
func (r *Runner) runSource(ctx context.Context, run *db.IngestRun, src config.SourceConfig) error {
	adapter, err := NewAdapter(src, r.deps)
	if err != nil {
		return fmt.Errorf("build adapter for %s: %w", src.Name, err)
	}

	var events []NormalizedEvent
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		events, err = RunAdapter(ctx, adapter, r.logger)
		if err == nil {
			break
		}
		if attempt == fetchAttempts {
			return err
		}
		backoff := time.Duration(1<<attempt) * time.Second
		r.logger.Warn().Err(err).Str("source", src.Name).
			Int("attempt", attempt).Dur("backoff", backoff).Msg("source attempt failed, retrying")
		r.sleep(ctx, backoff)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}

	source, err := r.pool.GetOrCreateSource(ctx, src.Name, src.Adapter, src.URL, src.Method, src.Enabled)
	if err != nil {
		return fmt.Errorf("resolve source %s: %w", src.Name, err)
	}

	now := time.Now().UTC()
	for i := range events {
		ev := &events[i]
		if err := ev.Validate(); err != nil {
			r.logger.Warn().Err(err).Str("source", src.Name).Msg("dropping invalid event")
			continue
		}
		run.EventsParsed++
		metrics.EventsParsed.Inc()

		created, err := r.pool.UpsertEvent(ctx, source.SourceID, ev.ToUpsert(), now)
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", ev.SourceEventID, err)
		}
		if created {
			run.EventsStored++
			metrics.EventsStored.Inc()
		}
	}
	return nil
}

// postProcess runs deduplication and enrichment over the combined active set
// once all sources have been ingested.
func (r *Runner) postProcess(ctx context.Context, run *db.IngestRun) error {
	active, err := r.pool.ActiveEvents(ctx)
	if err != nil {
		return fmt.Errorf("load active events: %w", err)
	}

	for _, merge := range pipeline.Deduplicate(active) {
		if merge.BackfillTicketURL != "" {
			if err := r.pool.SetEventTicketURL(ctx, merge.KeeperID, merge.BackfillTicketURL); err != nil {
				return fmt.Errorf("backfill ticket url for event %d: %w", merge.KeeperID, err)
			}
		}
		if err := r.pool.MarkEventStale(ctx, merge.DupeID); err != nil {
			return fmt.Errorf("mark event %d stale: %w", merge.DupeID, err)
		}
		run.DupesMerged++
		metrics.DupesMerged.Inc()
	}

	// Reload so stale rows drop out before the registry pass.
	active, err = r.pool.ActiveEvents(ctx)
	if err != nil {
		return fmt.Errorf("reload active events: %w", err)
	}
	for _, enr := range pipeline.EnrichActive(active, r.venues) {
		if err := r.pool.SetEventEnrichment(ctx, enr.EventID, enr.Neighborhood, enr.Lat, enr.Lon); err != nil {
			return fmt.Errorf("enrich event %d: %w", enr.EventID, err)
		}
		run.Enriched++
		metrics.EventsEnriched.Inc()
	}
	return nil
}
