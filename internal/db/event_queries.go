package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// EntityUpsert is one (type, value) tag attached to an upserted event.
type EntityUpsert struct {
	Type  string
	Value string
}

// EventUpsert carries the normalized fields an adapter produced for one
// event, ready to be written. ContentHash must already exclude RawPayload.
type EventUpsert struct {
	SourceEventID string
	Title         string
	Description   string
	StartAt       time.Time
	EndAt         *time.Time
	VenueName     string
	Address       string
	PriceMin      *float64
	PriceMax      *float64
	TicketURL     string
	Category      string
	ContentHash   string
	RawPayload    json.RawMessage
	Entities      []EntityUpsert
}

// GetOrCreateSource finds the source row by name, creating it from the given
// attributes when absent.
func (p *Pool) GetOrCreateSource(ctx context.Context, name, sourceType, url, method string, active bool) (*Source, error) {
	gdb := p.gdb.WithContext(ctx)

	var src Source
	err := gdb.Where("name = ?", name).First(&src).Error
	if err == nil {
		return &src, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("find source %q: %w", name, err)
	}

	src = Source{
		Name:   name,
		Type:   sourceType,
		URL:    url,
		Method: method,
		Active: active,
	}
	if err := gdb.Create(&src).Error; err != nil {
		return nil, fmt.Errorf("create source %q: %w", name, err)
	}
	return &src, nil
}

// UpsertEvent writes one event keyed by (source, sourceEventID). A new row is
// created with firstSeen = lastSeen = now. An existing row with a differing
// content hash has its mutable fields overwritten and status reset to active;
// an unchanged row only gets lastSeen bumped. Entity tuples append
// idempotently in both cases. Returns true when a row was created.
func (p *Pool) UpsertEvent(ctx context.Context, sourceID int64, up EventUpsert, now time.Time) (bool, error) {
	gdb := p.gdb.WithContext(ctx)

	var existing Event
	err := gdb.Where("source_id = ? AND source_event_id = ?", sourceID, up.SourceEventID).First(&existing).Error

	created := false
	switch {
	case IsNotFound(err):
		existing = Event{
			SourceID:      sourceID,
			SourceEventID: up.SourceEventID,
			Title:         up.Title,
			Description:   up.Description,
			StartAt:       up.StartAt,
			EndAt:         up.EndAt,
			VenueName:     up.VenueName,
			Address:       up.Address,
			PriceMin:      up.PriceMin,
			PriceMax:      up.PriceMax,
			TicketURL:     up.TicketURL,
			Category:      up.Category,
			ContentHash:   up.ContentHash,
			RawPayload:    up.RawPayload,
			FirstSeenAt:   now,
			LastSeenAt:    now,
			Status:        StatusActive,
		}
		if err := gdb.Create(&existing).Error; err != nil {
			return false, fmt.Errorf("create event %q: %w", up.SourceEventID, err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("find event %q: %w", up.SourceEventID, err)
	case existing.ContentHash != up.ContentHash:
		updates := map[string]any{
			"title":        up.Title,
			"description":  up.Description,
			"start_at":     up.StartAt,
			"end_at":       up.EndAt,
			"venue_name":   up.VenueName,
			"address":      up.Address,
			"price_min":    up.PriceMin,
			"price_max":    up.PriceMax,
			"ticket_url":   up.TicketURL,
			"category":     up.Category,
			"content_hash": up.ContentHash,
			"raw_payload":  up.RawPayload,
			"last_seen_at": now,
			"status":       StatusActive,
		}
		if err := gdb.Model(&Event{}).Where("event_id = ?", existing.EventID).Updates(updates).Error; err != nil {
			return false, fmt.Errorf("update event %q: %w", up.SourceEventID, err)
		}
	default:
		if err := gdb.Model(&Event{}).Where("event_id = ?", existing.EventID).Update("last_seen_at", now).Error; err != nil {
			return false, fmt.Errorf("touch event %q: %w", up.SourceEventID, err)
		}
	}

	if len(up.Entities) > 0 {
		rows := make([]EventEntity, 0, len(up.Entities))
		for _, ent := range up.Entities {
			if ent.Value == "" {
				continue
			}
			rows = append(rows, EventEntity{
				EventID:     existing.EventID,
				EntityType:  ent.Type,
				EntityValue: ent.Value,
			})
		}
		if len(rows) > 0 {
			if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return created, fmt.Errorf("append entities for %q: %w", up.SourceEventID, err)
			}
		}
	}

	return created, nil
}

// ActiveEvents returns all active events ordered by start time, entities
// preloaded. This is the dedup working set.
func (p *Pool) ActiveEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	err := p.gdb.WithContext(ctx).
		Preload("Entities").
		Where("status = ?", StatusActive).
		Order("start_at, event_id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("query active events: %w", err)
	}
	return events, nil
}

// ActiveEventsBetween returns active events with start_at in [from, to),
// ordered by start time, entities preloaded.
func (p *Pool) ActiveEventsBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	var events []Event
	err := p.gdb.WithContext(ctx).
		Preload("Entities").
		Where("status = ? AND start_at >= ? AND start_at < ?", StatusActive, from.UTC(), to.UTC()).
		Order("start_at, event_id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("query active events between %s and %s: %w", from, to, err)
	}
	return events, nil
}

// MarkEventStale flips one event to stale. Dedup calls this for the losing
// side of a merge.
func (p *Pool) MarkEventStale(ctx context.Context, eventID int64) error {
	err := p.gdb.WithContext(ctx).Model(&Event{}).
		Where("event_id = ?", eventID).
		Update("status", StatusStale).Error
	if err != nil {
		return fmt.Errorf("mark event %d stale: %w", eventID, err)
	}
	return nil
}

// SetEventTicketURL backfills a ticket URL onto a keeper event.
func (p *Pool) SetEventTicketURL(ctx context.Context, eventID int64, ticketURL string) error {
	err := p.gdb.WithContext(ctx).Model(&Event{}).
		Where("event_id = ?", eventID).
		Update("ticket_url", ticketURL).Error
	if err != nil {
		return fmt.Errorf("set ticket url on event %d: %w", eventID, err)
	}
	return nil
}

// SetEventEnrichment writes venue metadata found by the enricher.
func (p *Pool) SetEventEnrichment(ctx context.Context, eventID int64, neighborhood string, lat, lon *float64) error {
	updates := map[string]any{"neighborhood": neighborhood}
	if lat != nil {
		updates["lat"] = *lat
	}
	if lon != nil {
		updates["lon"] = *lon
	}
	err := p.gdb.WithContext(ctx).Model(&Event{}).
		Where("event_id = ?", eventID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("enrich event %d: %w", eventID, err)
	}
	return nil
}

// CreateIngestRun opens a batch summary row and returns it.
func (p *Pool) CreateIngestRun(ctx context.Context, startedAt time.Time) (*IngestRun, error) {
	run := IngestRun{
		RunUUID:   uuid.NewString(),
		StartedAt: startedAt.UTC(),
		Status:    RunStatusRunning,
	}
	if err := p.gdb.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("create ingest run: %w", err)
	}
	return &run, nil
}

// FinishIngestRun closes a batch summary row with final counts.
func (p *Pool) FinishIngestRun(ctx context.Context, run *IngestRun, finishedAt time.Time) error {
	if run == nil {
		return fmt.Errorf("ingest run is nil")
	}
	ts := finishedAt.UTC()
	run.FinishedAt = &ts
	err := p.gdb.WithContext(ctx).Model(&IngestRun{}).
		Where("run_id = ?", run.RunID).
		Updates(map[string]any{
			"finished_at":    run.FinishedAt,
			"status":         run.Status,
			"sources_ok":     run.SourcesOK,
			"sources_failed": run.SourcesFailed,
			"events_parsed":  run.EventsParsed,
			"events_stored":  run.EventsStored,
			"dupes_merged":   run.DupesMerged,
			"enriched":       run.Enriched,
			"error_message":  run.ErrorMessage,
		}).Error
	if err != nil {
		return fmt.Errorf("finish ingest run %d: %w", run.RunID, err)
	}
	return nil
}
