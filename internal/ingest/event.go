package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/normalize"
)

// Entity is one tag extracted from a source payload. Values stay
// case-sensitive here; downstream matching is fuzzy.
type Entity struct {
	Type  string // artist, genre, exhibition
	Value string
}

// NormalizedEvent is the common representation every adapter emits,
// independent of the source's native format.
type NormalizedEvent struct {
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
	RawPayload    json.RawMessage
	Entities      []Entity
}

// Validate enforces the adapter output invariant: title, start time, venue
// and source event ID must all be present.
func (e *NormalizedEvent) Validate() error {
	if strings.TrimSpace(e.SourceEventID) == "" {
		return fmt.Errorf("event is missing source_event_id")
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("event %q is missing title", e.SourceEventID)
	}
	if e.StartAt.IsZero() {
		return fmt.Errorf("event %q is missing start time", e.SourceEventID)
	}
	if strings.TrimSpace(e.VenueName) == "" {
		return fmt.Errorf("event %q is missing venue name", e.SourceEventID)
	}
	return nil
}

// hashFields collects every visible field as a string. The raw payload is
// deliberately excluded so formatting churn in a source's response does not
// look like a content change.
func (e *NormalizedEvent) hashFields() map[string]string {
	fields := map[string]string{
		"source_event_id": e.SourceEventID,
		"title":           e.Title,
		"description":     e.Description,
		"start_at":        e.StartAt.UTC().Format(time.RFC3339),
		"venue_name":      e.VenueName,
		"address":         e.Address,
		"ticket_url":      e.TicketURL,
		"category":        e.Category,
	}
	if e.EndAt != nil {
		fields["end_at"] = e.EndAt.UTC().Format(time.RFC3339)
	}
	if e.PriceMin != nil {
		fields["price_min"] = strconv.FormatFloat(*e.PriceMin, 'f', -1, 64)
	}
	if e.PriceMax != nil {
		fields["price_max"] = strconv.FormatFloat(*e.PriceMax, 'f', -1, 64)
	}
	if len(e.Entities) > 0 {
		parts := make([]string, 0, len(e.Entities))
		for _, ent := range e.Entities {
			parts = append(parts, ent.Type+"="+ent.Value)
		}
		fields["entities"] = strings.Join(parts, ";")
	}
	return fields
}

// ContentHash returns the change-detection digest for this event.
func (e *NormalizedEvent) ContentHash() string {
	return normalize.ContentHash(e.hashFields())
}

// ToUpsert converts the normalized event into its persistence shape.
func (e *NormalizedEvent) ToUpsert() db.EventUpsert {
	entities := make([]db.EntityUpsert, 0, len(e.Entities))
	for _, ent := range e.Entities {
		entities = append(entities, db.EntityUpsert{Type: ent.Type, Value: ent.Value})
	}
	return db.EventUpsert{
		SourceEventID: e.SourceEventID,
		Title:         e.Title,
		Description:   e.Description,
		StartAt:       e.StartAt.UTC(),
		EndAt:         e.EndAt,
		VenueName:     e.VenueName,
		Address:       e.Address,
		PriceMin:      e.PriceMin,
		PriceMax:      e.PriceMax,
		TicketURL:     e.TicketURL,
		Category:      e.Category,
		ContentHash:   e.ContentHash(),
		RawPayload:    e.RawPayload,
		Entities:      entities,
	}
}
