package db

import (
	"encoding/json"
	"time"
)

// Event lifecycle states. Events are never deleted: dedup marks superseded
// rows stale, cancellation handling marks them cancelled.
const (
	StatusActive    = "active"
	StatusStale     = "stale"
	StatusCancelled = "cancelled"
)

// Ingest run outcomes.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Source maps scout.sources.
type Source struct {
	SourceID  int64     `gorm:"column:source_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:text;not null;unique"`
	Type      string    `gorm:"column:type;type:text;not null;default:''"`
	URL       string    `gorm:"column:url;type:text;not null"`
	Method    string    `gorm:"column:method;type:text;not null;default:http"`
	Active    bool      `gorm:"column:active;type:boolean;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Source) TableName() string { return "scout.sources" }

// Event maps scout.events. Uniqueness is (source_id, source_event_id);
// neighborhood/lat/lon are enrichment-only and stay null until the enricher
// finds a registry match.
type Event struct {
	EventID       int64           `gorm:"column:event_id;primaryKey;autoIncrement"`
	SourceID      int64           `gorm:"column:source_id;type:bigint;not null;uniqueIndex:uidx_events_source_event,priority:1"`
	SourceEventID string          `gorm:"column:source_event_id;type:text;not null;uniqueIndex:uidx_events_source_event,priority:2"`
	Title         string          `gorm:"column:title;type:text;not null"`
	Description   string          `gorm:"column:description;type:text;not null;default:''"`
	StartAt       time.Time       `gorm:"column:start_at;type:timestamptz;not null;index"`
	EndAt         *time.Time      `gorm:"column:end_at;type:timestamptz"`
	VenueName     string          `gorm:"column:venue_name;type:text;not null"`
	Address       string          `gorm:"column:address;type:text;not null;default:''"`
	Neighborhood  string          `gorm:"column:neighborhood;type:text;not null;default:''"`
	Lat           *float64        `gorm:"column:lat;type:double precision"`
	Lon           *float64        `gorm:"column:lon;type:double precision"`
	PriceMin      *float64        `gorm:"column:price_min;type:double precision"`
	PriceMax      *float64        `gorm:"column:price_max;type:double precision"`
	TicketURL     string          `gorm:"column:ticket_url;type:text;not null;default:''"`
	Category      string          `gorm:"column:category;type:text;not null;default:''"`
	ContentHash   string          `gorm:"column:content_hash;type:text;not null;default:''"`
	RawPayload    json.RawMessage `gorm:"column:raw_payload;type:jsonb"`
	FirstSeenAt   time.Time       `gorm:"column:first_seen_at;type:timestamptz;not null"`
	LastSeenAt    time.Time       `gorm:"column:last_seen_at;type:timestamptz;not null"`
	Status        string          `gorm:"column:status;type:text;not null;default:active"`
	CreatedAt     time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`

	Entities []EventEntity `gorm:"foreignKey:EventID;references:EventID"`
}

func (Event) TableName() string { return "scout.events" }

// ArtistNames returns the values of all artist entities on the event.
func (e *Event) ArtistNames() []string {
	var names []string
	for _, ent := range e.Entities {
		if ent.EntityType == EntityTypeArtist {
			names = append(names, ent.EntityValue)
		}
	}
	return names
}

// Entity types stored in scout.event_entities.
const (
	EntityTypeArtist     = "artist"
	EntityTypeGenre      = "genre"
	EntityTypeExhibition = "exhibition"
)

// EventEntity maps scout.event_entities. The unique index makes entity
// appends idempotent across repeated ingestion passes.
type EventEntity struct {
	EventEntityID int64     `gorm:"column:event_entity_id;primaryKey;autoIncrement"`
	EventID       int64     `gorm:"column:event_id;type:bigint;not null;uniqueIndex:uidx_event_entities_tuple,priority:1"`
	EntityType    string    `gorm:"column:entity_type;type:text;not null;uniqueIndex:uidx_event_entities_tuple,priority:2"`
	EntityValue   string    `gorm:"column:entity_value;type:text;not null;uniqueIndex:uidx_event_entities_tuple,priority:3"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (EventEntity) TableName() string { return "scout.event_entities" }

// IngestRun maps scout.ingest_runs, the per-batch summary ledger.
type IngestRun struct {
	RunID         int64      `gorm:"column:run_id;primaryKey;autoIncrement"`
	RunUUID       string     `gorm:"column:run_uuid;type:uuid;not null;unique"`
	StartedAt     time.Time  `gorm:"column:started_at;type:timestamptz;not null"`
	FinishedAt    *time.Time `gorm:"column:finished_at;type:timestamptz"`
	Status        string     `gorm:"column:status;type:text;not null;default:running"`
	SourcesOK     int        `gorm:"column:sources_ok;type:integer;not null;default:0"`
	SourcesFailed int        `gorm:"column:sources_failed;type:integer;not null;default:0"`
	EventsParsed  int        `gorm:"column:events_parsed;type:integer;not null;default:0"`
	EventsStored  int        `gorm:"column:events_stored;type:integer;not null;default:0"`
	DupesMerged   int        `gorm:"column:dupes_merged;type:integer;not null;default:0"`
	Enriched      int        `gorm:"column:enriched;type:integer;not null;default:0"`
	ErrorMessage  *string    `gorm:"column:error_message;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (IngestRun) TableName() string { return "scout.ingest_runs" }

func autoMigrateModels() []any {
	return []any{
		&Source{},
		&Event{},
		&EventEntity{},
		&IngestRun{},
	}
}
