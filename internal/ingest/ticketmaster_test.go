package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/config"
)

const tmFixture = `{
  "_embedded": {
    "events": [
      {
        "id": "G5vYZ9",
        "name": "Kurt Rosenwinkel Quartet",
        "url": "https://www.ticketmaster.com/event/G5vYZ9",
        "dates": { "start": { "dateTime": "2026-09-12T23:30:00Z" } },
        "priceRanges": [ { "min": 35, "max": 75 } ],
        "classifications": [
          { "segment": { "name": "Music" }, "genre": { "name": "Jazz" } }
        ],
        "_embedded": {
          "venues": [ { "name": "Sony Hall", "address": { "line1": "235 W 46th St" } } ],
          "attractions": [ { "name": "Kurt Rosenwinkel" } ]
        }
      },
      {
        "id": "missing-date",
        "name": "No Start Time"
      }
    ]
  },
  "page": { "totalPages": 1, "number": 0 }
}`

func TestTicketmasterParse(t *testing.T) {
	t.Parallel()

	var resp tmResponse
	if err := json.Unmarshal([]byte(tmFixture), &resp); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	a := NewTicketmasterAdapter(config.SourceConfig{Name: "ticketmaster_nyc"}, Deps{Logger: zerolog.Nop()})
	events, err := a.Parse(context.Background(), resp.Embedded.Events)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected the dateless item dropped, got %d events", len(events))
	}

	ev := events[0]
	if ev.SourceEventID != "ticketmaster_nyc:G5vYZ9" {
		t.Fatalf("unexpected event ID %q", ev.SourceEventID)
	}
	if ev.VenueName != "Sony Hall" {
		t.Fatalf("unexpected venue %q", ev.VenueName)
	}
	if ev.Address != "235 W 46th St" {
		t.Fatalf("unexpected address %q", ev.Address)
	}
	if ev.Category != "concert" {
		t.Fatalf("expected Music segment to map to concert, got %q", ev.Category)
	}
	if ev.PriceMin == nil || *ev.PriceMin != 35 || ev.PriceMax == nil || *ev.PriceMax != 75 {
		t.Fatalf("price range must carry over")
	}

	var artist, genre bool
	for _, ent := range ev.Entities {
		switch {
		case ent.Type == "artist" && ent.Value == "Kurt Rosenwinkel":
			artist = true
		case ent.Type == "genre" && ent.Value == "Jazz":
			genre = true
		}
	}
	if !artist || !genre {
		t.Fatalf("expected artist and genre entities, got %+v", ev.Entities)
	}
}

func TestTicketmasterNoKeyFetchesEmpty(t *testing.T) {
	t.Parallel()

	a := NewTicketmasterAdapter(config.SourceConfig{Name: "ticketmaster_nyc"}, Deps{Logger: zerolog.Nop()})
	raw, err := a.FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("FetchRaw without a key must not fail: %v", err)
	}
	events, err := a.Parse(context.Background(), raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty batch, got %d", len(events))
	}
}

func TestTMCategory(t *testing.T) {
	t.Parallel()

	if got := tmCategory("Music"); got != "concert" {
		t.Fatalf("Music: got %q", got)
	}
	if got := tmCategory("Arts & Theatre"); got != "theatre" {
		t.Fatalf("Arts & Theatre: got %q", got)
	}
	if got := tmCategory("Sports"); got != "other" {
		t.Fatalf("Sports: got %q", got)
	}
}
