package pipeline

import (
	"strings"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
)

// Enrichment records a venue-registry match for one event.
type Enrichment struct {
	EventID      int64
	Neighborhood string
	Lat          *float64
	Lon          *float64
}

// EnrichActive matches events against the venue registry and returns the
// location data to attach. Every active event is re-matched each pass, so an
// event whose venue changed picks up the new venue's location; registry
// misses are silently skipped.
func EnrichActive(events []db.Event, venues config.VenueRegistry) []Enrichment {
	var out []Enrichment
	for i := range events {
		ev := &events[i]
		venue, ok := venues.Find(ev.VenueName)
		if !ok {
			continue
		}
		out = append(out, Enrichment{
			EventID:      ev.EventID,
			Neighborhood: venue.Neighborhood,
			Lat:          venue.Lat,
			Lon:          venue.Lon,
		})
	}
	return out
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
