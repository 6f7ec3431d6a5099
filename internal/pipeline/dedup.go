// Package pipeline holds the pure batch stages that run after ingestion:
// cross-source duplicate detection and venue-registry enrichment. Both
// operate on in-memory event slices and return decisions; persistence of
// those decisions is the runner's job.
package pipeline

import (
	"math"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/normalize"
)

const (
	// Events starting more than two hours apart are never duplicates.
	dedupMaxStartDelta = 7200.0

	venueRatioThreshold = 85
	titleRatioThreshold = 80
)

// Merge records one duplicate decision: DupeID is superseded by KeeperID.
// BackfillTicketURL is non-empty when the dupe carried a ticket URL the
// keeper lacked.
type Merge struct {
	KeeperID          int64
	DupeID            int64
	BackfillTicketURL string
}

// Deduplicate finds cross-source duplicates in a batch of active events.
// Events must be ordered by start time. Two events are duplicates when they
// start within two hours of each other and both the venue names and the
// normalized titles fuzzy-match above threshold. The event seen first
// (earliest first_seen_at) survives.
func Deduplicate(events []db.Event) []Merge {
	type entry struct {
		ev        db.Event
		normTitle string
	}
	entries := make([]entry, len(events))
	for i, ev := range events {
		entries[i] = entry{ev: ev, normTitle: normalize.Title(ev.Title)}
	}

	stale := make(map[int64]bool)
	var merges []Merge

	for i := range entries {
		if stale[entries[i].ev.EventID] {
			continue
		}
		for j := i + 1; j < len(entries); j++ {
			if stale[entries[j].ev.EventID] {
				continue
			}
			a, b := &entries[i], &entries[j]

			delta := math.Abs(a.ev.StartAt.Sub(b.ev.StartAt).Seconds())
			if delta > dedupMaxStartDelta {
				continue
			}
			if fuzzy.Ratio(lower(a.ev.VenueName), lower(b.ev.VenueName)) <= venueRatioThreshold {
				continue
			}
			if fuzzy.Ratio(a.normTitle, b.normTitle) <= titleRatioThreshold {
				continue
			}

			keeper, dupe := a, b
			if b.ev.FirstSeenAt.Before(a.ev.FirstSeenAt) {
				keeper, dupe = b, a
			}

			merge := Merge{KeeperID: keeper.ev.EventID, DupeID: dupe.ev.EventID}
			if keeper.ev.TicketURL == "" && dupe.ev.TicketURL != "" {
				merge.BackfillTicketURL = dupe.ev.TicketURL
				// Later comparisons against the keeper see the merged URL.
				keeper.ev.TicketURL = dupe.ev.TicketURL
			}
			stale[dupe.ev.EventID] = true
			merges = append(merges, merge)

			if dupe == a {
				break
			}
		}
	}
	return merges
}
