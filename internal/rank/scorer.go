// Package rank scores active events against the personal preference and
// taste profile documents and selects the digest buckets. Everything here is
// pure over in-memory events: no store access, safely repeatable.
package rank

import (
	"strconv"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
)

const artistMatchThreshold = 85

// Breakdown is the per-event score decomposition. Signals carries the raw
// per-sub-signal values for the explanation layer; it is recomputed every
// pass and never persisted.
type Breakdown struct {
	Total       float64
	Taste       float64
	Convenience float64
	Social      float64
	Novelty     float64
	Signals     map[string]float64
}

// Scored pairs an event with its breakdown.
type Scored struct {
	Event  db.Event
	Scores Breakdown
}

// Scorer evaluates events against one loaded preference set.
type Scorer struct {
	prefs   *config.Preferences
	venues  config.VenueRegistry
	profile *config.TasteProfile

	weekdayCutoffHour int
}

func NewScorer(prefs *config.Preferences, venues config.VenueRegistry, profile *config.TasteProfile) *Scorer {
	if profile == nil {
		profile = &config.TasteProfile{}
	}
	return &Scorer{
		prefs:             prefs,
		venues:            venues,
		profile:           profile,
		weekdayCutoffHour: cutoffHour(prefs.WeekdayLateCutoff, 22),
	}
}

// SeenState is the pass-local novelty memory. Each ranking pass starts
// empty; artists and venues of already-scored events suppress the novelty
// bonus of later, similar events in the same pass.
type SeenState struct {
	Artists map[string]bool
	Venues  map[string]bool
}

func NewSeenState() *SeenState {
	return &SeenState{Artists: make(map[string]bool), Venues: make(map[string]bool)}
}

// Observe records an event's artists and venue after it has been scored.
func (s *SeenState) Observe(ev *db.Event) {
	for _, name := range ev.ArtistNames() {
		s.Artists[strings.ToLower(name)] = true
	}
	s.Venues[strings.ToLower(ev.VenueName)] = true
}

// Score computes the full breakdown for one event. seen must not be nil.
func (s *Scorer) Score(ev *db.Event, seen *SeenState) Breakdown {
	signals := make(map[string]float64)

	taste := 0.0
	for _, sig := range tasteSignals {
		v := sig.fn(s, ev)
		signals[sig.name] = v
		taste += v
	}
	taste = clamp(taste, 0, 40)

	convenience := clamp(s.convenienceScore(ev), 0, 25)
	social := clamp(s.socialScore(ev), 0, 20)
	novelty := clamp(s.noveltyScore(ev, seen), 0, 15)

	return Breakdown{
		Total:       taste + convenience + social + novelty,
		Taste:       taste,
		Convenience: convenience,
		Social:      social,
		Novelty:     novelty,
		Signals:     signals,
	}
}

// Ordered. New taste sub-signals get appended here.
var tasteSignals = []struct {
	name string
	fn   func(*Scorer, *db.Event) float64
}{
	{"category_weight", (*Scorer).categorySignal},     // 0-15
	{"venue_reputation", (*Scorer).reputationSignal},  // 0-10
	{"vibe_alignment", (*Scorer).vibeSignal},          // -8 to 15
	{"artist_affinity", (*Scorer).artistAffinitySignal}, // 0-10
}

func (s *Scorer) categorySignal(ev *db.Event) float64 {
	weight, ok := s.prefs.CategoryWeights[strings.ToLower(ev.Category)]
	if !ok {
		weight = 0.3
	}
	return weight * 15
}

// reputationSignal returns the configured boost of the first fuzzy-matched
// venue in the boost list.
func (s *Scorer) reputationSignal(ev *db.Event) float64 {
	needle := strings.ToLower(ev.VenueName)
	for _, vb := range s.prefs.VenueBoosts {
		if fuzzy.Ratio(needle, strings.ToLower(vb.Name)) > artistMatchThreshold {
			return vb.Boost
		}
	}
	return 0
}

func (s *Scorer) vibeSignal(ev *db.Event) float64 {
	venue, ok := s.venues.Find(ev.VenueName)
	if !ok {
		return 0
	}

	preferred := make(map[string]bool, len(s.prefs.VibePreferences))
	for _, v := range s.prefs.VibePreferences {
		preferred[v] = true
	}

	score := 0.0
	overlap := 0
	touristy := false
	for _, tag := range venue.VibeTags {
		if preferred[tag] {
			overlap++
		}
		if tag == "touristy" {
			touristy = true
		}
	}
	if overlap > 0 {
		score += min(float64(overlap)*5, 15)
	}
	if touristy && preferred["not-touristy"] {
		score -= 8
	}
	return score
}

// artistAffinitySignal takes the highest learned affinity among the event's
// performers, fuzzy-matched to absorb name variations, scaled to 0-10.
func (s *Scorer) artistAffinitySignal(ev *db.Event) float64 {
	if len(s.profile.ArtistAffinities) == 0 {
		return 0
	}
	artists := ev.ArtistNames()
	if len(artists) == 0 {
		return 0
	}

	best := 0.0
	for _, artist := range artists {
		needle := strings.ToLower(artist)
		for known, affinity := range s.profile.ArtistAffinities {
			if fuzzy.Ratio(needle, strings.ToLower(known)) > artistMatchThreshold {
				best = max(best, affinity)
				break
			}
		}
	}
	return best * 10
}

func (s *Scorer) convenienceScore(ev *db.Event) float64 {
	score := 15.0

	hour := ev.StartAt.Hour()
	wd := ev.StartAt.Weekday()
	isWeekend := wd == time.Friday || wd == time.Saturday || wd == time.Sunday

	if isWeekend {
		if hour >= 18 {
			score += 10
		}
	} else {
		switch {
		case hour >= 19 && hour <= 21:
			score += 10
		case hour <= s.weekdayCutoffHour:
			score += 5
		default:
			// Too late for a weeknight.
			score -= 5
		}
	}

	if venue, ok := s.venues.Find(ev.VenueName); ok {
		hood := strings.ToLower(venue.Neighborhood)
		switch {
		case hood == strings.ToLower(s.prefs.HomeNeighborhood):
			score += 5
		case containsFold(s.prefs.CloseNeighborhoods, hood):
			score += 3
		case containsFold(s.prefs.NearNeighborhoods, hood):
			score += 1
		}
	}
	return score
}

func (s *Scorer) socialScore(ev *db.Event) float64 {
	score := 10.0

	if venue, ok := s.venues.Find(ev.VenueName); ok {
		for _, tag := range venue.VibeTags {
			if tag == "date-friendly" {
				score += 5
				break
			}
		}
		if venue.Seated {
			score += 3
		}
		if venue.Capacity > 0 && venue.Capacity <= 100 {
			score += 2
		}
	}

	if ev.EndAt != nil && ev.EndAt.Sub(ev.StartAt).Hours() > 3 {
		score -= 3
	}
	return score
}

func (s *Scorer) noveltyScore(ev *db.Event, seen *SeenState) float64 {
	score := 7.0

	artists := ev.ArtistNames()
	if len(artists) == 0 {
		// Unknown acts might be novel too.
		score += 3
	} else {
		fresh := true
		for _, a := range artists {
			if seen.Artists[strings.ToLower(a)] {
				fresh = false
				break
			}
		}
		if fresh {
			score += 5
		}
	}

	if !seen.Venues[strings.ToLower(ev.VenueName)] {
		score += 3
	}
	return score
}

func cutoffHour(value string, fallback int) int {
	hourPart, _, _ := strings.Cut(value, ":")
	h, err := strconv.Atoi(hourPart)
	if err != nil {
		return fallback
	}
	return h
}

func containsFold(list []string, needle string) bool {
	for _, item := range list {
		if strings.ToLower(item) == needle {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
