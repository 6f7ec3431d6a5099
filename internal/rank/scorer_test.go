package rank

import (
	"testing"
	"time"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
)

func testPrefs() *config.Preferences {
	p := &config.Preferences{
		CategoryWeights: map[string]float64{
			"jazz":    1.0,
			"concert": 0.7,
		},
		VenueBoosts: []config.VenueBoost{
			{Name: "Village Vanguard", Boost: 10},
			{Name: "Smalls Jazz Club", Boost: 8},
		},
		VibePreferences:    []string{"intimate", "listening-room", "not-touristy"},
		HomeNeighborhood:   "West Village",
		CloseNeighborhoods: []string{"west village", "greenwich village", "flatiron", "chelsea"},
		NearNeighborhoods:  []string{"east village", "lower east side", "soho"},
		WeekdayLateCutoff:  "22:30",
		WeekendLateCutoff:  "23:30",
		Selection: config.Selection{
			MinScore:        25,
			TonightCount:    5,
			WeekCount:       10,
			ComingUpCount:   5,
			MaxPerVenueWeek: 2,
		},
	}
	return p
}

func testVenues() config.VenueRegistry {
	return config.VenueRegistry{
		{
			Name:         "Village Vanguard",
			Neighborhood: "West Village",
			VibeTags:     []string{"legendary", "intimate", "listening-room", "date-friendly"},
			Capacity:     123,
			Seated:       true,
		},
		{
			Name:         "Blue Note",
			Neighborhood: "Greenwich Village",
			VibeTags:     []string{"touristy", "big-names"},
			Capacity:     250,
			Seated:       true,
		},
		{
			Name:         "Smalls Jazz Club",
			Neighborhood: "West Village",
			VibeTags:     []string{"intimate", "late-night", "listening-room"},
			Capacity:     60,
			Seated:       true,
		},
	}
}

func testProfile() *config.TasteProfile {
	return &config.TasteProfile{
		ArtistAffinities: map[string]float64{
			"Brad Mehldau": 0.95,
		},
	}
}

func artistEvent(title, venue, category string, start time.Time, artists ...string) db.Event {
	ev := db.Event{
		Title:     title,
		VenueName: venue,
		Category:  category,
		StartAt:   start,
	}
	for _, a := range artists {
		ev.Entities = append(ev.Entities, db.EventEntity{EntityType: db.EntityTypeArtist, EntityValue: a})
	}
	return ev
}

// A Wednesday September 2026 date; 2026-09-02 is a Wednesday.
var wednesdayNight = time.Date(2026, 9, 2, 20, 0, 0, 0, time.UTC)

func TestScoreIdealEventClearsThreshold(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(testPrefs(), testVenues(), testProfile())
	ev := artistEvent("Brad Mehldau Trio", "Village Vanguard", "jazz", wednesdayNight, "Brad Mehldau")

	b := scorer.Score(&ev, NewSeenState())

	if b.Taste != 40 {
		// category 15 + reputation 10 + vibes 10 + affinity 9.5 = 44.5, clamped
		t.Fatalf("expected taste clamped to 40, got %.1f", b.Taste)
	}
	if b.Total <= 25 {
		t.Fatalf("expected an ideal event to clear the digest threshold, got %.1f", b.Total)
	}
	if b.Signals["artist_affinity"] != 9.5 {
		t.Fatalf("expected artist_affinity 9.5, got %.2f", b.Signals["artist_affinity"])
	}
	if b.Signals["venue_reputation"] != 10 {
		t.Fatalf("expected venue_reputation 10, got %.2f", b.Signals["venue_reputation"])
	}
}

func TestScoreComponentsStayInRange(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(testPrefs(), testVenues(), testProfile())
	end := wednesdayNight.Add(6 * time.Hour)

	extremes := []db.Event{
		artistEvent("Brad Mehldau Marathon", "Village Vanguard", "jazz", wednesdayNight, "Brad Mehldau"),
		artistEvent("Tourist Trap Revue", "Blue Note", "other", wednesdayNight.Add(3*time.Hour)),
		{Title: "All Nighter", VenueName: "Nowhere Special", StartAt: wednesdayNight, EndAt: &end},
	}

	for i := range extremes {
		b := scorer.Score(&extremes[i], NewSeenState())
		if b.Taste < 0 || b.Taste > 40 {
			t.Fatalf("event %d: taste %.1f out of range", i, b.Taste)
		}
		if b.Convenience < 0 || b.Convenience > 25 {
			t.Fatalf("event %d: convenience %.1f out of range", i, b.Convenience)
		}
		if b.Social < 0 || b.Social > 20 {
			t.Fatalf("event %d: social %.1f out of range", i, b.Social)
		}
		if b.Novelty < 0 || b.Novelty > 15 {
			t.Fatalf("event %d: novelty %.1f out of range", i, b.Novelty)
		}
		want := b.Taste + b.Convenience + b.Social + b.Novelty
		if b.Total != want {
			t.Fatalf("event %d: total %.1f != sum of components %.1f", i, b.Total, want)
		}
	}
}

func TestTouristyPenalty(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(testPrefs(), testVenues(), testProfile())
	ev := artistEvent("Big Names Revue", "Blue Note", "jazz", wednesdayNight)

	b := scorer.Score(&ev, NewSeenState())
	if b.Signals["vibe_alignment"] != -8 {
		t.Fatalf("expected -8 vibe penalty for touristy venue, got %.1f", b.Signals["vibe_alignment"])
	}
}

func TestConvenienceTimeOfDay(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(testPrefs(), testVenues(), testProfile())

	cases := []struct {
		name  string
		start time.Time
		want  float64
	}{
		// Unknown venue keeps travel out of the picture.
		{"weeknight ideal", time.Date(2026, 9, 2, 20, 0, 0, 0, time.UTC), 25},
		{"weeknight early", time.Date(2026, 9, 2, 17, 0, 0, 0, time.UTC), 20},
		{"weeknight too late", time.Date(2026, 9, 2, 23, 30, 0, 0, time.UTC), 10},
		{"friday prime", time.Date(2026, 9, 4, 21, 0, 0, 0, time.UTC), 25},
		{"sunday matinee", time.Date(2026, 9, 6, 14, 0, 0, 0, time.UTC), 15},
	}

	for _, tc := range cases {
		ev := db.Event{Title: "Test", VenueName: "Somewhere Else", StartAt: tc.start}
		b := scorer.Score(&ev, NewSeenState())
		if b.Convenience != tc.want {
			t.Fatalf("%s: expected convenience %.0f, got %.1f", tc.name, tc.want, b.Convenience)
		}
	}
}

func TestNoveltyIsOrderDependent(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(testPrefs(), testVenues(), testProfile())
	seen := NewSeenState()

	first := artistEvent("Early Set", "Smalls Jazz Club", "jazz", wednesdayNight, "Immanuel Wilkins")
	second := artistEvent("Late Set", "Smalls Jazz Club", "jazz", wednesdayNight.Add(2*time.Hour), "Immanuel Wilkins")

	b1 := scorer.Score(&first, seen)
	seen.Observe(&first)
	b2 := scorer.Score(&second, seen)

	if b1.Novelty != 15 {
		t.Fatalf("expected first sighting to get full novelty, got %.1f", b1.Novelty)
	}
	if b2.Novelty != 7 {
		t.Fatalf("expected repeat artist and venue to fall back to baseline, got %.1f", b2.Novelty)
	}
}

func TestNoveltyNoArtists(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(testPrefs(), testVenues(), testProfile())
	ev := db.Event{Title: "Mystery Night", VenueName: "Nublu", StartAt: wednesdayNight}

	b := scorer.Score(&ev, NewSeenState())
	// baseline 7 + no-entities 3 + fresh venue 3
	if b.Novelty != 13 {
		t.Fatalf("expected novelty 13 for an unknown act at a fresh venue, got %.1f", b.Novelty)
	}
}
