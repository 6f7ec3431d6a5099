package rank

import (
	"testing"
	"time"

	"github.com/dustpunk/scout/internal/db"
)

func testSelector() *Selector {
	prefs := testPrefs()
	return NewSelector(NewScorer(prefs, testVenues(), testProfile()), prefs.Selection)
}

func TestScoreAndRankSortsByTotal(t *testing.T) {
	t.Parallel()

	sel := testSelector()
	events := []db.Event{
		artistEvent("Random Cover Band", "Tourist Bar", "other", wednesdayNight.Add(3*time.Hour)),
		artistEvent("Brad Mehldau Trio", "Village Vanguard", "jazz", wednesdayNight, "Brad Mehldau"),
	}

	scored := sel.ScoreAndRank(events, 1.0)
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored events, got %d", len(scored))
	}
	if scored[0].Event.Title != "Brad Mehldau Trio" {
		t.Fatalf("expected the Vanguard show to rank first, got %q", scored[0].Event.Title)
	}
	if scored[0].Scores.Total <= scored[1].Scores.Total {
		t.Fatalf("ranking is not descending: %.1f then %.1f", scored[0].Scores.Total, scored[1].Scores.Total)
	}
}

func TestThisWeekPerVenueCap(t *testing.T) {
	t.Parallel()

	sel := testSelector()

	// A week-long Vanguard residency plus one Smalls gig. All score well.
	var events []db.Event
	for day := 0; day < 5; day++ {
		events = append(events, artistEvent(
			"Brad Mehldau Trio", "Village Vanguard", "jazz",
			wednesdayNight.AddDate(0, 0, day), "Brad Mehldau"))
	}
	events = append(events, artistEvent(
		"Immanuel Wilkins Quartet", "Smalls Jazz Club", "jazz",
		wednesdayNight.Add(2*time.Hour), "Immanuel Wilkins"))

	picks := sel.ThisWeek(events)

	vanguard := 0
	for _, p := range picks {
		if p.Event.VenueName == "Village Vanguard" {
			vanguard++
		}
	}
	if vanguard > 2 {
		t.Fatalf("expected at most 2 Vanguard picks, got %d", vanguard)
	}
	found := false
	for _, p := range picks {
		if p.Event.VenueName == "Smalls Jazz Club" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the Smalls gig to make the list despite lower score")
	}
}

func TestTonightThresholdAndCap(t *testing.T) {
	t.Parallel()

	sel := testSelector()

	var events []db.Event
	for i := 0; i < 8; i++ {
		events = append(events, artistEvent(
			"Brad Mehldau Trio", "Village Vanguard", "jazz",
			wednesdayNight.Add(time.Duration(i)*time.Minute), "Brad Mehldau"))
	}

	picks := sel.Tonight(events)
	if len(picks) != 5 {
		t.Fatalf("expected tonight capped at 5, got %d", len(picks))
	}

	// Nothing above threshold yields an empty bucket, not an error.
	prefs := testPrefs()
	prefs.Selection.MinScore = 90
	strict := NewSelector(NewScorer(prefs, testVenues(), testProfile()), prefs.Selection)
	dud := []db.Event{artistEvent("Tourist Trap Revue", "Blue Note", "other", wednesdayNight.Add(4*time.Hour))}
	if picks := strict.Tonight(dud); len(picks) != 0 {
		t.Fatalf("expected no picks below threshold, got %d", len(picks))
	}
}

func TestWildcard(t *testing.T) {
	t.Parallel()

	sel := testSelector()

	if _, ok := sel.Wildcard(nil); ok {
		t.Fatalf("expected no wildcard from an empty window")
	}

	events := []db.Event{
		artistEvent("Brad Mehldau Trio", "Village Vanguard", "jazz", wednesdayNight, "Brad Mehldau"),
		artistEvent("Mystery Loft Session", "Nublu", "concert", wednesdayNight.Add(26*time.Hour)),
	}
	pick, ok := sel.Wildcard(events)
	if !ok {
		t.Fatalf("expected a wildcard pick")
	}
	if pick.Scores.Novelty <= 15 {
		t.Fatalf("expected boosted novelty above the normal clamp, got %.1f", pick.Scores.Novelty)
	}
	wantTotal := pick.Scores.Taste + pick.Scores.Convenience + pick.Scores.Social + pick.Scores.Novelty
	if pick.Scores.Total != wantTotal {
		t.Fatalf("total %.1f not re-summed after boost (want %.1f)", pick.Scores.Total, wantTotal)
	}
}

func TestSplitRadarLuckyDip(t *testing.T) {
	t.Parallel()

	sel := testSelector()
	events := []db.Event{
		artistEvent("Brad Mehldau Trio", "Village Vanguard", "jazz", wednesdayNight.Add(48*time.Hour), "Brad Mehldau"),
		artistEvent("Mystery Loft Session", "Nublu", "concert", wednesdayNight),
		artistEvent("Brad Mehldau Solo", "Smalls Jazz Club", "jazz", wednesdayNight, "Brad Mehldau"),
	}

	radar, luckyDip := SplitRadarLuckyDip(sel.FullList(events))

	if len(radar) != 2 {
		t.Fatalf("expected 2 radar events, got %d", len(radar))
	}
	if len(luckyDip) != 1 {
		t.Fatalf("expected 1 lucky dip event, got %d", len(luckyDip))
	}
	if !radar[0].Event.StartAt.Before(radar[1].Event.StartAt) {
		t.Fatalf("expected radar sorted chronologically")
	}
	for _, sc := range luckyDip {
		if sc.Scores.Signals["artist_affinity"] > 0 {
			t.Fatalf("lucky dip should only hold events with no artist signal")
		}
	}
}
