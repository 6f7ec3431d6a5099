package rank

import (
	"strings"
	"testing"
)

func TestExplainTemplate(t *testing.T) {
	t.Parallel()

	x := NewExplainer(testPrefs(), testVenues())
	ev := artistEvent("Brad Mehldau Trio", "Village Vanguard", "jazz", wednesdayNight, "Brad Mehldau")
	ev.EventID = 7
	ev.Neighborhood = "West Village"
	price := 40.0
	ev.PriceMin = &price

	got := x.Explain(&ev)
	for _, want := range []string{
		"Village Vanguard",
		"intimate",
		"jazz spot",
		"West Village",
		"Brad Mehldau",
		"8:00 PM",
		"($40)",
		"Right in your neighborhood.",
		"Great date spot.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("explanation missing %q:\n%s", want, got)
		}
	}
}

func TestExplainCachesPerEvent(t *testing.T) {
	t.Parallel()

	x := NewExplainer(testPrefs(), testVenues())
	ev := artistEvent("Brad Mehldau Trio", "Village Vanguard", "jazz", wednesdayNight, "Brad Mehldau")
	ev.EventID = 7

	first := x.Explain(&ev)

	// A changed field does not bust the cache within one build.
	ev.Neighborhood = "Harlem"
	second := x.Explain(&ev)
	if first != second {
		t.Fatalf("expected cached explanation, got a recompute")
	}
}

func TestExplainClearDropsCachedBlurbs(t *testing.T) {
	t.Parallel()

	x := NewExplainer(testPrefs(), testVenues())
	ev := artistEvent("Brad Mehldau Trio", "Village Vanguard", "jazz", wednesdayNight, "Brad Mehldau")
	ev.EventID = 7
	ev.Neighborhood = "West Village"

	first := x.Explain(&ev)
	if !strings.Contains(first, "Right in your neighborhood.") {
		t.Fatalf("expected home-neighborhood copy, got:\n%s", first)
	}

	// An ingest pass moved the event; the next build must see the new row.
	ev.Neighborhood = "Harlem"
	x.Clear()
	second := x.Explain(&ev)
	if second == first {
		t.Fatalf("expected a recompute after Clear, got the cached explanation")
	}
	if !strings.Contains(second, "Over in Harlem.") {
		t.Fatalf("expected updated neighborhood copy, got:\n%s", second)
	}
}

func TestExplainUnknownVenue(t *testing.T) {
	t.Parallel()

	x := NewExplainer(testPrefs(), testVenues())
	ev := artistEvent("Secret Session", "Warehouse 23", "concert", wednesdayNight)
	ev.EventID = 9

	got := x.Explain(&ev)
	if !strings.Contains(got, "cool music venue in NYC") {
		t.Fatalf("expected generic fallback copy, got:\n%s", got)
	}
	if !strings.Contains(got, "Secret Session") {
		t.Fatalf("expected title fallback when no performers, got:\n%s", got)
	}
}
