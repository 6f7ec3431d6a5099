package normalize

import (
	"testing"
	"time"
)

func TestParseDatetime_ISO(t *testing.T) {
	t.Parallel()

	ts, ok := ParseDatetime("2025-03-15T20:30:00")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	want := time.Date(2025, 3, 15, 20, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("unexpected time: got %v want %v", ts, want)
	}
}

func TestParseDatetime_ISOWithZone(t *testing.T) {
	t.Parallel()

	ts, ok := ParseDatetime("2025-03-15T20:30:00Z")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if ts.Hour() != 20 || ts.Minute() != 30 {
		t.Fatalf("unexpected time: %v", ts)
	}
}

func TestParseDatetime_DateOnly(t *testing.T) {
	t.Parallel()

	ts, ok := ParseDatetime("2025-03-15")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if ts.Year() != 2025 || ts.Month() != time.March || ts.Day() != 15 {
		t.Fatalf("unexpected date: %v", ts)
	}
	if ts.Hour() != 0 || ts.Minute() != 0 {
		t.Fatalf("expected midnight, got %v", ts)
	}
}

func TestParseDatetime_USSlash(t *testing.T) {
	t.Parallel()

	ts, ok := ParseDatetime("03/15/2025 8:30 PM")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	want := time.Date(2025, 3, 15, 20, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("unexpected time: got %v want %v", ts, want)
	}
}

func TestParseDatetime_LongForm(t *testing.T) {
	t.Parallel()

	ts, ok := ParseDatetime("March 15, 2025 8:30 PM")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	want := time.Date(2025, 3, 15, 20, 30, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("unexpected time: got %v want %v", ts, want)
	}
}

func TestParseDatetime_Invalid(t *testing.T) {
	t.Parallel()

	if _, ok := ParseDatetime("not a date"); ok {
		t.Fatalf("expected parse to fail")
	}
	if _, ok := ParseDatetime(""); ok {
		t.Fatalf("expected empty input to fail without error")
	}
	if _, ok := ParseDatetime("   "); ok {
		t.Fatalf("expected blank input to fail without error")
	}
}

func TestParseDatetime_RoundTrip(t *testing.T) {
	t.Parallel()

	// One input per supported layout, in table order.
	inputs := []string{
		"2025-03-15T20:30:00.123456Z",
		"2025-03-15T20:30:00.123456-05:00",
		"2025-03-15T20:30:00",
		"2025-03-15T20:30:00Z",
		"2025-03-15T20:30:00-05:00",
		"2025-03-15 20:30:00",
		"2025-03-15 20:30",
		"2025-03-15",
		"03/15/2025 8:30 PM",
		"March 15, 2025 8:30 PM",
		"Mar 15, 2025",
	}
	for _, input := range inputs {
		first, ok := ParseDatetime(input)
		if !ok {
			t.Fatalf("parse failed for %q", input)
		}
		second, ok := ParseDatetime(first.Format(time.RFC3339Nano))
		if !ok {
			t.Fatalf("re-parse failed for %q", input)
		}
		if !first.Equal(second) {
			t.Fatalf("round trip mismatch for %q: %v vs %v", input, first, second)
		}
	}
}

func TestParseDatetimeLayout(t *testing.T) {
	t.Parallel()

	ts, ok := ParseDatetimeLayout("Sun, Feb 15, 2026", "Mon, Jan 2, 2006")
	if !ok {
		t.Fatalf("expected layout parse to succeed")
	}
	if ts.Month() != time.February || ts.Day() != 15 {
		t.Fatalf("unexpected date: %v", ts)
	}
}

func TestContentHash_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := map[string]string{"title": "Ben Monder Trio", "venue": "Village Vanguard", "start": "2025-03-15T20:30:00Z"}
	b := map[string]string{"start": "2025-03-15T20:30:00Z", "venue": "Village Vanguard", "title": "Ben Monder Trio"}

	if ContentHash(a) != ContentHash(b) {
		t.Fatalf("hash should not depend on insertion order")
	}
}

func TestContentHash_ChangesWithContent(t *testing.T) {
	t.Parallel()

	a := map[string]string{"title": "Ben Monder Trio", "venue": "Village Vanguard"}
	b := map[string]string{"title": "Ben Monder Quartet", "venue": "Village Vanguard"}

	if ContentHash(a) == ContentHash(b) {
		t.Fatalf("hash should change when a field changes")
	}
	if got := len(ContentHash(a)); got != 16 {
		t.Fatalf("expected 16-char digest, got %d", got)
	}
}

func TestMakeEventID(t *testing.T) {
	t.Parallel()

	if got := MakeEventID("smalls", "2025-03-15:late-set"); got != "smalls:2025-03-15:late-set" {
		t.Fatalf("unexpected event id: %q", got)
	}
	if MakeEventID("smalls", "x") != MakeEventID("smalls", "x") {
		t.Fatalf("event id must be deterministic")
	}
}

func TestTitle(t *testing.T) {
	t.Parallel()

	if got := Title("Ben Monder Trio"); got != "ben monder trio" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := Title("Ben Monder's Trio!!!"); got != "ben monders trio" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := Title("  Ben   Monder   Trio  "); got != "ben monder trio" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := Title("  The Jazz @ Gallery: Live! "); got != "the jazz gallery live" {
		t.Fatalf("unexpected title: %q", got)
	}
}
