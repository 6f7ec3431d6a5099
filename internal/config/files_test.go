package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const sourcesYAML = `sources:
  - name: village_vanguard
    url: https://villagevanguard.com/
    adapter: generic
    method: http
    enabled: true
    category: jazz
    extraction:
      strategy: json_ld
      default_venue: Village Vanguard
`

const venuesYAML = `venues:
  - name: Village Vanguard
    neighborhood: West Village
    lat: 40.7362
    lon: -74.0014
    vibe_tags: [legendary, intimate]
    capacity: 123
    seated: true
  - name: Blue Note
    neighborhood: Greenwich Village
    vibe_tags: [touristy]
`

const preferencesYAML = `category_weights:
  jazz: 1.0
vibe_preferences: [intimate]
home_neighborhood: West Village
`

func configDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "sources.yaml", sourcesYAML)
	writeFile(t, dir, "venues.yaml", venuesYAML)
	writeFile(t, dir, "preferences.yaml", preferencesYAML)
	return dir
}

func TestLoadSources(t *testing.T) {
	t.Parallel()

	sources, err := LoadSources(configDir(t))
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	src := sources[0]
	if src.Name != "village_vanguard" || !src.Enabled {
		t.Fatalf("unexpected source %+v", src)
	}
	if src.Extraction.Strategy != "json_ld" || src.Extraction.DefaultVenue != "Village Vanguard" {
		t.Fatalf("unexpected extraction %+v", src.Extraction)
	}
}

func TestLoadSourcesRejectsInvalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "sources.yaml", `sources:
  - url: https://nameless.example/
`)
	if _, err := LoadSources(dir); err == nil {
		t.Fatalf("expected schema rejection for a nameless source")
	}
}

func TestLoadPreferencesDefaults(t *testing.T) {
	t.Parallel()

	prefs, err := LoadPreferences(configDir(t))
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs.Selection.MinScore != 25 {
		t.Fatalf("expected default min_score 25, got %v", prefs.Selection.MinScore)
	}
	if prefs.Selection.TonightCount != 5 || prefs.Selection.WeekCount != 10 {
		t.Fatalf("unexpected selection defaults %+v", prefs.Selection)
	}
	if prefs.Selection.MaxPerVenueWeek != 2 {
		t.Fatalf("expected default max_per_venue_week 2, got %d", prefs.Selection.MaxPerVenueWeek)
	}
	if prefs.WeekdayLateCutoff != "22:30" || prefs.WeekendLateCutoff != "23:30" {
		t.Fatalf("unexpected cutoff defaults %q %q", prefs.WeekdayLateCutoff, prefs.WeekendLateCutoff)
	}
}

func TestLoadTasteProfileMissingFileIsFine(t *testing.T) {
	t.Parallel()

	profile, err := LoadTasteProfile(t.TempDir())
	if err != nil {
		t.Fatalf("LoadTasteProfile: %v", err)
	}
	if len(profile.ArtistAffinities) != 0 {
		t.Fatalf("expected empty affinities, got %+v", profile.ArtistAffinities)
	}
}

func TestVenueRegistryFind(t *testing.T) {
	t.Parallel()

	venues, err := LoadVenues(configDir(t))
	if err != nil {
		t.Fatalf("LoadVenues: %v", err)
	}

	// Fuzzy match absorbs leading articles and casing.
	venue, ok := venues.Find("The Village Vanguard")
	if !ok {
		t.Fatalf("expected a fuzzy match")
	}
	if venue.Neighborhood != "West Village" {
		t.Fatalf("unexpected venue %+v", venue)
	}

	if _, ok := venues.Find("Some Warehouse in Bushwick"); ok {
		t.Fatalf("expected no match for an unregistered venue")
	}
	if _, ok := venues.Find("  "); ok {
		t.Fatalf("expected no match for a blank name")
	}
}
