package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one event source from sources.yaml.
type SourceConfig struct {
	Name       string     `yaml:"name"`
	URL        string     `yaml:"url"`
	Adapter    string     `yaml:"adapter"`
	Method     string     `yaml:"method"` // http, browser, api
	Enabled    bool       `yaml:"enabled"`
	Category   string     `yaml:"category"`
	Extraction Extraction `yaml:"extraction"`
}

// Extraction carries the strategy-specific parameters of the generic adapter.
type Extraction struct {
	Strategy     string  `yaml:"strategy"` // json_ld, ics, css_selectors, follow_links
	DefaultVenue string  `yaml:"default_venue"`
	Container    string  `yaml:"container"`
	Title        string  `yaml:"title"`
	Date         string  `yaml:"date"`
	Venue        string  `yaml:"venue"`
	LinkPattern  string  `yaml:"link_pattern"`
	MaxPages     int     `yaml:"max_pages"`
	SubStrategy  string  `yaml:"sub_strategy"`
	FetchDelay   float64 `yaml:"fetch_delay"` // seconds between sub-page fetches
}

// Venue is one entry from venues.yaml. Registry order is significant: fuzzy
// matching stops at the first entry above threshold, not the best one.
type Venue struct {
	Name         string   `yaml:"name"`
	Neighborhood string   `yaml:"neighborhood"`
	Lat          *float64 `yaml:"lat"`
	Lon          *float64 `yaml:"lon"`
	VibeTags     []string `yaml:"vibe_tags"`
	Capacity     int      `yaml:"capacity"`
	Seated       bool     `yaml:"seated"`
}

// VenueRegistry is the ordered venue list from venues.yaml.
type VenueRegistry []Venue

// venueMatchThreshold is shared by venue dedup and enrichment lookups.
const venueMatchThreshold = 85

// Find fuzzy-matches a venue name against the registry and returns the first
// entry scoring above the threshold. A miss is not an error.
func (r VenueRegistry) Find(venueName string) (*Venue, bool) {
	needle := strings.ToLower(strings.TrimSpace(venueName))
	if needle == "" {
		return nil, false
	}
	for i := range r {
		if fuzzy.Ratio(needle, strings.ToLower(r[i].Name)) > venueMatchThreshold {
			return &r[i], true
		}
	}
	return nil, false
}

// VenueBoost pairs a venue name with its reputation boost. Kept as an ordered
// list: the reputation signal returns the first fuzzy match.
type VenueBoost struct {
	Name  string  `yaml:"name"`
	Boost float64 `yaml:"boost"`
}

// Selection holds the per-bucket counts and score threshold.
type Selection struct {
	MinScore        float64 `yaml:"min_score"`
	TonightCount    int     `yaml:"tonight_count"`
	WeekCount       int     `yaml:"week_count"`
	ComingUpCount   int     `yaml:"coming_up_count"`
	MaxPerVenueWeek int     `yaml:"max_per_venue_week"`
}

// Preferences is the taste/convenience preference document.
type Preferences struct {
	CategoryWeights    map[string]float64 `yaml:"category_weights"`
	VenueBoosts        []VenueBoost       `yaml:"venue_boosts"`
	VibePreferences    []string           `yaml:"vibe_preferences"`
	HomeNeighborhood   string             `yaml:"home_neighborhood"`
	CloseNeighborhoods []string           `yaml:"close_neighborhoods"`
	NearNeighborhoods  []string           `yaml:"near_neighborhoods"`
	WeekdayLateCutoff  string             `yaml:"weekday_late_cutoff"`
	WeekendLateCutoff  string             `yaml:"weekend_late_cutoff"`
	Selection          Selection          `yaml:"selection"`
}

// TasteProfile carries learned artist affinities (0-1), maintained outside
// this pipeline and consumed read-only by the artist affinity signal.
type TasteProfile struct {
	ArtistAffinities map[string]float64 `yaml:"artist_affinities"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

type venuesFile struct {
	Venues []Venue `yaml:"venues"`
}

// LoadSources reads and validates sources.yaml from dir.
func LoadSources(dir string) ([]SourceConfig, error) {
	var doc sourcesFile
	if err := loadYAML(filepath.Join(dir, "sources.yaml"), sourcesSchema, &doc); err != nil {
		return nil, err
	}
	return doc.Sources, nil
}

// LoadVenues reads and validates venues.yaml from dir.
func LoadVenues(dir string) (VenueRegistry, error) {
	var doc venuesFile
	if err := loadYAML(filepath.Join(dir, "venues.yaml"), venuesSchema, &doc); err != nil {
		return nil, err
	}
	return VenueRegistry(doc.Venues), nil
}

// LoadPreferences reads and validates preferences.yaml, applying defaults for
// any selection knob left unset.
func LoadPreferences(dir string) (*Preferences, error) {
	var prefs Preferences
	if err := loadYAML(filepath.Join(dir, "preferences.yaml"), preferencesSchema, &prefs); err != nil {
		return nil, err
	}
	prefs.applyDefaults()
	return &prefs, nil
}

// LoadTasteProfile reads taste_profile.yaml. A missing file is not an error:
// the artist affinity signal simply contributes nothing.
func LoadTasteProfile(dir string) (*TasteProfile, error) {
	path := filepath.Join(dir, "taste_profile.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &TasteProfile{}, nil
	}
	var profile TasteProfile
	if err := loadYAML(path, "", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *Preferences) applyDefaults() {
	if p.Selection.MinScore == 0 {
		p.Selection.MinScore = 25
	}
	if p.Selection.TonightCount == 0 {
		p.Selection.TonightCount = 5
	}
	if p.Selection.WeekCount == 0 {
		p.Selection.WeekCount = 10
	}
	if p.Selection.ComingUpCount == 0 {
		p.Selection.ComingUpCount = 5
	}
	if p.Selection.MaxPerVenueWeek == 0 {
		p.Selection.MaxPerVenueWeek = 2
	}
	if strings.TrimSpace(p.WeekdayLateCutoff) == "" {
		p.WeekdayLateCutoff = "22:30"
	}
	if strings.TrimSpace(p.WeekendLateCutoff) == "" {
		p.WeekendLateCutoff = "23:30"
	}
}

func loadYAML(path, schemaJSON string, out any) (err error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if schemaJSON != "" {
		if err := validateDocument(filepath.Base(path), schemaJSON, payload); err != nil {
			return err
		}
	}
	if err := yaml.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
