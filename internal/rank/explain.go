package rank

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
)

// Explainer produces short one-paragraph blurbs for recommended events.
// Explanations are cached per event within one batch build; callers reset
// the cache with Clear before each build so field changes from later
// ingest passes show up.
type Explainer struct {
	prefs  *config.Preferences
	venues config.VenueRegistry

	mu    sync.Mutex
	cache map[string]string
}

func NewExplainer(prefs *config.Preferences, venues config.VenueRegistry) *Explainer {
	return &Explainer{prefs: prefs, venues: venues, cache: make(map[string]string)}
}

// Clear drops all cached explanations. Called at the start of each batch
// build so blurbs reflect the current event rows.
func (x *Explainer) Clear() {
	x.mu.Lock()
	x.cache = make(map[string]string)
	x.mu.Unlock()
}

func (x *Explainer) Explain(ev *db.Event) string {
	key := strconv.FormatInt(ev.EventID, 10) + ":" + ev.Title
	x.mu.Lock()
	cached, ok := x.cache[key]
	x.mu.Unlock()
	if ok {
		return cached
	}

	explanation := x.template(ev)

	x.mu.Lock()
	x.cache[key] = explanation
	x.mu.Unlock()
	return explanation
}

func (x *Explainer) template(ev *db.Event) string {
	var vibes []string
	if venue, ok := x.venues.Find(ev.VenueName); ok {
		vibes = venue.VibeTags
	}

	vibeDesc := "cool"
	switch {
	case hasTag(vibes, "intimate"):
		vibeDesc = "intimate"
	case hasTag(vibes, "elegant"):
		vibeDesc = "elegant"
	case hasTag(vibes, "legendary"):
		vibeDesc = "legendary"
	case len(vibes) > 0:
		vibeDesc = vibes[0]
	}

	catLabel := "venue"
	switch ev.Category {
	case "jazz":
		catLabel = "jazz spot"
	case "exhibition":
		catLabel = "exhibition space"
	case "concert":
		catLabel = "music venue"
	}

	neighborhood := ev.Neighborhood
	if neighborhood == "" {
		neighborhood = "NYC"
	}

	timeStr := strings.TrimPrefix(ev.StartAt.Format("3:04 PM"), "0")

	priceStr := ""
	if ev.PriceMin != nil {
		priceStr = fmt.Sprintf(" ($%.0f)", *ev.PriceMin)
	}

	hood := strings.ToLower(neighborhood)
	var travelNote string
	switch {
	case hood == strings.ToLower(x.prefs.HomeNeighborhood):
		travelNote = "Right in your neighborhood."
	case containsFold(x.prefs.CloseNeighborhoods, hood):
		travelNote = "Easy walk from home."
	default:
		travelNote = fmt.Sprintf("Over in %s.", neighborhood)
	}

	socialNote := ""
	if hasTag(vibes, "date-friendly") {
		socialNote = " Great date spot."
	} else if hasTag(vibes, "listening-room") {
		socialNote = " Serious listening room, come for the music."
	}

	headliner := ev.Title
	if artists := ev.ArtistNames(); len(artists) > 0 {
		headliner = artists[0]
	}

	return fmt.Sprintf("%s is a %s %s in %s. %s at %s%s. %s%s",
		ev.VenueName, vibeDesc, catLabel, neighborhood,
		headliner, timeStr, priceStr, travelNote, socialNote)
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
