package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dustpunk/scout/internal/normalize"
)

// Schema.org types accepted by the JSON-LD strategy.
var jsonLDEventTypes = map[string]struct{}{
	"Event":           {},
	"MusicEvent":      {},
	"TheaterEvent":    {},
	"DanceEvent":      {},
	"ExhibitionEvent": {},
	"SocialEvent":     {},
}

var jsonLDTypeCategory = map[string]string{
	"MusicEvent":      "concert",
	"TheaterEvent":    "theatre",
	"ExhibitionEvent": "exhibition",
	"DanceEvent":      "concert",
}

// parseJSONLD extracts events from schema.org JSON-LD script tags in an HTML
// document. Unparseable script blocks are skipped, not errors.
func (a *GenericAdapter) parseJSONLD(html string) ([]NormalizedEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var events []NormalizedEvent
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}
		for _, item := range asList(data) {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if ev, ok := a.parseJSONLDItem(obj); ok {
				events = append(events, ev)
			}
		}
	})

	a.logger.Info().Str("source", a.cfg.Name).Int("event_count", len(events)).Msg("json-ld extraction done")
	return events, nil
}

func (a *GenericAdapter) parseJSONLDItem(item map[string]any) (NormalizedEvent, bool) {
	itemType := getString(item, "@type")
	if _, ok := jsonLDEventTypes[itemType]; !ok {
		return NormalizedEvent{}, false
	}

	title := strings.TrimSpace(getString(item, "name"))
	startStr := getString(item, "startDate")
	start, ok := normalize.ParseDatetime(startStr)
	if title == "" || !ok {
		// Expected noise in structured markup; drop silently.
		return NormalizedEvent{}, false
	}

	var endAt *time.Time
	if end, ok := normalize.ParseDatetime(getString(item, "endDate")); ok {
		endAt = &end
	}

	venueName, address := a.parseJSONLDLocation(item["location"])

	var entities []Entity
	for _, perf := range asList(item["performer"]) {
		switch p := perf.(type) {
		case map[string]any:
			if name := getString(p, "name"); name != "" {
				entities = append(entities, Entity{Type: "artist", Value: name})
			}
		case string:
			if p != "" {
				entities = append(entities, Entity{Type: "artist", Value: p})
			}
		}
	}

	priceMin, priceMax := parseJSONLDOffers(item["offers"])

	category := a.cfg.Category
	if category == "" {
		category = jsonLDTypeCategory[itemType]
	}

	raw, _ := json.Marshal(item)

	return NormalizedEvent{
		SourceEventID: normalize.MakeEventID(a.cfg.Name, venueName+":"+startStr+":"+truncate(title, 30)),
		Title:         title,
		Description:   getString(item, "description"),
		StartAt:       start,
		EndAt:         endAt,
		VenueName:     venueName,
		Address:       address,
		PriceMin:      priceMin,
		PriceMax:      priceMax,
		TicketURL:     getString(item, "url"),
		Category:      category,
		RawPayload:    raw,
		Entities:      entities,
	}, true
}

func (a *GenericAdapter) parseJSONLDLocation(location any) (venueName, address string) {
	switch loc := location.(type) {
	case map[string]any:
		venueName = getString(loc, "name")
		if venueName == "" {
			venueName = a.defaultVenue()
		}
		switch addr := loc["address"].(type) {
		case map[string]any:
			address = getString(addr, "streetAddress")
		case string:
			address = addr
		}
	case string:
		venueName = a.defaultVenue()
		if venueName == "" {
			venueName = loc
		}
	default:
		venueName = a.defaultVenue()
	}
	if venueName == "" {
		venueName = "Unknown Venue"
	}
	return venueName, address
}

func parseJSONLDOffers(offers any) (priceMin, priceMax *float64) {
	var offer map[string]any
	switch o := offers.(type) {
	case map[string]any:
		offer = o
	case []any:
		if len(o) > 0 {
			offer, _ = o[0].(map[string]any)
		}
	}
	if offer == nil {
		return nil, nil
	}
	if v, ok := getFloat(offer, "price"); ok {
		priceMin = &v
	} else if v, ok := getFloat(offer, "lowPrice"); ok {
		priceMin = &v
	}
	if v, ok := getFloat(offer, "highPrice"); ok {
		priceMax = &v
	}
	return priceMin, priceMax
}
