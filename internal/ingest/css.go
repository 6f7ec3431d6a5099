package ingest

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dustpunk/scout/internal/normalize"
)

const (
	defaultContainerSelector = "article"
	defaultTitleSelector     = "h2, h3"
	defaultDateSelector      = "time, .date, .event-date"
	defaultVenueSelector     = ".venue, .venue-name"
)

// parseCSS extracts events using per-source CSS selectors. Containers that
// lack a title or parseable start time are skipped.
func (a *GenericAdapter) parseCSS(html string) ([]NormalizedEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	ext := a.cfg.Extraction
	container := firstNonEmpty(ext.Container, defaultContainerSelector)
	titleSel := firstNonEmpty(ext.Title, defaultTitleSelector)
	dateSel := firstNonEmpty(ext.Date, defaultDateSelector)
	venueSel := firstNonEmpty(ext.Venue, defaultVenueSelector)

	var events []NormalizedEvent
	doc.Find(container).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(titleSel).First().Text())
		if title == "" {
			return
		}

		dateNode := sel.Find(dateSel).First()
		dateText, hasAttr := dateNode.Attr("datetime")
		if !hasAttr {
			dateText = dateNode.Text()
		}
		start, ok := normalize.ParseDatetime(strings.TrimSpace(dateText))
		if !ok {
			return
		}

		venueName := strings.TrimSpace(sel.Find(venueSel).First().Text())
		if venueName == "" {
			venueName = a.defaultVenue()
		}
		if venueName == "" {
			venueName = "Unknown Venue"
		}

		ticketURL := ""
		if href, ok := sel.Find("a[href]").First().Attr("href"); ok {
			ticketURL = a.resolveURL(href)
		}

		raw, _ := json.Marshal(map[string]string{
			"title": title,
			"date":  dateText,
			"venue": venueName,
		})

		events = append(events, NormalizedEvent{
			SourceEventID: normalize.MakeEventID(a.cfg.Name, venueName+":"+start.Format("2006-01-02T15:04")+":"+truncate(title, 30)),
			Title:         title,
			StartAt:       start,
			VenueName:     venueName,
			TicketURL:     ticketURL,
			Category:      a.cfg.Category,
			RawPayload:    raw,
		})
	})

	a.logger.Info().Str("source", a.cfg.Name).Int("event_count", len(events)).Msg("css extraction done")
	return events, nil
}

// resolveURL joins a possibly relative href against the source page URL.
func (a *GenericAdapter) resolveURL(href string) string {
	base, err := url.Parse(a.cfg.URL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
