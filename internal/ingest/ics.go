package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/dustpunk/scout/internal/normalize"
)

const (
	icsHorizon          = 90 * 24 * time.Hour
	icsOccurrenceCap    = 50
	icsFallbackCategory = "jazz"
)

// parseICS resolves a calendar feed from the fetched page and expands its
// events, including RRULE recurrences, into the upcoming window.
func (a *GenericAdapter) parseICS(ctx context.Context, body string) ([]NormalizedEvent, error) {
	payload := body
	if !strings.HasPrefix(strings.TrimSpace(body), "BEGIN:VCALENDAR") {
		feedURL, ok := findCalendarLink(body, a.cfg.URL)
		if !ok {
			return nil, fmt.Errorf("no calendar feed link on %s", a.cfg.URL)
		}
		fetched, err := a.deps.Fetcher.GetText(ctx, feedURL)
		if err != nil {
			return nil, fmt.Errorf("fetch calendar feed: %w", err)
		}
		payload = fetched
	}

	cal, err := ics.ParseCalendar(strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	now := time.Now().UTC()
	until := now.Add(icsHorizon)

	category := a.cfg.Category
	if category == "" {
		category = icsFallbackCategory
	}

	var events []NormalizedEvent
	for _, item := range cal.Events() {
		summary := propValue(item, ics.ComponentPropertySummary)
		if summary == "" {
			continue
		}
		start, err := item.GetStartAt()
		if err != nil {
			continue
		}

		venueName := propValue(item, ics.ComponentPropertyLocation)
		if venueName == "" {
			venueName = a.defaultVenue()
		}
		if venueName == "" {
			venueName = "Unknown Venue"
		}

		var duration time.Duration
		if end, err := item.GetEndAt(); err == nil && end.After(start) {
			duration = end.Sub(start)
		}

		uid := propValue(item, ics.ComponentPropertyUniqueId)
		if uid == "" {
			uid = venueName + ":" + truncate(summary, 30)
		}

		for _, occ := range occurrences(item, start, now, until) {
			var endAt *time.Time
			if duration > 0 {
				end := occ.Add(duration)
				endAt = &end
			}
			raw, _ := json.Marshal(map[string]string{
				"uid":     uid,
				"summary": summary,
				"start":   occ.Format(time.RFC3339),
			})
			events = append(events, NormalizedEvent{
				SourceEventID: normalize.MakeEventID(a.cfg.Name, uid+":"+occ.Format("2006-01-02T15:04")),
				Title:         summary,
				Description:   propValue(item, ics.ComponentPropertyDescription),
				StartAt:       occ,
				EndAt:         endAt,
				VenueName:     venueName,
				TicketURL:     propValue(item, ics.ComponentPropertyUrl),
				Category:      category,
				RawPayload:    raw,
			})
		}
	}

	a.logger.Info().Str("source", a.cfg.Name).Int("event_count", len(events)).Msg("ics extraction done")
	return events, nil
}

// occurrences expands a recurring event into concrete start times within the
// window, or returns the single start when no RRULE applies.
func occurrences(item *ics.VEvent, start, from, until time.Time) []time.Time {
	ruleText := propValue(item, ics.ComponentPropertyRrule)
	if ruleText == "" {
		if start.Before(from) || !start.Before(until) {
			return nil
		}
		return []time.Time{start}
	}

	opt, err := rrule.StrToROption(ruleText)
	if err != nil {
		return []time.Time{start}
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return []time.Time{start}
	}

	times := rule.Between(from, until, true)
	if len(times) > icsOccurrenceCap {
		times = times[:icsOccurrenceCap]
	}
	return times
}

func propValue(item *ics.VEvent, prop ics.ComponentProperty) string {
	if p := item.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// findCalendarLink scans page markup for an iCalendar feed reference.
func findCalendarLink(body, pageURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find(`link[href], a[href]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if strings.HasSuffix(lower, ".ics") || strings.Contains(lower, "ical") || strings.HasPrefix(lower, "webcal:") {
			found = href
			return false
		}
		return true
	})
	if found == "" {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(found), "webcal://") {
		found = "https://" + found[len("webcal://"):]
	}
	return resolveAgainst(pageURL, found), true
}
