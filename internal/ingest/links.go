package ingest

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultMaxPages   = 50
	defaultFetchDelay = time.Second
)

// parseFollowLinks collects per-event detail links from a listing page, then
// extracts each detail page with the configured sub strategy.
func (a *GenericAdapter) parseFollowLinks(ctx context.Context, body string) ([]NormalizedEvent, error) {
	links, err := a.collectEventLinks(body)
	if err != nil {
		return nil, err
	}

	maxPages := a.cfg.Extraction.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if len(links) > maxPages {
		links = links[:maxPages]
	}

	subStrategy := firstNonEmpty(a.cfg.Extraction.SubStrategy, strategyJSONLD)
	delay := defaultFetchDelay
	if a.cfg.Extraction.FetchDelay > 0 {
		delay = time.Duration(a.cfg.Extraction.FetchDelay * float64(time.Second))
	}

	var events []NormalizedEvent
	for i, link := range links {
		if i > 0 {
			sleepCtx(ctx, delay)
			if err := ctx.Err(); err != nil {
				return events, err
			}
		}
		page, err := a.deps.Fetcher.GetText(ctx, link)
		if err != nil {
			a.logger.Warn().Err(err).Str("source", a.cfg.Name).Str("url", link).Msg("detail page fetch failed")
			continue
		}
		parsed, err := a.parseWith(ctx, subStrategy, page)
		if err != nil {
			a.logger.Warn().Err(err).Str("source", a.cfg.Name).Str("url", link).Msg("detail page parse failed")
			continue
		}
		for _, ev := range parsed {
			if ev.TicketURL == "" {
				ev.TicketURL = link
			}
			events = append(events, ev)
		}
	}

	a.logger.Info().
		Str("source", a.cfg.Name).
		Int("link_count", len(links)).
		Int("event_count", len(events)).
		Msg("follow-links extraction done")
	return events, nil
}

// collectEventLinks returns deduplicated absolute detail URLs matching the
// configured link pattern, in page order.
func (a *GenericAdapter) collectEventLinks(body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	pattern, err := a.linkPattern()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		abs := a.resolveURL(href)
		abs = stripQueryFragment(abs)
		if !pattern.MatchString(abs) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links, nil
}

// linkPattern compiles the configured pattern, or derives one that matches a
// single path segment under the listing page's path.
func (a *GenericAdapter) linkPattern() (*regexp.Regexp, error) {
	if p := a.cfg.Extraction.LinkPattern; p != "" {
		return regexp.Compile(p)
	}
	base, err := url.Parse(a.cfg.URL)
	if err != nil {
		return nil, err
	}
	basePath := strings.TrimSuffix(base.Path, "/")
	return regexp.Compile(regexp.QuoteMeta(basePath) + `/[^/?#]+$`)
}

func stripQueryFragment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
