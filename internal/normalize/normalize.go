// Package normalize holds the shared helpers every source adapter relies on:
// permissive datetime parsing, content hashing for change detection, and
// deterministic event ID generation.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// datetimeLayouts is the ordered list of formats ParseDatetime tries.
// Sources publish dates in wildly inconsistent shapes; the order matters
// because the first successful parse wins.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 3:04 PM",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006",
}

// ParseDatetime tries each supported layout in order and returns the first
// successful parse. Blank input returns ok=false without being an error;
// scraped pages are full of empty date cells.
func ParseDatetime(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseDatetimeLayout parses with a single explicit layout instead of the
// default table. Adapters use this when a source has a known fixed format.
func ParseDatetimeLayout(value, layout string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || layout == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(layout, trimmed)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// ContentHash computes a 16-hex-char digest over the given field map.
// Keys are serialized in sorted order, so two events with the same visible
// content always hash identically regardless of how the map was built.
// Raw payloads must not be included by the caller.
func ContentHash(fields map[string]string) string {
	payload, err := json.Marshal(fields)
	if err != nil {
		// A map[string]string cannot fail to marshal; keep the signature simple.
		payload = []byte(fmt.Sprintf("%v", fields))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:16]
}

// MakeEventID builds a deterministic source-scoped event ID. Adapters must
// choose uniquePart from content the source itself keeps stable across
// fetches (an external ID, or venue+date+truncated title as a fallback).
func MakeEventID(sourceName, uniquePart string) string {
	return fmt.Sprintf("%s:%s", sourceName, uniquePart)
}

var (
	titlePunctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	titleSpaceRe = regexp.MustCompile(`\s+`)
)

// Title normalizes an event title for dedup comparison: lowercase, strip
// punctuation, collapse whitespace.
func Title(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = titlePunctRe.ReplaceAllString(t, "")
	t = titleSpaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
