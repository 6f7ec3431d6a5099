package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
)

// Bucket windows relative to a reference time. Callers fetch the active
// events for a window and hand them to the matching selector method.
func TonightWindow(now time.Time) (time.Time, time.Time) {
	return now, now.Add(24 * time.Hour)
}

func WeekWindow(now time.Time) (time.Time, time.Time) {
	return now, now.AddDate(0, 0, 7)
}

// ComingUpWindow is the "buy tickets now" horizon: far enough out to plan,
// close enough to sell out.
func ComingUpWindow(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, 8), now.AddDate(0, 0, 90)
}

func FullWindow(now time.Time) (time.Time, time.Time) {
	return now, now.AddDate(0, 0, 90)
}

const wildcardNoveltyBoost = 3.0

// Selector applies the bucket rules on top of one scorer.
type Selector struct {
	scorer *Scorer
	sel    config.Selection
}

func NewSelector(scorer *Scorer, sel config.Selection) *Selector {
	return &Selector{scorer: scorer, sel: sel}
}

// ScoreAndRank scores every event and sorts by total descending. Sorting is
// stable so ties keep encounter order. The novelty boost scales only the
// novelty component; total is re-summed afterwards.
func (s *Selector) ScoreAndRank(events []db.Event, noveltyBoost float64) []Scored {
	seen := NewSeenState()
	scored := make([]Scored, 0, len(events))
	for i := range events {
		ev := events[i]
		b := s.scorer.Score(&ev, seen)
		if noveltyBoost != 1.0 {
			b.Novelty *= noveltyBoost
			b.Total = b.Taste + b.Convenience + b.Social + b.Novelty
		}
		scored = append(scored, Scored{Event: ev, Scores: b})
		seen.Observe(&ev)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Scores.Total > scored[j].Scores.Total
	})
	return scored
}

// Tonight picks the top events above threshold from the next 24 hours.
func (s *Selector) Tonight(events []db.Event) []Scored {
	return capCount(s.aboveThreshold(s.ScoreAndRank(events, 1.0)), s.sel.TonightCount)
}

// ThisWeek picks the week's top events above threshold, with a per-venue cap
// so one venue's residency does not crowd out the list.
func (s *Selector) ThisWeek(events []db.Event) []Scored {
	venueCounts := make(map[string]int)
	var result []Scored
	for _, sc := range s.ScoreAndRank(events, 1.0) {
		if sc.Scores.Total < s.sel.MinScore {
			continue
		}
		vn := strings.ToLower(sc.Event.VenueName)
		if venueCounts[vn] >= s.sel.MaxPerVenueWeek {
			continue
		}
		venueCounts[vn]++
		result = append(result, sc)
		if len(result) >= s.sel.WeekCount {
			break
		}
	}
	return result
}

// ComingUp picks top events eight to ninety days out, no venue cap.
func (s *Selector) ComingUp(events []db.Event) []Scored {
	return capCount(s.aboveThreshold(s.ScoreAndRank(events, 1.0)), s.sel.ComingUpCount)
}

// Wildcard re-scores the week's events with boosted novelty and returns the
// single best pick at or above threshold, or none.
func (s *Selector) Wildcard(events []db.Event) (*Scored, bool) {
	for _, sc := range s.ScoreAndRank(events, wildcardNoveltyBoost) {
		if sc.Scores.Total >= s.sel.MinScore {
			pick := sc
			return &pick, true
		}
	}
	return nil, false
}

// FullList scores everything in the ninety-day window with no threshold.
func (s *Selector) FullList(events []db.Event) []Scored {
	return s.ScoreAndRank(events, 1.0)
}

// SplitRadarLuckyDip partitions a scored list on whether an artist-based
// signal fired. Radar is re-sorted chronologically; lucky dip keeps
// score-descending order.
func SplitRadarLuckyDip(scored []Scored) (radar, luckyDip []Scored) {
	for _, sc := range scored {
		if sc.Scores.Signals["artist_affinity"] > 0 {
			radar = append(radar, sc)
		} else {
			luckyDip = append(luckyDip, sc)
		}
	}
	sort.SliceStable(radar, func(i, j int) bool {
		return radar[i].Event.StartAt.Before(radar[j].Event.StartAt)
	})
	return radar, luckyDip
}

func (s *Selector) aboveThreshold(scored []Scored) []Scored {
	var out []Scored
	for _, sc := range scored {
		if sc.Scores.Total >= s.sel.MinScore {
			out = append(out, sc)
		}
	}
	return out
}

func capCount(scored []Scored, n int) []Scored {
	if n > 0 && len(scored) > n {
		return scored[:n]
	}
	return scored
}
