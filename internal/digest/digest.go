// Package digest assembles the recommendation buckets into a rendered
// document and delivers it by email when SMTP is configured.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/dustpunk/scout/internal/config"
	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/rank"
)

// Item is one recommended event with its score and blurb.
type Item struct {
	Event       db.Event
	Scores      rank.Breakdown
	Explanation string
}

// Data is the fully assembled digest.
type Data struct {
	GeneratedAt time.Time
	Tonight     []Item
	ThisWeek    []Item
	ComingUp    []Item
	Wildcard    *Item
}

// Empty reports whether no bucket has anything to show.
func (d *Data) Empty() bool {
	return len(d.Tonight) == 0 && len(d.ThisWeek) == 0 && len(d.ComingUp) == 0 && d.Wildcard == nil
}

// Builder runs all selectors over the store's active events.
type Builder struct {
	pool      *db.Pool
	selector  *rank.Selector
	explainer *rank.Explainer
}

func NewBuilder(pool *db.Pool, prefs *config.Preferences, venues config.VenueRegistry, profile *config.TasteProfile) *Builder {
	scorer := rank.NewScorer(prefs, venues, profile)
	return &Builder{
		pool:      pool,
		selector:  rank.NewSelector(scorer, prefs.Selection),
		explainer: rank.NewExplainer(prefs, venues),
	}
}

// Build fetches each bucket's window and selects its events.
func (b *Builder) Build(ctx context.Context, now time.Time) (*Data, error) {
	b.explainer.Clear()

	tonightFrom, tonightTo := rank.TonightWindow(now)
	tonight, err := b.pool.ActiveEventsBetween(ctx, tonightFrom, tonightTo)
	if err != nil {
		return nil, fmt.Errorf("load tonight window: %w", err)
	}

	weekFrom, weekTo := rank.WeekWindow(now)
	week, err := b.pool.ActiveEventsBetween(ctx, weekFrom, weekTo)
	if err != nil {
		return nil, fmt.Errorf("load week window: %w", err)
	}

	comingFrom, comingTo := rank.ComingUpWindow(now)
	coming, err := b.pool.ActiveEventsBetween(ctx, comingFrom, comingTo)
	if err != nil {
		return nil, fmt.Errorf("load coming-up window: %w", err)
	}

	data := &Data{
		GeneratedAt: now,
		Tonight:     b.items(b.selector.Tonight(tonight)),
		ThisWeek:    b.items(b.selector.ThisWeek(week)),
		ComingUp:    b.items(b.selector.ComingUp(coming)),
	}
	if pick, ok := b.selector.Wildcard(week); ok {
		item := b.item(*pick)
		data.Wildcard = &item
	}
	return data, nil
}

// BuildFullList scores every active event in the ninety-day window, split
// into the radar and lucky-dip views.
func (b *Builder) BuildFullList(ctx context.Context, now time.Time) (radar, luckyDip []Item, err error) {
	b.explainer.Clear()

	from, to := rank.FullWindow(now)
	events, err := b.pool.ActiveEventsBetween(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load full window: %w", err)
	}
	r, l := rank.SplitRadarLuckyDip(b.selector.FullList(events))
	return b.items(r), b.items(l), nil
}

func (b *Builder) items(scored []rank.Scored) []Item {
	out := make([]Item, 0, len(scored))
	for _, sc := range scored {
		out = append(out, b.item(sc))
	}
	return out
}

func (b *Builder) item(sc rank.Scored) Item {
	return Item{
		Event:       sc.Event,
		Scores:      sc.Scores,
		Explanation: b.explainer.Explain(&sc.Event),
	}
}
