package events

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/eventdesk/backend/internal/models"
)

// ListOptions filters and orders event listings.
type ListOptions struct {
	From         *time.Time
	To           *time.Time
	ActiveOnly   bool
	Alphabetical bool
	Descending   bool
}

// Filtered reports whether any filter is set; filtered listings skip tiering.
func (o ListOptions) Filtered() bool {
	return o.From != nil || o.To != nil || o.ActiveOnly
}

const (
	tierOpen   = 0 // deadline ahead, free seats
	tierFull   = 1 // deadline ahead, no seats
	tierClosed = 2
)

func tier(ev models.EventWithCount, now time.Time) int {
	if !ev.SignupDeadline.After(now) {
		return tierClosed
	}
	if ev.IsFull(ev.Registered) {
		return tierFull
	}
	return tierOpen
}

// Names are compared with Bulgarian collation, case-insensitive; the collator is not safe for concurrent use.
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Bulgarian, collate.IgnoreCase)
)

func latinInitial(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	c := name[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// compareNames orders Latin-initial names before the rest, then by collation.
func compareNames(a, b string) int {
	la, lb := latinInitial(a), latinInitial(b)
	if la != lb {
		if la {
			return -1
		}
		return 1
	}
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// compareDates orders undated events first.
func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

func sameOrAfterDay(t, day time.Time) bool {
	return !truncateDay(t).Before(truncateDay(day))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// filterEvents applies the date range (by calendar day, inclusive) and the active-only filter.
// Events without a date never match a date range.
func filterEvents(in []models.EventWithCount, opts ListOptions, now time.Time) []models.EventWithCount {
	out := in[:0:0]
	for _, ev := range in {
		if opts.From != nil && (ev.Date == nil || !sameOrAfterDay(*ev.Date, *opts.From)) {
			continue
		}
		if opts.To != nil && (ev.Date == nil || !sameOrAfterDay(*opts.To, *ev.Date)) {
			continue
		}
		if opts.ActiveOnly && !ev.SignupDeadline.After(now) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// orderEvents sorts in place. Unfiltered listings rank open, then full, then closed events;
// ties break by name or by date. Descending reverses the final list.
func orderEvents(evs []models.EventWithCount, opts ListOptions, now time.Time) {
	tiered := !opts.Filtered()
	sort.SliceStable(evs, func(i, j int) bool {
		a, b := evs[i], evs[j]
		if tiered {
			if ta, tb := tier(a, now), tier(b, now); ta != tb {
				return ta < tb
			}
		}
		if opts.Alphabetical {
			return compareNames(a.Name, b.Name) < 0
		}
		return compareDates(a.Date, b.Date) < 0
	})
	if opts.Descending {
		for i, j := 0, len(evs)-1; i < j; i, j = i+1, j-1 {
			evs[i], evs[j] = evs[j], evs[i]
		}
	}
}

// arrange filters, orders and projects events for listing.
func arrange(evs []models.EventWithCount, opts ListOptions, now time.Time) []models.EventSummary {
	evs = filterEvents(evs, opts, now)
	orderEvents(evs, opts, now)
	out := make([]models.EventSummary, len(evs))
	for i, ev := range evs {
		out[i] = ev.Summary()
	}
	return out
}
