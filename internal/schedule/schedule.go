// Package schedule decides which activities are expired, which are imminent,
// and in what order they are listed. It also owns the midnight rollover
// timer that re-applies expiry once per local calendar day.
package schedule

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/pkordes/activity-log/internal/domain"
)

// ImminentWindow is how far ahead of now a dated activity counts as imminent.
const ImminentWindow = 48 * time.Hour

// PurgeExpired returns the activities that are undated or dated today or
// later. today is a "2006-01-02" string; plain string comparison is correct
// because the format is fixed-width and zero-padded. The input is not modified.
func PurgeExpired(list []domain.Activity, today string) []domain.Activity {
	return lo.Filter(list, func(a domain.Activity, _ int) bool {
		return !a.HasDate() || a.Date >= today
	})
}

// IsImminent reports whether a is due on now's calendar day, or its date
// (taken as local midnight in now's location) lies strictly between now and
// now+48h. Undated activities and unparsable dates are never imminent.
func IsImminent(a domain.Activity, now time.Time) bool {
	if !a.HasDate() {
		return false
	}
	if a.Date == domain.FormatDate(now) {
		return true
	}
	due, err := domain.ParseDate(a.Date, now.Location())
	if err != nil {
		return false
	}
	delta := due.Sub(now)
	return delta > 0 && delta < ImminentWindow
}

// Order returns a copy of list sorted for display: imminent activities first,
// then within each tier dated activities by ascending date followed by
// undated ones. Equal keys keep their input order.
func Order(list []domain.Activity, now time.Time) []domain.Activity {
	type keyed struct {
		a        domain.Activity
		imminent bool
	}
	rows := make([]keyed, len(list))
	for i, a := range list {
		rows[i] = keyed{a: a, imminent: IsImminent(a, now)}
	}

	slices.SortStableFunc(rows, func(x, y keyed) int {
		if x.imminent != y.imminent {
			if x.imminent {
				return -1
			}
			return 1
		}
		switch {
		case x.a.HasDate() && !y.a.HasDate():
			return -1
		case !x.a.HasDate() && y.a.HasDate():
			return 1
		case x.a.Date < y.a.Date:
			return -1
		case x.a.Date > y.a.Date:
			return 1
		}
		return 0
	})

	out := make([]domain.Activity, len(rows))
	for i, r := range rows {
		out[i] = r.a
	}
	return out
}

// NextMidnight returns the start of the local calendar day after t.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
