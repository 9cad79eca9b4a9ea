// Package domain contains the core data types for the activity log.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, schedule, handler).
package domain

import "time"

// DateLayout is the fixed-width, zero-padded calendar date format used for
// Activity.Date. Because it is fixed-width, lexicographic comparison of two
// dates orders them chronologically.
const DateLayout = "2006-01-02"

// Built-in categories offered by the entry form. Choosing CategoryOther means
// the user supplies free-form text that is stored in place of "Other".
const (
	CategoryHobby  = "Hobby"
	CategorySchool = "School"
	CategoryWork   = "Work"
	CategoryOther  = "Other"
)

// Activity is a single user-recorded event or task.
// Date is empty for undated activities; those are never purged.
type Activity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`     // "2006-01-02", local calendar day
	Duration    *int   `json:"duration,omitempty"` // minutes; nil when not given
	Category    string `json:"category"`
}

// HasDate reports whether the activity is scheduled on a calendar day.
func (a Activity) HasDate() bool {
	return a.Date != ""
}

// ActivityInput carries the raw fields submitted by the user for a create or
// update. Duration is the text as typed; an empty string means "not given".
// CustomCategory is only consulted when Category is CategoryOther.
type ActivityInput struct {
	Name           string
	Description    string
	Date           string
	Duration       string
	Category       string
	CustomCategory string
}

// FormatDate returns the local calendar day of t as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a "2006-01-02" date as midnight of that day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}
