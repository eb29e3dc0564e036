// Package timevalue implements the date-only vs. datetime-with-zone union
// (spec.md §3-4.1) and its conversion to an absolute UTC instant.
package timevalue

import (
	"strings"
	"time"
)

// Kind discriminates the two TimePoint shapes.
type Kind int

const (
	KindDateOnly Kind = iota
	KindZonedDateTime
)

// TimePoint is either a bare calendar date or a naive datetime paired with
// an optional IANA zone id ("" or "UTC" both mean UTC/floating-as-UTC).
type TimePoint struct {
	Kind Kind

	// Valid when Kind == KindDateOnly.
	Date time.Time // Y-M-D at midnight, UTC location, used only for its date fields.

	// Valid when Kind == KindZonedDateTime.
	Naive time.Time // Y-M-D-h-m-s, location-agnostic wall time.
	TZID  string
}

// DateOnly builds a date-only TimePoint.
func DateOnly(year int, month time.Month, day int) TimePoint {
	return TimePoint{Kind: KindDateOnly, Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Zoned builds a zoned-datetime TimePoint. tzid == "" means floating/local,
// resolved as UTC by UTC().
func Zoned(naive time.Time, tzid string) TimePoint {
	return TimePoint{Kind: KindZonedDateTime, Naive: naive, TZID: tzid}
}

// ParseICal parses a raw iCalendar value (DTSTART/DTEND/RECURRENCE-ID/
// RDATE/EXDATE/UNTIL component) per spec.md §4.1:
//   - an 8-character value (YYYYMMDD) is DateOnly
//   - a trailing 'Z' means ZonedDateTime with tzid "UTC"
//   - otherwise ZonedDateTime; tzid comes from the TZID param (may be "")
func ParseICal(value, tzidParam string) (TimePoint, bool) {
	if len(value) == 8 {
		d, err := time.Parse("20060102", value)
		if err != nil {
			return TimePoint{}, false
		}
		return DateOnly(d.Year(), d.Month(), d.Day()), true
	}

	if strings.HasSuffix(value, "Z") {
		naive, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return TimePoint{}, false
		}
		return Zoned(naive, "UTC"), true
	}

	naive, err := time.Parse("20060102T150405", value)
	if err != nil {
		return TimePoint{}, false
	}
	return Zoned(naive, tzidParam), true
}

// ParseGoogle builds a TimePoint from Google Calendar's untagged
// start/end union: exactly one of dateTime (RFC3339, zone-aware) or
// date (YYYY-MM-DD) is set, mirroring
// original_source/common/src/calendar/google/fetch.rs's
// GoogleEventDateTime enum.
func ParseGoogle(dateTime, date string) (TimePoint, bool) {
	if dateTime != "" {
		t, err := time.Parse(time.RFC3339, dateTime)
		if err != nil {
			return TimePoint{}, false
		}
		// Google's dateTime carries its own offset; normalize to an
		// absolute UTC instant immediately rather than trying to
		// preserve a non-IANA numeric offset as a TZID.
		u := t.UTC()
		return Zoned(time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), 0, time.UTC), "UTC"), true
	}
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return TimePoint{}, false
		}
		return DateOnly(d.Year(), d.Month(), d.Day()), true
	}
	return TimePoint{}, false
}

// UTC resolves the TimePoint to an absolute UTC instant, per spec.md §4.1.
// For a zoned value, it prefers the unambiguous local resolution in the
// named zone and otherwise deterministically reconstructs the instant from
// the Y-M-D-h-m-s fields via time.Date, which never errors on an ambiguous
// or skipped wall clock — exactly the "deterministic reconstruction"
// spec.md calls for.
func (t TimePoint) UTC() time.Time {
	switch t.Kind {
	case KindDateOnly:
		return time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, time.UTC)
	case KindZonedDateTime:
		loc := time.UTC
		if t.TZID != "" && t.TZID != "UTC" {
			if l, err := time.LoadLocation(t.TZID); err == nil {
				loc = l
			}
		}
		n := t.Naive
		return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, loc).UTC()
	default:
		return time.Time{}
	}
}

// LocalDate returns the calendar date (in the local system zone) this
// TimePoint falls on, used for day-of comparisons (occurs_on_day etc).
func (t TimePoint) LocalDate() time.Time {
	local := t.UTC().In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}
