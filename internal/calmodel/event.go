// Package calmodel holds the shared Event/CalendarInfo/Attendee types that
// every calendar-core component (parser, providers, store, layout) passes
// around, per spec.md §3.
package calmodel

import (
	"time"

	"github.com/watson-app/watson/internal/recurrence"
	"github.com/watson-app/watson/internal/timevalue"
)

// CalendarInfo is a value type cheaply shared between events of the same
// calendar (spec.md §3, §9: "shared immutable metadata"). It is never
// mutated after an event enters the store.
type CalendarInfo struct {
	Href  string
	Name  string
	Color string // "#RRGGBB", optional
}

// Attendee requires an email to be considered valid (spec.md §3).
type Attendee struct {
	Email       string
	DisplayName string
	Role        string
	PartStat    string
}

// Valid reports whether the attendee carries the required email field.
func (a Attendee) Valid() bool {
	return a.Email != ""
}

// Kind distinguishes a Timed event (both start and end are zoned
// datetimes) from an AllDay event (spec.md §3).
type Kind int

const (
	KindAllDay Kind = iota
	KindTimed
)

// Event is the in-memory representation of a single calendar entry,
// irrespective of whether it came from CalDAV or Google (spec.md §3).
type Event struct {
	UID string

	Title       string
	Description string
	Location    string
	URL         string
	Organizer   string

	Start timevalue.TimePoint
	End   *timevalue.TimePoint

	RecurrenceRaw string // raw RRULE string, compiled lazily/once by consumers
	RecurrenceID  *timevalue.TimePoint

	RDates  []timevalue.TimePoint
	EXDates []timevalue.TimePoint

	LastModified *time.Time
	Sequence     *int

	Attendees []Attendee

	CalendarInfo *CalendarInfo

	Kind Kind

	// Seen is a mutable UI-animation flag. It is never part of the
	// event's identity, equality, or cache bytes (spec.md §9).
	Seen bool
}

// DeriveKind returns the Kind implied by start/end, per spec.md §3: an
// event is Timed iff both start and end are zoned datetimes.
func DeriveKind(start timevalue.TimePoint, end *timevalue.TimePoint) Kind {
	if start.Kind != timevalue.KindZonedDateTime {
		return KindAllDay
	}
	if end == nil || end.Kind != timevalue.KindZonedDateTime {
		return KindAllDay
	}
	return KindTimed
}

// dateRange returns the inclusive [startDay, endDay] local calendar-date
// span a non-recurring event covers. All-day events use the RFC 5545
// end-exclusive convention (spec.md §3, §8): [d1, d2) is reported as
// occurring on d1 through d2-1 inclusive.
func (e *Event) dateRange() (time.Time, time.Time) {
	startDay := e.Start.LocalDate()
	endDay := startDay
	if e.End != nil {
		endDay = e.End.LocalDate()
	}
	if e.Kind == KindAllDay && endDay.After(startDay) {
		endDay = endDay.AddDate(0, 0, -1)
	}
	return startDay, endDay
}

// OccursOnDay answers whether this event is active on the given local
// calendar date, honoring recurrence when present (spec.md §3, §4.3, §8).
func (e *Event) OccursOnDay(day time.Time) bool {
	startDay, endDay := e.dateRange()

	if e.RecurrenceRaw != "" {
		rule := recurrence.Compile(e.RecurrenceRaw, toDates(e.RDates), toDates(e.EXDates))
		return rule.IsActiveOn(startDay, day)
	}

	return !day.Before(startDay) && !day.After(endDay)
}

func toDates(tps []timevalue.TimePoint) []time.Time {
	out := make([]time.Time, len(tps))
	for i, tp := range tps {
		out[i] = tp.LocalDate()
	}
	return out
}
