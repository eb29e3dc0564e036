// Package ical turns a raw .ics payload into calmodel.Event values. It
// unfolds RFC 5545 line folding and walks VEVENT components with
// github.com/emersion/go-ical, mapping recognized properties onto the
// shared Event model. Grounded on
// original_source/common/src/calendar/icloud/utils.rs's parse_ical and
// original_source/common/src/calendar/utils/cal_dav_event.rs's
// TryFrom<IcalEvent>, following the Decoder/Component/Props walk shown in
// sonroyaalmerol-ldap-dav/pkg/ical/recurrence.go.
package ical

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/rs/zerolog/log"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/timevalue"
)

// ParseEvents unfolds data and decodes every VEVENT it contains into a
// calmodel.Event tagged with info. A malformed VEVENT is logged at warn
// and skipped; ParseEvents never returns an error, only a (possibly
// short) slice, per spec.md §4.2/§7.
func ParseEvents(data []byte, info *calmodel.CalendarInfo) []calmodel.Event {
	unfolded := Unfold(data)

	dec := goical.NewDecoder(bytes.NewReader(unfolded))
	cal, err := dec.Decode()
	if err != nil {
		log.Warn().Err(err).Str("calendar", info.Name).Msg("ical: failed to decode calendar object")
		return nil
	}

	events := make([]calmodel.Event, 0, len(cal.Children))
	for _, child := range cal.Children {
		if child.Name != goical.CompEvent {
			continue
		}
		ev, ok := parseEvent(child, info)
		if !ok {
			log.Warn().Str("calendar", info.Name).Msg("ical: skipping malformed VEVENT")
			continue
		}
		events = append(events, ev)
	}
	return events
}

func parseEvent(comp *goical.Component, info *calmodel.CalendarInfo) (calmodel.Event, bool) {
	uid := textProp(comp, goical.PropUID)
	if uid == "" {
		return calmodel.Event{}, false
	}

	start, ok := timeProp(comp, goical.PropDateTimeStart)
	if !ok {
		return calmodel.Event{}, false
	}

	end := timePropPtr(comp, goical.PropDateTimeEnd)
	recurrenceID := timePropPtr(comp, goical.PropRecurrenceID)

	ev := calmodel.Event{
		UID:           uid,
		Title:         textProp(comp, goical.PropSummary),
		Description:   textProp(comp, goical.PropDescription),
		Location:      textProp(comp, goical.PropLocation),
		URL:           textProp(comp, goical.PropURL),
		Organizer:     organizerOf(comp),
		Start:         start,
		End:           end,
		RecurrenceRaw: textProp(comp, goical.PropRecurrenceRule),
		RecurrenceID:  recurrenceID,
		RDates:        multiTimeProp(comp, goical.PropRecurrenceDates),
		EXDates:       multiTimeProp(comp, goical.PropExceptionDates),
		LastModified:  lastModifiedOf(comp),
		Sequence:      sequenceOf(comp),
		Attendees:     attendeesOf(comp),
		CalendarInfo:  info,
	}
	ev.Kind = calmodel.DeriveKind(ev.Start, ev.End)

	return ev, true
}

func textProp(comp *goical.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

func timeProp(comp *goical.Component, name string) (timevalue.TimePoint, bool) {
	prop := comp.Props.Get(name)
	if prop == nil {
		return timevalue.TimePoint{}, false
	}
	return timevalue.ParseICal(prop.Value, prop.Params.Get("TZID"))
}

func timePropPtr(comp *goical.Component, name string) *timevalue.TimePoint {
	tp, ok := timeProp(comp, name)
	if !ok {
		return nil
	}
	return &tp
}

func multiTimeProp(comp *goical.Component, name string) []timevalue.TimePoint {
	var out []timevalue.TimePoint
	for _, prop := range comp.Props.Values(name) {
		tzid := prop.Params.Get("TZID")
		for _, raw := range strings.Split(prop.Value, ",") {
			if tp, ok := timevalue.ParseICal(raw, tzid); ok {
				out = append(out, tp)
			}
		}
	}
	return out
}

func organizerOf(comp *goical.Component) string {
	prop := comp.Props.Get(goical.PropOrganizer)
	if prop == nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(prop.Value), "mailto:")
}

func lastModifiedOf(comp *goical.Component) *time.Time {
	prop := comp.Props.Get(goical.PropLastModified)
	if prop == nil {
		return nil
	}
	t, err := time.Parse("20060102T150405Z", prop.Value)
	if err != nil {
		return nil
	}
	return &t
}

func sequenceOf(comp *goical.Component) *int {
	prop := comp.Props.Get(goical.PropSequence)
	if prop == nil {
		return nil
	}
	n, err := strconv.Atoi(prop.Value)
	if err != nil {
		return nil
	}
	return &n
}

func attendeesOf(comp *goical.Component) []calmodel.Attendee {
	var out []calmodel.Attendee
	for _, prop := range comp.Props.Values(goical.PropAttendee) {
		email := strings.TrimPrefix(strings.ToLower(prop.Value), "mailto:")
		a := calmodel.Attendee{
			Email:       email,
			DisplayName: prop.Params.Get("CN"),
			Role:        prop.Params.Get("ROLE"),
			PartStat:    prop.Params.Get("PARTSTAT"),
		}
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out
}
