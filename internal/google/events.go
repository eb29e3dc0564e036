package google

import (
	"strings"
	"time"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/timevalue"
)

type eventListResponse struct {
	Items []eventEntry `json:"items"`
}

// eventEntry mirrors fetch.rs's GoogleCalendarEvent, including the
// untagged start/end dateTime-or-date union.
type eventEntry struct {
	ID          string          `json:"id"`
	Title       string          `json:"summary"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Start       *eventDateTime  `json:"start"`
	End         *eventDateTime  `json:"end"`
	Recurrence  []string        `json:"recurrence"`
	LastModified *time.Time     `json:"updated"`
	Organizer   *eventUser      `json:"organizer"`
	Attendees   []eventUser     `json:"attendees"`
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type eventUser struct {
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	Organizer    bool   `json:"organizer"`
	PartStat     string `json:"responseStatus"`
}

func (d *eventDateTime) timePoint() *timevalue.TimePoint {
	if d == nil {
		return nil
	}
	tp, ok := timevalue.ParseGoogle(d.DateTime, d.Date)
	if !ok {
		return nil
	}
	return &tp
}

// toEvent maps a single Google event entry onto the shared Event
// model, per fetch.rs's GoogleCalendarEvent::to_cal_dav_event:
// title defaults to "Untitled Event", only the first recurrence rule
// string is kept, and attendee role is Organizer/Attendee based on the
// organizer flag.
func (e eventEntry) toEvent(info *calmodel.CalendarInfo) calmodel.Event {
	title := e.Title
	if title == "" {
		title = "Untitled Event"
	}

	start := e.Start.timePoint()
	end := e.End.timePoint()

	var startTP timevalue.TimePoint
	if start != nil {
		startTP = *start
	}

	var recurrence string
	if len(e.Recurrence) > 0 {
		recurrence = e.Recurrence[0]
	}

	var organizer string
	if e.Organizer != nil {
		organizer = e.Organizer.DisplayName
	}

	ev := calmodel.Event{
		UID:           e.ID,
		Title:         title,
		Description:   e.Description,
		Location:      e.Location,
		Organizer:     organizer,
		Start:         startTP,
		End:           end,
		RecurrenceRaw: recurrence,
		LastModified:  e.LastModified,
		Attendees:     attendeesOf(e.Attendees),
		CalendarInfo:  info,
	}
	ev.Kind = calmodel.DeriveKind(ev.Start, ev.End)
	return ev
}

func attendeesOf(users []eventUser) []calmodel.Attendee {
	if len(users) == 0 {
		return nil
	}
	out := make([]calmodel.Attendee, 0, len(users))
	for _, u := range users {
		role := "Attendee"
		if u.Organizer {
			role = "Organizer"
		}
		a := calmodel.Attendee{
			Email:       strings.TrimSpace(u.Email),
			DisplayName: u.DisplayName,
			Role:        role,
			PartStat:    u.PartStat,
		}
		if a.Valid() {
			out = append(out, a)
		}
	}
	return out
}
