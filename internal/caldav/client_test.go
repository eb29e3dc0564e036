package caldav

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/credstore"
)

const principalResponse = `<?xml version="1.0"?>
<multistatus xmlns="DAV:">
  <response>
    <href>/123456/</href>
    <propstat>
      <prop>
        <current-user-principal><href>/123456/principal/</href></current-user-principal>
      </prop>
    </propstat>
  </response>
</multistatus>`

const calendarsResponse = `<?xml version="1.0"?>
<multistatus xmlns="DAV:">
  <response>
    <href>/123456/calendars/home/</href>
    <propstat>
      <prop>
        <displayname>Home</displayname>
        <resourcetype><collection/></resourcetype>
        <calendar-color>#FF0000</calendar-color>
      </prop>
    </propstat>
  </response>
</multistatus>`

const reportResponse = `<?xml version="1.0"?>
<multistatus xmlns="DAV:">
  <response>
    <href>/123456/calendars/home/demo.ics</href>
    <propstat>
      <prop>
        <calendar-data>BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
UID:demo-uid@example.com
SUMMARY:Demo
DTSTART:20240101T090000Z
DTEND:20240101T100000Z
END:VEVENT
END:VCALENDAR
</calendar-data>
      </prop>
    </propstat>
  </response>
</multistatus>`

func TestPrincipalAndCalendarsAndEventsAgainstFakeServer(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "PROPFIND" && r.URL.Path == "/":
			fmt.Fprint(w, principalResponse)
		case r.Method == "PROPFIND":
			fmt.Fprint(w, calendarsResponse)
		case r.Method == "REPORT":
			fmt.Fprint(w, reportResponse)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cred := credstore.New("u@x", "p", credstore.ServiceICloud, "")
	client := newWithBase(&cred, server.URL)
	require.NoError(t, client.Init(ctx))
	assert.Equal(t, "123456", client.principal)

	calendars, err := client.ListCalendars(ctx)
	require.NoError(t, err)
	require.Len(t, calendars, 1)
	assert.Equal(t, "Home", calendars[0].Name)
	assert.Equal(t, "#FF0000", calendars[0].Color)

	events, err := client.FetchEvents(ctx, calendars)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "demo-uid@example.com", events[0].UID)
}

func TestFetchEventsSkipsFailingCalendar(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cred := credstore.New("u@x", "p", credstore.ServiceICloud, "")
	client := newWithBase(&cred, server.URL)
	client.principal = "123456"

	calendars := []calmodel.CalendarInfo{{Href: "/123456/calendars/broken/", Name: "Broken"}}
	events, err := client.FetchEvents(ctx, calendars)
	require.NoError(t, err)
	assert.Empty(t, events)
}
