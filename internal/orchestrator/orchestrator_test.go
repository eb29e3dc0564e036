package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/eventstore"
	"github.com/watson-app/watson/internal/layout"
	"github.com/watson-app/watson/internal/timevalue"
)

func TestRunExecutesPostedContinuations(t *testing.T) {
	o := New(eventstore.New(), layout.Window{HoursPast: 4, HoursFuture: 4})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	executed := make(chan struct{})
	o.Post(func() { close(executed) })

	select {
	case <-executed:
	case <-time.After(time.Second):
		t.Fatal("continuation never executed")
	}
}

func TestLoadWithNoCacheFileReturnsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	o, err := Load(layout.Window{HoursPast: 4, HoursFuture: 4})
	require.NoError(t, err)
	assert.Empty(t, o.store.Timed)
	assert.Empty(t, o.store.AllDay)
}

func TestTickSignalsOnlyWhenWindowGeometryChanges(t *testing.T) {
	o := New(eventstore.New(), layout.Window{HoursPast: 4, HoursFuture: 4})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)

	o.Tick(now, 800, 600)
	select {
	case <-o.Updated:
	default:
		t.Fatal("expected an update signal on the first tick")
	}

	o.Tick(now, 800, 600)
	select {
	case <-o.Updated:
		t.Fatal("unexpected update signal when nothing changed")
	default:
	}

	o.Tick(now, 801, 600)
	select {
	case <-o.Updated:
	default:
		t.Fatal("expected an update signal when width changed")
	}
}

func timedEvent(uid string, day time.Time) calmodel.Event {
	start := timevalue.Zoned(time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC), "UTC")
	end := timevalue.Zoned(time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC), "UTC")
	ev := calmodel.Event{UID: uid, Start: start, End: &end}
	ev.Kind = calmodel.DeriveKind(ev.Start, ev.End)
	return ev
}

func TestMergeBatchInvalidatesCacheAndSignalsOnlyWhenAdmitted(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	o := New(eventstore.New(), layout.Window{HoursPast: 4, HoursFuture: 4})
	o.cache.Hitboxes = []layout.Hitbox{{Index: 0}}

	o.mergeBatch(nil, nil)
	select {
	case <-o.Updated:
		t.Fatal("empty batch must not signal an update")
	default:
	}
	assert.NotEmpty(t, o.cache.Hitboxes, "empty batch must not invalidate the cache")

	today := time.Now().Local()
	o.mergeBatch([]calmodel.Event{timedEvent("e1", today)}, nil)

	select {
	case <-o.Updated:
	default:
		t.Fatal("expected an update signal once an event was admitted")
	}
	assert.Empty(t, o.cache.Hitboxes)
	assert.Len(t, o.store.Timed, 1)
}

func TestMergeBatchAppliesCalendarFilter(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	o := New(eventstore.New(), layout.Window{HoursPast: 4, HoursFuture: 4})

	today := time.Now().Local()
	ev := timedEvent("e1", today)
	ev.CalendarInfo = &calmodel.CalendarInfo{Name: "Personal"}

	o.mergeBatch([]calmodel.Event{ev}, func(name string) bool { return name == "Work" })

	assert.Empty(t, o.store.Timed)
	select {
	case <-o.Updated:
		t.Fatal("filtered-out batch must not signal an update")
	default:
	}
}
