package eventstore

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/timevalue"
)

func timedEvent(uid string, day time.Time) calmodel.Event {
	start := timevalue.Zoned(time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC), "UTC")
	end := timevalue.Zoned(time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC), "UTC")
	ev := calmodel.Event{
		UID:          uid,
		Title:        "Standup",
		Start:        start,
		End:          &end,
		CalendarInfo: &calmodel.CalendarInfo{Name: "Work"},
	}
	ev.Kind = calmodel.DeriveKind(ev.Start, ev.End)
	return ev
}

func allDayEvent(uid string, day time.Time) calmodel.Event {
	ev := calmodel.Event{
		UID:          uid,
		Title:        "Holiday",
		Start:        timevalue.DateOnly(day.Year(), day.Month(), day.Day()),
		CalendarInfo: &calmodel.CalendarInfo{Name: "Personal"},
	}
	ev.Kind = calmodel.DeriveKind(ev.Start, ev.End)
	return ev
}

func TestInsertDedupsByUID(t *testing.T) {
	today := time.Now().In(time.Local)
	s := New()

	s.Insert(timedEvent("e1", today), today)
	s.Insert(timedEvent("e1", today), today)

	require.Len(t, s.Timed, 1)
}

func TestInsertSkipsEventsNotOccurringToday(t *testing.T) {
	today := time.Now().In(time.Local)
	yesterday := today.AddDate(0, 0, -1)
	s := New()

	s.Insert(timedEvent("e1", yesterday), today)

	assert.Empty(t, s.Timed)
}

func TestInsertSplitsByKind(t *testing.T) {
	today := time.Now().In(time.Local)
	s := New()

	s.Insert(timedEvent("t1", today), today)
	s.Insert(allDayEvent("a1", today), today)

	assert.Len(t, s.Timed, 1)
	assert.Len(t, s.AllDay, 1)
}

func TestMergeAppliesSelectionPredicate(t *testing.T) {
	today := time.Now().In(time.Local)
	s := New()

	events := []calmodel.Event{timedEvent("t1", today), allDayEvent("a1", today)}
	allowed := func(name string) bool { return name == "Work" }

	n := s.Merge(events, today, allowed)

	assert.Equal(t, 1, n)
	assert.Len(t, s.Timed, 1)
	assert.Empty(t, s.AllDay)
}

func TestPruneDropsStaleEvents(t *testing.T) {
	today := time.Now().In(time.Local)
	yesterday := today.AddDate(0, 0, -1)
	s := &Store{Timed: []calmodel.Event{timedEvent("t1", yesterday), timedEvent("t2", today)}}

	s.Prune(today)

	require.Len(t, s.Timed, 1)
	assert.Equal(t, "t2", s.Timed[0].UID)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	today := time.Now().In(time.Local)
	s := New()
	s.Insert(timedEvent("t1", today), today)
	s.Insert(allDayEvent("a1", today), today)
	require.NoError(t, s.Save())

	loaded, err := Load(today)
	require.NoError(t, err)
	require.Len(t, loaded.Timed, 1)
	require.Len(t, loaded.AllDay, 1)
	assert.Equal(t, "t1", loaded.Timed[0].UID)
	assert.Equal(t, "a1", loaded.AllDay[0].UID)
}

func TestLoadPrunesStaleCacheOnColdStart(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	yesterday := time.Now().In(time.Local).AddDate(0, 0, -1)
	s := &Store{Timed: []calmodel.Event{timedEvent("stale", yesterday)}}
	require.NoError(t, s.Save())

	today := time.Now().In(time.Local)
	loaded, err := Load(today)
	require.NoError(t, err)
	assert.Empty(t, loaded.Timed)
}

func TestLoadMissingCacheReturnsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	s, err := Load(time.Now())
	require.NoError(t, err)
	assert.Empty(t, s.Timed)
	assert.Empty(t, s.AllDay)
}

func TestLoadRejectsUnknownFormatVersion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	path := dir + "/watson/calendar_cache.bin"
	require.NoError(t, os.MkdirAll(dir+"/watson", 0o700))
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 1, 2, 3}, 0o600))

	s, err := Load(time.Now())
	require.NoError(t, err)
	assert.Empty(t, s.Timed)
}
