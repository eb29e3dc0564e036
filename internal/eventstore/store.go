// Package eventstore holds the in-memory, deduplicated event lists the
// rest of the calendar core reads from, plus their on-disk cache.
// Grounded on
// original_source/client/src/ui/widgets/calendar/data_store.rs's
// CalendarDataStore.
package eventstore

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"time"

	"github.com/watson-app/watson/internal/calmodel"
	"github.com/watson-app/watson/internal/paths"
	"github.com/watson-app/watson/internal/werr"
)

// formatVersion prefixes the cache file so a future encoding change can
// be detected and the stale file discarded instead of misread.
const formatVersion byte = 1

// Store holds the two ordered event lists a calendar view renders,
// split by Kind so the timed-grid and all-day-band widgets never have
// to re-partition on every redraw.
type Store struct {
	Timed  []calmodel.Event
	AllDay []calmodel.Event
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// cachePayload is the exact shape written to and read from disk.
type cachePayload struct {
	Timed  []calmodel.Event
	AllDay []calmodel.Event
}

// Insert adds event to the store unless its UID is already present or
// it no longer occurs on today, mirroring data_store.rs's refresh: the
// per-day filter and the seen_ids dedup both happen at insert time, not
// as a later pass. Seen is reset to false for newly inserted events.
func (s *Store) Insert(event calmodel.Event, today time.Time) {
	if !event.OccursOnDay(today) {
		return
	}
	if s.contains(event.UID) {
		return
	}

	event.Seen = false
	switch event.Kind {
	case calmodel.KindTimed:
		s.Timed = append(s.Timed, event)
	default:
		s.AllDay = append(s.AllDay, event)
	}
}

func (s *Store) contains(uid string) bool {
	for _, e := range s.Timed {
		if e.UID == uid {
			return true
		}
	}
	for _, e := range s.AllDay {
		if e.UID == uid {
			return true
		}
	}
	return false
}

// Prune drops every event, from either list, that no longer occurs on
// today — the cache-invalidation step load_from_cache runs on every
// cold start so a cache left over from a previous day self-heals.
func (s *Store) Prune(today time.Time) {
	s.Timed = pruned(s.Timed, today)
	s.AllDay = pruned(s.AllDay, today)
}

func pruned(events []calmodel.Event, today time.Time) []calmodel.Event {
	out := events[:0]
	for _, e := range events {
		if e.OccursOnDay(today) {
			out = append(out, e)
		}
	}
	return out
}

// Load reads the on-disk cache, if any, and replaces the store's
// contents with the subset of cached events that still occur today.
// A missing cache file is not an error: Load leaves the store empty.
func Load(today time.Time) (*Store, error) {
	path, err := paths.CacheFile()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, werr.Wrap(werr.KindFileOpen, err)
	}
	if len(raw) == 0 {
		return New(), nil
	}

	if raw[0] != formatVersion {
		return New(), nil
	}

	var payload cachePayload
	dec := gob.NewDecoder(bytes.NewReader(raw[1:]))
	if err := dec.Decode(&payload); err != nil {
		return nil, werr.Wrap(werr.KindDeserialize, err)
	}

	s := &Store{Timed: payload.Timed, AllDay: payload.AllDay}
	s.Prune(today)
	return s, nil
}

// Save writes the store to the on-disk cache, replacing it atomically
// (temp file + rename, matching credstore.Manager.Save's pattern).
func (s *Store) Save() error {
	path, err := paths.CacheFile()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteByte(formatVersion)

	w := bufio.NewWriter(&buf)
	enc := gob.NewEncoder(w)
	payload := cachePayload{Timed: s.Timed, AllDay: s.AllDay}
	if err := enc.Encode(payload); err != nil {
		return werr.Wrap(werr.KindSerialize, err)
	}
	if err := w.Flush(); err != nil {
		return werr.Wrap(werr.KindFileWrite, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return werr.Wrap(werr.KindFileWrite, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return werr.Wrap(werr.KindFileWrite, err)
	}
	return nil
}

// Merge inserts every event in a freshly-fetched batch, applying the
// optional calendar-selection predicate and the same per-day/dedup
// gating as Insert, then persists the result. allowed may be nil to
// accept every calendar (data_store.rs's refresh: Some(selection) vs.
// the else branch).
func (s *Store) Merge(events []calmodel.Event, today time.Time, allowed func(calendarName string) bool) int {
	before := len(s.Timed) + len(s.AllDay)
	for _, e := range events {
		if allowed != nil {
			name := ""
			if e.CalendarInfo != nil {
				name = e.CalendarInfo.Name
			}
			if !allowed(name) {
				continue
			}
		}
		s.Insert(e, today)
	}
	return len(s.Timed) + len(s.AllDay) - before
}
