// Package layout computes the timed-event lane assignment and pixel
// geometry the calendar grid renders, plus hit testing. Grounded on
// original_source/client/src/ui/widgets/calendar/{cache,context}.rs.
package layout

import "time"

// Window holds the user-configured hours-past/hours-future span a
// timed-event grid shows around the current time (spec.md §4.9).
type Window struct {
	HoursPast   uint8
	HoursFuture uint8
}

// HoursToShow is hours_past+hours_future clamped to [1, 24], mirroring
// context.rs's for_specs.
func (w Window) HoursToShow() uint32 {
	total := uint32(w.HoursPast) + uint32(w.HoursFuture)
	if total < 1 {
		total = 1
	}
	if total > 24 {
		total = 24
	}
	return total
}

// Compute derives today's date and the [windowStart, windowEnd) pair
// from now, per context.rs's new_time_window: the window starts
// hours_past hours before the current hour (never before midnight) and
// spans hours_to_show hours, clamped so it never runs past 23:00.
func (w Window) Compute(now time.Time) (today, windowStart, windowEnd time.Time) {
	hoursToShow := w.HoursToShow()
	local := now.Local()
	today = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)

	nowHour := uint32(local.Hour())
	var startHour uint32
	if nowHour+hoursToShow > 24 {
		startHour = 24 - hoursToShow
	} else if nowHour >= uint32(w.HoursPast) {
		startHour = nowHour - uint32(w.HoursPast)
	} else {
		startHour = 0
	}
	if startHour > 23 {
		startHour = 23
	}

	windowStart = today.Add(time.Duration(startHour) * time.Hour)
	windowEnd = windowStart.Add(time.Duration(hoursToShow) * time.Hour)
	return today, windowStart, windowEnd
}

// Context is the subset of draw-time geometry the layout engine needs:
// everything about fonts/colors in context.rs is UI-only and stays out
// of this package (spec.md §4.9 only lists these inputs).
type Context struct {
	Padding    float64
	PaddingTop float64

	InnerWidth  float64
	InnerHeight float64
	LineOffset  float64

	TODate      time.Time // local calendar date the grid renders
	WindowStart time.Time
	WindowEnd   time.Time

	TotalSeconds float64
}

// Cache holds the last computed hitbox set plus the geometry it was
// computed for, so a caller can decide whether to recompute
// (context.rs's CalendarContext.cache + is_dirty).
type Cache struct {
	LastWidth       float64
	LastHeight      float64
	LastWindowStart time.Time
	Hitboxes        []Hitbox
}

// IsDirty reports whether the cached hitboxes no longer match the
// given draw size or ctx's window start, per context.rs's is_dirty.
func (c *Cache) IsDirty(ctx Context, width, height float64) bool {
	return len(c.Hitboxes) == 0 ||
		c.LastWidth != width ||
		c.LastHeight != height ||
		!c.LastWindowStart.Equal(ctx.WindowStart)
}

// Store records a freshly computed hitbox set against the geometry it
// was computed for.
func (c *Cache) Store(ctx Context, width, height float64, hitboxes []Hitbox) {
	c.LastWidth = width
	c.LastHeight = height
	c.LastWindowStart = ctx.WindowStart
	c.Hitboxes = hitboxes
}
