// Package recurrence compiles an RFC 5545 RRULE plus RDATE/EXDATE lists
// into a compact structure that answers IsActiveOn(date) without
// allocating, per spec.md §4.3. Grounded on
// original_source/common/src/calendar/utils/cal_dav_event.rs's
// RecurrenceHandler.
package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// Freq is the RRULE FREQ component, restricted to the four supported
// values (spec.md §4.3).
type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

// Rule is the compiled recurrence: bitmasks for positive BYxxx components,
// negative index lists for the "-1" style components, and the RDATE/EXDATE
// override lists. Zero value behaves like a bare "FREQ=DAILY" rule.
type Rule struct {
	Freq     Freq
	Interval int64
	Until    *time.Time // date-only, UTC midnight; nil means no bound

	RDates  []time.Time
	EXDates []time.Time

	BydayMask       uint8  // Monday=bit0 .. Sunday=bit6
	BymonthMask     uint16 // January=bit0 .. December=bit11
	BymonthdayMask  uint32 // day 1 = bit0 .. day 31 = bit30
	ByweeknoMask    uint64 // ISO week 1 = bit0 .. week 53 = bit52
	ByyeardayMask   [6]uint64
	NegBymonthday   []int8
	NegByweekno     []int8
	NegByyearday    []int16
}

// Compile parses a raw RRULE string (with or without the leading
// "RRULE:" prefix) plus explicit RDATE/EXDATE instants into a Rule.
// Invalid or out-of-range components are silently ignored, per spec.md
// §4.3/§7 — the evaluator never fails.
func Compile(raw string, rdates, exdates []time.Time) *Rule {
	r := &Rule{Freq: Daily, Interval: 1, RDates: dateOnly(rdates), EXDates: dateOnly(exdates)}

	clean := strings.TrimPrefix(raw, "RRULE:")
	for _, part := range strings.Split(clean, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch key {
		case "FREQ":
			switch val {
			case "WEEKLY":
				r.Freq = Weekly
			case "MONTHLY":
				r.Freq = Monthly
			case "YEARLY":
				r.Freq = Yearly
			default:
				r.Freq = Daily
			}
		case "INTERVAL":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
				r.Interval = n
			}
		case "BYDAY":
			for _, tok := range strings.Split(val, ",") {
				if bit, ok := weekdayTokenBit(tok); ok {
					r.BydayMask |= bit
				}
			}
		case "BYMONTH":
			for _, tok := range strings.Split(val, ",") {
				if m, err := strconv.Atoi(tok); err == nil && m >= 1 && m <= 12 {
					r.BymonthMask |= 1 << uint(m-1)
				}
			}
		case "BYMONTHDAY":
			for _, tok := range strings.Split(val, ",") {
				if d, err := strconv.Atoi(tok); err == nil {
					if d >= 1 && d <= 31 {
						r.BymonthdayMask |= 1 << uint(d-1)
					} else if d <= -1 && d >= -31 {
						r.NegBymonthday = append(r.NegBymonthday, int8(d))
					}
				}
			}
		case "BYWEEKNO":
			for _, tok := range strings.Split(val, ",") {
				if w, err := strconv.Atoi(tok); err == nil {
					if w >= 1 && w <= 53 {
						r.ByweeknoMask |= 1 << uint(w-1)
					} else if w <= -1 && w >= -53 {
						r.NegByweekno = append(r.NegByweekno, int8(w))
					}
				}
			}
		case "BYYEARDAY":
			for _, tok := range strings.Split(val, ",") {
				if y, err := strconv.Atoi(tok); err == nil {
					if y >= 1 && y <= 366 {
						idx, bit := y-1, y-1
						r.ByyeardayMask[idx/64] |= 1 << uint(bit%64)
					} else if y <= -1 && y >= -366 {
						r.NegByyearday = append(r.NegByyearday, int16(y))
					}
				}
			}
		case "UNTIL":
			if u, ok := parseUntil(val); ok {
				r.Until = &u
			}
		}
	}

	return r
}

func dateOnly(ts []time.Time) []time.Time {
	out := make([]time.Time, len(ts))
	for i, t := range ts {
		out[i] = civil(t)
	}
	return out
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseUntil(s string) (time.Time, bool) {
	if len(s) == 8 {
		if d, err := time.Parse("20060102", s); err == nil {
			return civil(d), true
		}
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") {
		if d, err := time.Parse("20060102T150405Z", s); err == nil {
			return civil(d), true
		}
	}
	return time.Time{}, false
}

func weekdayTokenBit(tok string) (uint8, bool) {
	switch tok {
	case "MO":
		return 1 << 0, true
	case "TU":
		return 1 << 1, true
	case "WE":
		return 1 << 2, true
	case "TH":
		return 1 << 3, true
	case "FR":
		return 1 << 4, true
	case "SA":
		return 1 << 5, true
	case "SU":
		return 1 << 6, true
	default:
		return 0, false
	}
}

// mondayBit returns the BYDAY bitmask bit for a time.Weekday, with
// Monday=bit0 .. Sunday=bit6 (time.Sunday == 0 natively, so this rotates).
func mondayBit(wd time.Weekday) uint8 {
	idx := (int(wd) + 6) % 7
	return 1 << uint(idx)
}

func lastDayOfMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func weeksInISOYear(isoYear int) int {
	_, week := time.Date(isoYear, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// IsActiveOn answers whether the series anchored at dtStart occurs on
// target, both given as calendar dates (time components are ignored). It
// is pure and allocation-free, implementing spec.md §4.3's 11-step
// algorithm in order.
func (r *Rule) IsActiveOn(dtStart, target time.Time) bool {
	dtStart, target = civil(dtStart), civil(target)

	// 1. UNTIL bound.
	if r.Until != nil && target.After(*r.Until) {
		return false
	}

	// 2. EXDATE dominates.
	for _, ex := range r.EXDates {
		if ex.Equal(target) {
			return false
		}
	}

	// 3. RDATE wins over frequency arithmetic.
	for _, rd := range r.RDates {
		if rd.Equal(target) {
			return true
		}
	}

	// 4. Day-constraint detection.
	hasDayConstraints := r.BydayMask != 0 || r.BymonthdayMask != 0 ||
		len(r.NegBymonthday) != 0 || len(r.NegByyearday) != 0
	if !hasDayConstraints {
		for _, w := range r.ByyeardayMask {
			if w != 0 {
				hasDayConstraints = true
				break
			}
		}
	}

	// 5. Implicit calendar-anchor filter.
	if !hasDayConstraints {
		switch r.Freq {
		case Weekly:
			if target.Weekday() != dtStart.Weekday() {
				return false
			}
		case Monthly:
			if target.Day() != dtStart.Day() {
				return false
			}
		case Yearly:
			if target.Month() != dtStart.Month() || target.Day() != dtStart.Day() {
				return false
			}
		}
	}

	// 6. BYDAY.
	if r.BydayMask != 0 && r.BydayMask&mondayBit(target.Weekday()) == 0 {
		return false
	}

	// 7. BYMONTH.
	if r.BymonthMask != 0 {
		bit := uint16(1) << uint(target.Month()-1)
		if r.BymonthMask&bit == 0 {
			return false
		}
	}

	// 8. BYMONTHDAY (positive or negative).
	if r.BymonthdayMask != 0 || len(r.NegBymonthday) != 0 {
		matches := r.BymonthdayMask&(1<<uint(target.Day()-1)) != 0
		if !matches && len(r.NegBymonthday) != 0 {
			total := lastDayOfMonth(target.Year(), target.Month())
			neg := target.Day() - total - 1
			for _, d := range r.NegBymonthday {
				if int(d) == neg {
					matches = true
					break
				}
			}
		}
		if !matches {
			return false
		}
	}

	// 9. BYWEEKNO (positive or negative, ISO week).
	if r.ByweeknoMask != 0 || len(r.NegByweekno) != 0 {
		isoYear, week := target.ISOWeek()
		matches := r.ByweeknoMask&(1<<uint(week-1)) != 0
		if !matches && len(r.NegByweekno) != 0 {
			total := weeksInISOYear(isoYear)
			neg := week - total - 1
			for _, w := range r.NegByweekno {
				if int(w) == neg {
					matches = true
					break
				}
			}
		}
		if !matches {
			return false
		}
	}

	// 10. BYYEARDAY (positive or negative, ordinal day).
	anyYearday := len(r.NegByyearday) != 0
	if !anyYearday {
		for _, w := range r.ByyeardayMask {
			if w != 0 {
				anyYearday = true
				break
			}
		}
	}
	if anyYearday {
		yday := target.YearDay()
		idx, bit := (yday-1)/64, (yday-1)%64
		matches := r.ByyeardayMask[idx]&(1<<uint(bit)) != 0
		if !matches && len(r.NegByyearday) != 0 {
			total := 365
			if isLeapYear(target.Year()) {
				total = 366
			}
			neg := yday - total - 1
			for _, d := range r.NegByyearday {
				if int(d) == neg {
					matches = true
					break
				}
			}
		}
		if !matches {
			return false
		}
	}

	// 11. Interval check.
	switch r.Freq {
	case Daily:
		days := daysBetween(dtStart, target)
		return days >= 0 && days%r.Interval == 0
	case Weekly:
		sMonday := mondayOf(dtStart)
		tMonday := mondayOf(target)
		weeks := daysBetween(sMonday, tMonday) / 7
		return weeks%r.Interval == 0
	case Monthly:
		monthsSince := int64(target.Year()-dtStart.Year())*12 + int64(int(target.Month())-int(dtStart.Month()))
		return monthsSince >= 0 && monthsSince%r.Interval == 0
	case Yearly:
		yearsSince := int64(target.Year() - dtStart.Year())
		return yearsSince >= 0 && yearsSince%r.Interval == 0
	default:
		return false
	}
}

func daysBetween(a, b time.Time) int64 {
	return int64(b.Sub(a).Hours() / 24)
}

func mondayOf(t time.Time) time.Time {
	idx := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -idx)
}
