package recurrence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/watson-app/watson/internal/recurrence"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestWeeklyAlternatingTuesdays is scenario 1 of spec.md §8.
func TestWeeklyAlternatingTuesdays(t *testing.T) {
	start := date(2024, 1, 2) // Tuesday
	rule := recurrence.Compile("FREQ=WEEKLY;INTERVAL=2;BYDAY=TU", nil, nil)

	active := []time.Time{date(2024, 1, 2), date(2024, 1, 16), date(2024, 1, 30), date(2024, 2, 13)}
	for _, d := range active {
		assert.True(t, rule.IsActiveOn(start, d), "expected active on %v", d)
	}

	inactive := []time.Time{date(2024, 1, 9), date(2024, 2, 6)}
	for _, d := range inactive {
		assert.False(t, rule.IsActiveOn(start, d), "expected inactive on %v", d)
	}
}

// TestLastDayOfMonth is scenario 2 of spec.md §8.
func TestLastDayOfMonth(t *testing.T) {
	start := date(2023, 1, 31)
	rule := recurrence.Compile("FREQ=MONTHLY;BYMONTHDAY=-1", nil, nil)

	for _, d := range []time.Time{date(2024, 2, 29), date(2023, 2, 28), date(2024, 4, 30)} {
		assert.True(t, rule.IsActiveOn(start, d), "expected active on %v", d)
	}
}

// TestYearlyByISOWeek is scenario 3 of spec.md §8.
func TestYearlyByISOWeek(t *testing.T) {
	start := date(2024, 1, 1)
	rule := recurrence.Compile("FREQ=YEARLY;BYWEEKNO=1;BYDAY=MO", nil, nil)

	for _, d := range []time.Time{date(2024, 1, 1), date(2025, 12, 29), date(2027, 1, 4)} {
		assert.True(t, rule.IsActiveOn(start, d), "expected active on %v", d)
	}
}

// TestExdateOverridesDaily is scenario 4 of spec.md §8.
func TestExdateOverridesDaily(t *testing.T) {
	start := date(2024, 1, 1)
	rule := recurrence.Compile("FREQ=DAILY", nil, []time.Time{date(2024, 6, 15)})

	assert.True(t, rule.IsActiveOn(start, date(2024, 6, 14)))
	assert.False(t, rule.IsActiveOn(start, date(2024, 6, 15)))
}

// TestUntilBoundary covers spec.md §8: UNTIL excludes the day after but
// includes the UNTIL day itself.
func TestUntilBoundary(t *testing.T) {
	start := date(2025, 1, 1)
	rule := recurrence.Compile("FREQ=DAILY;UNTIL=20250101T000000Z", nil, nil)

	assert.True(t, rule.IsActiveOn(start, date(2025, 1, 1)))
	assert.False(t, rule.IsActiveOn(start, date(2025, 1, 2)))
}

// TestRdateAndExdateSameDate: exdate dominates rdate on the same date.
func TestRdateAndExdateSameDate(t *testing.T) {
	start := date(2024, 1, 1)
	d := date(2024, 3, 3)
	rule := recurrence.Compile("FREQ=DAILY;INTERVAL=1000", []time.Time{d}, []time.Time{d})
	assert.False(t, rule.IsActiveOn(start, d))
}

// TestAgainstRruleGo cross-checks IsActiveOn against teambition/rrule-go's
// own expansion for the round-trip equivalence property in spec.md §8,
// grounded on sonroyaalmerol-ldap-dav/pkg/ical/recurrence.go's StrToRRule
// usage.
func TestAgainstRruleGo(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		rrule string
	}{
		{"weekly-tu", date(2024, 1, 2), "FREQ=WEEKLY;INTERVAL=2;BYDAY=TU"},
		{"monthly-last-day", date(2023, 1, 31), "FREQ=MONTHLY;BYMONTHDAY=-1"},
		{"daily", date(2024, 1, 1), "FREQ=DAILY"},
		{"yearly-byyearday", date(2024, 1, 1), "FREQ=YEARLY;BYYEARDAY=1,100"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rruleStr := "DTSTART:" + tc.start.Format("20060102T150405Z") + "\nRRULE:" + tc.rrule
			refRule, err := rrule.StrToRRule(rruleStr)
			require.NoError(t, err)

			rangeStart := tc.start
			rangeEnd := tc.start.AddDate(2, 0, 0)
			occurrences := refRule.Between(rangeStart, rangeEnd, true)

			want := make(map[string]bool, len(occurrences))
			for _, o := range occurrences {
				want[o.Format("20060102")] = true
			}

			compiled := recurrence.Compile(tc.rrule, nil, nil)
			for d := rangeStart; !d.After(rangeEnd); d = d.AddDate(0, 0, 1) {
				got := compiled.IsActiveOn(tc.start, d)
				assert.Equal(t, want[d.Format("20060102")], got, "mismatch on %v", d)
			}
		})
	}
}
