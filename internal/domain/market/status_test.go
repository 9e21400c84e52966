package market

import (
	"testing"
	"time"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// TestStatusAtWeekday walks every session boundary on a regular weekday
func TestStatusAtWeekday(t *testing.T) {
	clock := NewUSEquityClock()
	loc := eastern(t)

	// Wednesday 2025-03-12
	day := func(hour, min int) time.Time {
		return time.Date(2025, 3, 12, hour, min, 0, 0, loc)
	}

	cases := []struct {
		name string
		at   time.Time
		want Status
	}{
		{"midnight", day(0, 0), StatusClosed},
		{"before pre-market", day(3, 59), StatusClosed},
		{"pre-market opening edge", day(4, 0), StatusPreMarket},
		{"pre-market middle", day(7, 30), StatusPreMarket},
		{"last pre-market minute", day(9, 29), StatusPreMarket},
		{"regular opening edge", day(9, 30), StatusOpen},
		{"regular middle", day(13, 0), StatusOpen},
		{"last regular minute", day(15, 59), StatusOpen},
		{"after-hours opening edge", day(16, 0), StatusAfterHours},
		{"after-hours middle", day(18, 30), StatusAfterHours},
		{"last after-hours minute", day(19, 59), StatusAfterHours},
		{"post after-hours", day(20, 0), StatusClosed},
		{"late evening", day(23, 30), StatusClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := clock.StatusAt(tc.at); got != tc.want {
				t.Errorf("StatusAt(%v) = %s, want %s", tc.at, got, tc.want)
			}
		})
	}
}

// TestStatusAtWeekend verifies Saturday and Sunday are closed regardless of time
func TestStatusAtWeekend(t *testing.T) {
	clock := NewUSEquityClock()
	loc := eastern(t)

	for _, day := range []int{15, 16} { // Sat 2025-03-15, Sun 2025-03-16
		for _, hour := range []int{0, 5, 10, 13, 17, 21} {
			at := time.Date(2025, 3, day, hour, 0, 0, 0, loc)
			if got := clock.StatusAt(at); got != StatusClosed {
				t.Errorf("StatusAt(%v) = %s, want CLOSED", at, got)
			}
		}
	}
}

// TestStatusAtTimezoneConversion checks that UTC instants are evaluated in
// exchange-local time
func TestStatusAtTimezoneConversion(t *testing.T) {
	clock := NewUSEquityClock()

	// 2025-03-12 14:30 UTC is 10:30 ET (EDT): regular session
	at := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)
	if got := clock.StatusAt(at); got != StatusOpen {
		t.Errorf("StatusAt(%v) = %s, want OPEN", at, got)
	}

	// 2025-03-13 01:00 UTC is 21:00 ET on the 12th: closed
	at = time.Date(2025, 3, 13, 1, 0, 0, 0, time.UTC)
	if got := clock.StatusAt(at); got != StatusClosed {
		t.Errorf("StatusAt(%v) = %s, want CLOSED", at, got)
	}
}

// TestStatusPartition verifies each weekday minute maps to exactly one phase
// and the four phases partition the day
func TestStatusPartition(t *testing.T) {
	clock := NewUSEquityClock()
	loc := eastern(t)

	counts := map[Status]int{}
	for minute := 0; minute < 24*60; minute++ {
		at := time.Date(2025, 3, 12, 0, minute, 0, 0, loc)
		counts[clock.StatusAt(at)]++
	}

	want := map[Status]int{
		StatusClosed:     4*60 + 4*60, // 00:00-04:00 and 20:00-24:00
		StatusPreMarket:  5*60 + 30,   // 04:00-09:30
		StatusOpen:       6*60 + 30,   // 09:30-16:00
		StatusAfterHours: 4 * 60,      // 16:00-20:00
	}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("%s covers %d minutes, want %d", status, counts[status], n)
		}
	}
}
