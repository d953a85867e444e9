package expand

import (
	"testing"
	"time"
)

func TestDayWindow(t *testing.T) {
	zone := time.FixedZone("UTC-8", -8*3600)

	// 15:00 UTC on Sep 3 is 07:00 local: the local day runs from Sep 3
	// 00:00 local (08:00 UTC) to Sep 4 00:00 local.
	ref := time.Date(2025, 9, 3, 15, 0, 0, 0, time.UTC)
	start, end := DayWindow(ref, zone)

	if want := time.Date(2025, 9, 3, 8, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start: got %v, want %v", start, want)
	}
	if want := time.Date(2025, 9, 4, 8, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end: got %v, want %v", end, want)
	}

	// 04:00 UTC on Sep 4 is still Sep 3 locally.
	ref = time.Date(2025, 9, 4, 4, 0, 0, 0, time.UTC)
	start2, _ := DayWindow(ref, zone)
	if !start2.Equal(start) {
		t.Errorf("late-evening ref landed in a different local day: %v vs %v", start2, start)
	}
}

func TestWeekWindow(t *testing.T) {
	zone := time.FixedZone("UTC-8", -8*3600)
	ref := time.Date(2025, 9, 3, 15, 0, 0, 0, time.UTC) // Wednesday local

	start, end := WeekWindow(ref, zone, "monday")
	if want := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("monday start: got %v, want %v", start, want)
	}
	if want := time.Date(2025, 9, 8, 8, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("monday end: got %v, want %v", end, want)
	}

	start, _ = WeekWindow(ref, zone, "sunday")
	if want := time.Date(2025, 8, 31, 8, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("sunday start: got %v, want %v", start, want)
	}
}

func TestHorizonWindow(t *testing.T) {
	start, end := HorizonWindow(time.Date(2025, 9, 3, 15, 0, 0, 0, time.UTC), time.UTC, 7)
	if want := time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start: got %v, want %v", start, want)
	}
	if want := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end: got %v, want %v", end, want)
	}

	// Non-positive horizons degrade to a single day.
	start, end = HorizonWindow(time.Date(2025, 9, 3, 15, 0, 0, 0, time.UTC), time.UTC, 0)
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("zero horizon: got %v", end.Sub(start))
	}
}
