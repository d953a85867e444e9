package recur

import (
	"testing"
	"time"
)

func mustRule(t *testing.T, s string) *Rule {
	t.Helper()
	r, err := ParseRule(s)
	if err != nil {
		t.Fatalf("ParseRule(%q): %v", s, err)
	}
	return r
}

// collect drains a generator, asserting strictly increasing order as it goes.
func collect(t *testing.T, start time.Time, rule *Rule, windowEnd time.Time) []time.Time {
	t.Helper()
	gen := NewGenerator(start, rule, windowEnd)
	var out []time.Time
	for {
		c, ok := gen.Next()
		if !ok {
			break
		}
		if n := len(out); n > 0 && !c.After(out[n-1]) {
			t.Fatalf("candidates not strictly increasing: %v then %v", out[n-1], c)
		}
		out = append(out, c)
		if len(out) > 10000 {
			t.Fatal("generator did not terminate")
		}
	}
	return out
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func assertTimes(t *testing.T, got, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d candidates %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("candidate %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGeneratorNonRecurring(t *testing.T) {
	start := utc(2025, 9, 2, 8, 0)

	got := collect(t, start, nil, utc(2025, 10, 1, 0, 0))
	assertTimes(t, got, []time.Time{start})

	// Start at or past the window end yields nothing.
	got = collect(t, start, nil, start)
	assertTimes(t, got, nil)
}

func TestGeneratorDaily(t *testing.T) {
	start := utc(2025, 9, 1, 8, 0)

	got := collect(t, start, mustRule(t, "FREQ=DAILY"), utc(2025, 9, 5, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 1, 8, 0),
		utc(2025, 9, 2, 8, 0),
		utc(2025, 9, 3, 8, 0),
		utc(2025, 9, 4, 8, 0),
	})

	got = collect(t, start, mustRule(t, "FREQ=DAILY;INTERVAL=3"), utc(2025, 9, 9, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 1, 8, 0),
		utc(2025, 9, 4, 8, 0),
		utc(2025, 9, 7, 8, 0),
	})
}

func TestGeneratorCount(t *testing.T) {
	start := utc(2025, 9, 1, 8, 0)
	rule := mustRule(t, "FREQ=DAILY;COUNT=3")

	got := collect(t, start, rule, utc(2026, 1, 1, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 1, 8, 0),
		utc(2025, 9, 2, 8, 0),
		utc(2025, 9, 3, 8, 0),
	})
}

func TestGeneratorUntilInclusive(t *testing.T) {
	start := utc(2025, 9, 1, 8, 0)

	// A candidate exactly at UNTIL is still emitted; the next one is not.
	rule := mustRule(t, "FREQ=DAILY;UNTIL=2025-09-03T08:00:00Z")
	got := collect(t, start, rule, utc(2026, 1, 1, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 1, 8, 0),
		utc(2025, 9, 2, 8, 0),
		utc(2025, 9, 3, 8, 0),
	})
}

func TestGeneratorCountAndUntilFirstBoundWins(t *testing.T) {
	start := utc(2025, 9, 1, 8, 0)
	windowEnd := utc(2026, 1, 1, 0, 0)

	// UNTIL cuts the series before COUNT does.
	got := collect(t, start, mustRule(t, "FREQ=DAILY;COUNT=10;UNTIL=2025-09-02T08:00:00Z"), windowEnd)
	if len(got) != 2 {
		t.Errorf("until should win: got %d candidates", len(got))
	}

	// COUNT cuts the series before UNTIL does.
	got = collect(t, start, mustRule(t, "FREQ=DAILY;COUNT=2;UNTIL=2025-09-30T08:00:00Z"), windowEnd)
	if len(got) != 2 {
		t.Errorf("count should win: got %d candidates", len(got))
	}
}

func TestGeneratorWeeklyDefaultWeekday(t *testing.T) {
	// 2025-09-02 is a Tuesday; no BYDAY, so the series stays on Tuesdays.
	start := utc(2025, 9, 2, 8, 0)
	rule := mustRule(t, "FREQ=WEEKLY")

	got := collect(t, start, rule, utc(2025, 10, 1, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 2, 8, 0),
		utc(2025, 9, 9, 8, 0),
		utc(2025, 9, 16, 8, 0),
		utc(2025, 9, 23, 8, 0),
		utc(2025, 9, 30, 8, 0),
	})
	for _, c := range got {
		if c.Weekday() != time.Tuesday {
			t.Errorf("candidate %v is a %s, want Tuesday", c, c.Weekday())
		}
	}
}

func TestGeneratorWeeklyWeekdaySet(t *testing.T) {
	start := utc(2025, 9, 2, 8, 0) // Tuesday
	rule := mustRule(t, "FREQ=WEEKLY;BYDAY=TU,TH")

	got := collect(t, start, rule, utc(2025, 9, 19, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 2, 8, 0),
		utc(2025, 9, 4, 8, 0),
		utc(2025, 9, 9, 8, 0),
		utc(2025, 9, 11, 8, 0),
		utc(2025, 9, 16, 8, 0),
		utc(2025, 9, 18, 8, 0),
	})
}

func TestGeneratorWeeklyInterval(t *testing.T) {
	// 2025-09-01 is a Monday. Every other week, Monday and Friday.
	start := utc(2025, 9, 1, 9, 0)
	rule := mustRule(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,FR")

	got := collect(t, start, rule, utc(2025, 9, 30, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 1, 9, 0),
		utc(2025, 9, 5, 9, 0),
		utc(2025, 9, 15, 9, 0),
		utc(2025, 9, 19, 9, 0),
		utc(2025, 9, 29, 9, 0),
	})
}

func TestGeneratorWeeklyStartOutsideSet(t *testing.T) {
	// Start on a Monday with BYDAY=WE: the first candidate is the first
	// Wednesday on or after the start.
	start := utc(2025, 9, 1, 8, 0)
	rule := mustRule(t, "FREQ=WEEKLY;BYDAY=WE")

	got := collect(t, start, rule, utc(2025, 9, 15, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 9, 3, 8, 0),
		utc(2025, 9, 10, 8, 0),
	})
}

func TestGeneratorMonthlyClipsShortMonths(t *testing.T) {
	// Anchored on the 31st: February clips to its last day, and the anchor
	// day is preserved for later months.
	start := utc(2025, 1, 31, 10, 0)
	rule := mustRule(t, "FREQ=MONTHLY")

	got := collect(t, start, rule, utc(2025, 6, 1, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 1, 31, 10, 0),
		utc(2025, 2, 28, 10, 0),
		utc(2025, 3, 31, 10, 0),
		utc(2025, 4, 30, 10, 0),
		utc(2025, 5, 31, 10, 0),
	})
}

func TestGeneratorMonthlyLeapFebruary(t *testing.T) {
	start := utc(2023, 12, 31, 10, 0)
	rule := mustRule(t, "FREQ=MONTHLY")

	got := collect(t, start, rule, utc(2024, 3, 1, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2023, 12, 31, 10, 0),
		utc(2024, 1, 31, 10, 0),
		utc(2024, 2, 29, 10, 0),
	})
}

func TestGeneratorMonthlyInterval(t *testing.T) {
	start := utc(2025, 1, 15, 7, 30)
	rule := mustRule(t, "FREQ=MONTHLY;INTERVAL=3")

	got := collect(t, start, rule, utc(2025, 12, 31, 0, 0))
	assertTimes(t, got, []time.Time{
		utc(2025, 1, 15, 7, 30),
		utc(2025, 4, 15, 7, 30),
		utc(2025, 7, 15, 7, 30),
		utc(2025, 10, 15, 7, 30),
	})
}

func TestGeneratorRestartable(t *testing.T) {
	start := utc(2025, 9, 2, 8, 0)
	rule := mustRule(t, "FREQ=WEEKLY;BYDAY=TU,TH;COUNT=7")
	windowEnd := utc(2025, 10, 15, 0, 0)

	first := collect(t, start, rule, windowEnd)
	second := collect(t, start, rule, windowEnd)
	assertTimes(t, second, first)

	// Stopping early and starting over yields the same prefix.
	gen := NewGenerator(start, rule, windowEnd)
	c, ok := gen.Next()
	if !ok || !c.Equal(first[0]) {
		t.Errorf("fresh generator first candidate: got %v %v, want %v", c, ok, first[0])
	}
}
