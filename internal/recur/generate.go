package recur

import "time"

// Generator lazily enumerates candidate occurrence start instants for one
// master event. Candidates come out in strictly increasing order with no
// duplicates; the first candidate is the series start itself (or, for a
// WEEKLY rule whose weekday set does not include the start's weekday, the
// first set member after it).
//
// A single explicit guard (take) checks every stop condition (UNTIL exceeded,
// COUNT exhausted, window end reached) so none of them can be missed by an
// individual frequency path. Candidates before the query window
// are still produced here and still consume COUNT; dropping them is the
// materializer's job.
//
// A Generator is cheap to construct and single-use; re-invoking NewGenerator
// with the same inputs yields the same sequence.
type Generator struct {
	start     time.Time
	rule      *Rule
	windowEnd time.Time

	days []time.Weekday // effective weekday set (WEEKLY)

	done    bool
	emitted int
	step    int       // period index (DAILY, MONTHLY)
	cursor  time.Time // day cursor (WEEKLY)
}

// NewGenerator returns a Generator for the series anchored at start (a UTC
// instant). rule may be nil for a non-recurring event, in which case the
// sequence holds at most the start instant itself.
func NewGenerator(start time.Time, rule *Rule, windowEnd time.Time) *Generator {
	g := &Generator{
		start:     start.UTC(),
		rule:      rule,
		windowEnd: windowEnd,
	}
	if rule != nil && rule.Freq == FreqWeekly {
		g.days = rule.WeekdaySet(g.start)
		g.cursor = g.start
	}
	return g
}

// Next returns the next candidate start instant. The second return value is
// false once the sequence is exhausted; it is safe to stop consuming early.
func (g *Generator) Next() (time.Time, bool) {
	if g.done {
		return time.Time{}, false
	}

	if g.rule == nil {
		g.done = true
		if g.start.Before(g.windowEnd) {
			return g.start, true
		}
		return time.Time{}, false
	}

	switch g.rule.Freq {
	case FreqDaily:
		t := g.start.AddDate(0, 0, g.step*g.rule.Interval)
		g.step++
		return g.take(t)

	case FreqMonthly:
		t := monthlyCandidate(g.start, g.step*g.rule.Interval)
		g.step++
		return g.take(t)

	case FreqWeekly:
		return g.nextWeekly()

	default:
		g.done = true
		return time.Time{}, false
	}
}

// take applies the shared stop conditions to a raw candidate and, if it
// survives, counts and returns it.
func (g *Generator) take(t time.Time) (time.Time, bool) {
	if g.rule.Until != nil && t.After(*g.rule.Until) {
		g.done = true
		return time.Time{}, false
	}
	if g.rule.Count > 0 && g.emitted >= g.rule.Count {
		g.done = true
		return time.Time{}, false
	}
	if !t.Before(g.windowEnd) {
		g.done = true
		return time.Time{}, false
	}
	g.emitted++
	return t, true
}

// nextWeekly scans the day cursor forward to the next day that is both in
// the weekday set and in an active week (week index divisible by the
// interval, weeks starting Monday as RFC5545's default WKST prescribes).
// The scan advances at most interval+1 weeks per call.
func (g *Generator) nextWeekly() (time.Time, bool) {
	anchorWeek := startOfWeekUTC(g.start)
	for {
		// Terminate scans that have run past every bound; the weekday set is
		// never empty so this is only reachable via the window/until guards.
		if !g.cursor.Before(g.windowEnd) {
			g.done = true
			return time.Time{}, false
		}
		if g.rule.Until != nil && g.cursor.After(*g.rule.Until) {
			g.done = true
			return time.Time{}, false
		}

		t := g.cursor
		g.cursor = g.cursor.AddDate(0, 0, 1)

		if !weekdayIn(g.days, t.Weekday()) {
			continue
		}
		if weeksBetween(anchorWeek, startOfWeekUTC(t))%g.rule.Interval != 0 {
			continue
		}
		return g.take(t)
	}
}

// monthlyCandidate returns the candidate `months` months after start,
// keeping start's day-of-month and clock time. A day-of-month that does not
// exist in the target month is clipped to the month's last day (a rule
// anchored on the 31st emits on Feb 28, then on Mar 31 again); the anchor
// day itself is never changed by clipping.
func monthlyCandidate(start time.Time, months int) time.Time {
	y, m, d := start.Date()
	hh, mm, ss := start.Clock()

	// Normalize the year/month by walking through day 1, then clip the day.
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	ty, tm, _ := first.Date()

	day := d
	if last := daysInMonth(ty, tm); day > last {
		day = last
	}
	return time.Date(ty, tm, day, hh, mm, ss, start.Nanosecond(), time.UTC)
}

func daysInMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// startOfWeekUTC returns midnight UTC of the Monday of t's week.
func startOfWeekUTC(t time.Time) time.Time {
	t = t.UTC()
	back := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -back).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weeksBetween returns the number of whole weeks from a to b, where both are
// Monday midnights in UTC.
func weeksBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours()) / (24 * 7)
}

func weekdayIn(days []time.Weekday, d time.Weekday) bool {
	for _, w := range days {
		if w == d {
			return true
		}
	}
	return false
}
