package recur

import (
	"fmt"
	"time"
)

// This file owns the weekday/UTC consistency contract. Events are stored in
// UTC, and so are their rules' weekday sets; a "every Tuesday 16:30" event
// entered in a UTC-8 zone is stored as Wednesday 00:30 UTC with BYDAY=WE.
// Converting the instant without shifting the weekday set (or the other way
// round) makes weekly events render on the wrong day, so both directions go
// through this normalizer and nothing else rewrites weekday sets.

// NormalizeLocal converts a desired local wall-clock start time into the
// stored UTC representation. local carries its own location; rule, if
// non-nil, expresses the weekday set in the user's local terms.
//
// The returned rule has its weekday set re-expressed in UTC terms: when the
// local-to-UTC conversion crosses a calendar date boundary, every weekday in
// the set is shifted by the same signed number of days. The input rule is
// never mutated; a new Rule is derived when a shift is needed.
//
// A multi-weekday rule can only be shifted uniformly when the offset between
// the local zone and UTC is fixed across the rule's span. If the zone
// observes DST and a nonzero shift would be required, NormalizeLocal reports
// an InvariantViolationError instead of guessing.
func NormalizeLocal(local time.Time, rule *Rule) (time.Time, *Rule, error) {
	utc := local.UTC()

	if rule == nil || rule.Freq != FreqWeekly || len(rule.ByWeekday) == 0 {
		return utc, rule, nil
	}

	shift := dateBoundaryShift(local, utc)
	if shift == 0 {
		return utc, rule, nil
	}

	if len(rule.ByWeekday) > 1 && zoneObservesDST(local) {
		return time.Time{}, nil, &InvariantViolationError{
			Reason: fmt.Sprintf(
				"cannot shift weekday set %v uniformly: zone %s observes DST across the rule span",
				rule.ByWeekday, local.Location(),
			),
		}
	}

	return utc, rule.withWeekdays(shiftWeekdays(rule.ByWeekday, shift)), nil
}

// LocalWeekday derives the weekday to display for a stored UTC start instant
// by converting the instant into the rendering zone and reading its weekday.
// The stored UTC weekday set must never be presented unconverted.
func LocalWeekday(startUTC time.Time, loc *time.Location) time.Weekday {
	return startUTC.In(loc).Weekday()
}

// LocalRuleWeekdays converts a stored UTC-expressed weekday set back into
// the rendering zone for display, shifting every member by the date-boundary
// delta observed when converting startUTC into loc. The same DST restriction
// as NormalizeLocal applies to multi-weekday sets.
func LocalRuleWeekdays(startUTC time.Time, rule *Rule, loc *time.Location) ([]time.Weekday, error) {
	if rule == nil || len(rule.ByWeekday) == 0 {
		return nil, nil
	}

	local := startUTC.In(loc)
	shift := dateBoundaryShift(startUTC.UTC(), local)
	if shift == 0 {
		return append([]time.Weekday(nil), rule.ByWeekday...), nil
	}
	if len(rule.ByWeekday) > 1 && zoneObservesDST(local) {
		return nil, &InvariantViolationError{
			Reason: fmt.Sprintf(
				"cannot shift weekday set %v uniformly into zone %s: zone observes DST across the rule span",
				rule.ByWeekday, loc,
			),
		}
	}
	return normalizeWeekdays(shiftWeekdays(rule.ByWeekday, shift)), nil
}

// CheckWeekdayAlignment enforces the storage invariant for WEEKLY rules: the
// UTC weekday of the series start must be a member of the UTC-expressed
// weekday set. A mismatch means the event was stored without going through
// NormalizeLocal (the classic wrong-weekday bug) and is reported, never
// repaired by guessing which side is authoritative.
func CheckWeekdayAlignment(startUTC time.Time, rule *Rule) error {
	if rule == nil || rule.Freq != FreqWeekly || len(rule.ByWeekday) == 0 {
		return nil
	}
	wd := startUTC.UTC().Weekday()
	if !rule.HasWeekday(wd) {
		return &InvariantViolationError{
			Reason: fmt.Sprintf(
				"series starts on %s (UTC) but rule weekday set is %v; start and BYDAY were stored inconsistently",
				wd, rule.ByWeekday,
			),
		}
	}
	return nil
}

// dateBoundaryShift returns the signed number of calendar days gained when
// re-expressing the instant from into the representation to. Both arguments
// are the same instant; only their locations differ. The result is -1, 0 or
// +1 for any real zone offset.
func dateBoundaryShift(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func shiftWeekdays(days []time.Weekday, shift int) []time.Weekday {
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(((int(d)+shift)%7 + 7) % 7)
	}
	return out
}

// zoneObservesDST reports whether t's zone uses a different UTC offset half
// a year away from t, i.e. whether a rule spanning months can straddle a
// transition. Checked in both directions so the answer does not depend on
// which side of a transition t falls.
func zoneObservesDST(t time.Time) bool {
	_, off := t.Zone()
	_, fwd := t.AddDate(0, 6, 0).Zone()
	_, back := t.AddDate(0, -6, 0).Zone()
	return off != fwd || off != back
}
