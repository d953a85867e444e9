package recur

import (
	"sort"
	"time"
)

// Frequency is the closed set of supported recurrence frequencies.
type Frequency int

const (
	FreqDaily Frequency = iota
	FreqWeekly
	FreqMonthly
)

func (f Frequency) String() string {
	switch f {
	case FreqDaily:
		return "DAILY"
	case FreqWeekly:
		return "WEEKLY"
	case FreqMonthly:
		return "MONTHLY"
	default:
		return "UNKNOWN"
	}
}

// Rule is a parsed recurrence rule. Rules are immutable after parsing:
// normalization derives a new Rule rather than mutating one in place, so a
// Rule value can be shared freely between goroutines.
//
// Illegal field combinations (BYDAY on a DAILY or MONTHLY rule) are rejected
// by the parser and by NormalizeLocal, so a Rule obtained from this package
// never carries them.
type Rule struct {
	Freq Frequency

	// Interval is the step between periods; always >= 1.
	Interval int

	// ByWeekday restricts WEEKLY rules to a set of weekdays, expressed in
	// UTC terms (see NormalizeLocal). Sorted, no duplicates. Empty means
	// "the UTC weekday of the series start".
	ByWeekday []time.Weekday

	// Until, if non-nil, is the last instant an occurrence may start at
	// (inclusive).
	Until *time.Time

	// Count, if > 0, caps the total number of generated occurrences,
	// counted from the series start regardless of any query window.
	Count int
}

// HasWeekday reports whether d is in the rule's weekday set.
func (r *Rule) HasWeekday(d time.Weekday) bool {
	for _, w := range r.ByWeekday {
		if w == d {
			return true
		}
	}
	return false
}

// WeekdaySet returns the effective weekday set for a WEEKLY rule anchored at
// start: ByWeekday when present, otherwise the UTC weekday of start.
func (r *Rule) WeekdaySet(start time.Time) []time.Weekday {
	if len(r.ByWeekday) > 0 {
		return r.ByWeekday
	}
	return []time.Weekday{start.UTC().Weekday()}
}

// withWeekdays returns a copy of r with the given weekday set, normalized to
// sorted order without duplicates. Used by normalization to re-derive rules.
func (r *Rule) withWeekdays(days []time.Weekday) *Rule {
	out := *r
	out.ByWeekday = normalizeWeekdays(days)
	return &out
}

func normalizeWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
