package recur

import (
	"strconv"
	"strings"
	"time"
)

// Weekday symbols in rule strings, per RFC5545.
var weekdayTokens = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

// Recognised RFC5545 RRULE keys that are outside the supported subset.
// These are rejected with UnsupportedRuleError rather than silently ignored.
var unsupportedKeys = map[string]bool{
	"BYSETPOS":   true,
	"BYMONTHDAY": true,
	"BYYEARDAY":  true,
	"BYWEEKNO":   true,
	"BYMONTH":    true,
	"BYHOUR":     true,
	"BYMINUTE":   true,
	"BYSECOND":   true,
	"WKST":       true,
}

var unsupportedFreqs = map[string]bool{
	"SECONDLY": true,
	"MINUTELY": true,
	"HOURLY":   true,
	"YEARLY":   true,
}

// untilLayouts are the accepted UNTIL formats: RFC3339 as stored by the
// application, and the RFC5545 basic form used in ICS interchange.
var untilLayouts = []string{
	time.RFC3339,
	"20060102T150405Z",
}

// ParseRule parses a compact key=value;-separated recurrence rule string
// (e.g. "FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=2025-12-20T00:00:00Z") into a Rule.
//
// A leading "RRULE:" prefix is accepted since stored rules appear both ways.
// ParseRule is a pure function of its input.
func ParseRule(s string) (*Rule, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "RRULE:")
	if s == "" {
		return nil, &MalformedRuleError{Rule: orig, Reason: "empty rule"}
	}

	rule := &Rule{Interval: 1}
	seenFreq := false

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || value == "" {
			return nil, &MalformedRuleError{Rule: orig, Reason: "component " + strconv.Quote(part) + " is not KEY=VALUE"}
		}
		key = strings.ToUpper(key)

		switch key {
		case "FREQ":
			freq, err := parseFreq(orig, strings.ToUpper(value))
			if err != nil {
				return nil, err
			}
			rule.Freq = freq
			seenFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, &MalformedRuleError{Rule: orig, Reason: "INTERVAL must be a positive integer, got " + strconv.Quote(value)}
			}
			rule.Interval = n

		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, &MalformedRuleError{Rule: orig, Reason: "COUNT must be a positive integer, got " + strconv.Quote(value)}
			}
			rule.Count = n

		case "UNTIL":
			t, err := parseUntil(value)
			if err != nil {
				return nil, &MalformedRuleError{Rule: orig, Reason: "UNTIL is not a valid instant: " + strconv.Quote(value)}
			}
			rule.Until = &t

		case "BYDAY":
			days, err := parseByDay(orig, value)
			if err != nil {
				return nil, err
			}
			rule.ByWeekday = days

		default:
			if unsupportedKeys[key] {
				return nil, &UnsupportedRuleError{Rule: orig, Feature: key}
			}
			return nil, &MalformedRuleError{Rule: orig, Reason: "unknown component " + strconv.Quote(key)}
		}
	}

	if !seenFreq {
		return nil, &MalformedRuleError{Rule: orig, Reason: "FREQ is required"}
	}

	// Weekday sets only make sense for WEEKLY rules in this subset. BYDAY on
	// DAILY is an illegal combination; BYDAY on MONTHLY would mean
	// monthly-by-weekday, which is outside the subset.
	if len(rule.ByWeekday) > 0 {
		switch rule.Freq {
		case FreqDaily:
			return nil, &MalformedRuleError{Rule: orig, Reason: "BYDAY is not allowed with FREQ=DAILY"}
		case FreqMonthly:
			return nil, &UnsupportedRuleError{Rule: orig, Feature: "BYDAY with FREQ=MONTHLY"}
		}
	}

	return rule, nil
}

// Validate checks a stored rule string, treating the empty string (a
// non-recurring event) as valid. Intended for write-time validation by
// callers that persist master events.
func Validate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := ParseRule(s)
	return err
}

func parseFreq(rule, value string) (Frequency, error) {
	switch value {
	case "DAILY":
		return FreqDaily, nil
	case "WEEKLY":
		return FreqWeekly, nil
	case "MONTHLY":
		return FreqMonthly, nil
	}
	if unsupportedFreqs[value] {
		return 0, &UnsupportedRuleError{Rule: rule, Feature: "FREQ=" + value}
	}
	return 0, &MalformedRuleError{Rule: rule, Reason: "FREQ must be DAILY, WEEKLY or MONTHLY, got " + strconv.Quote(value)}
}

func parseUntil(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range untilLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseByDay(rule, value string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(strings.ToUpper(tok))
		wd, ok := weekdayTokens[tok]
		if !ok {
			// Ordinal prefixes like 1FR / -1MO are valid RFC5545 but mean
			// by-set-position, which this engine does not implement.
			if len(tok) > 2 {
				if _, exists := weekdayTokens[tok[len(tok)-2:]]; exists {
					return nil, &UnsupportedRuleError{Rule: rule, Feature: "ordinal BYDAY token " + strconv.Quote(tok)}
				}
			}
			return nil, &MalformedRuleError{Rule: rule, Reason: "BYDAY token " + strconv.Quote(tok) + " is not a weekday"}
		}
		days = append(days, wd)
	}
	if len(days) == 0 {
		return nil, &MalformedRuleError{Rule: rule, Reason: "BYDAY is empty"}
	}
	return normalizeWeekdays(days), nil
}
