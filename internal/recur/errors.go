package recur

import "fmt"

// MalformedRuleError reports a recurrence rule string that is syntactically
// invalid. The master event cannot be expanded until the rule is corrected.
type MalformedRuleError struct {
	Rule   string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed recurrence rule %q: %s", e.Rule, e.Reason)
}

// UnsupportedRuleError reports a syntactically valid rule that uses a
// recurrence feature outside the supported subset. Surfaced distinctly from
// MalformedRuleError so callers can report "not supported" rather than
// "invalid".
type UnsupportedRuleError struct {
	Rule    string
	Feature string
}

func (e *UnsupportedRuleError) Error() string {
	return fmt.Sprintf("unsupported recurrence feature %s in rule %q", e.Feature, e.Rule)
}

// InvariantViolationError reports a defensive check failure, e.g. an event
// whose end does not follow its start, or a stored weekday set that does not
// agree with the stored UTC start instant. It is reported, never silently
// corrected, and never produces partial output.
type InvariantViolationError struct {
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.Reason
}
