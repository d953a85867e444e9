package expand

import (
	"fmt"
	"time"
)

const exceptionDateLayout = "2006-01-02"

// InvalidExceptionDateError reports an exception-date entry that is not a
// well-formed ISO calendar date (YYYY-MM-DD, no time component).
type InvalidExceptionDateError struct {
	Value string
}

func (e *InvalidExceptionDateError) Error() string {
	return fmt.Sprintf("invalid exception date %q: want YYYY-MM-DD", e.Value)
}

// exceptionSet matches candidate occurrences against exception dates.
// Exceptions are calendar dates with no time-of-day or zone; a candidate is
// excluded when its *local* date in the rendering timezone equals an entry.
// Comparing against the UTC date instead would suppress the wrong day for
// zones west of Greenwich, the same defect class as the weekday mismatch.
type exceptionSet struct {
	dates map[string]bool
	loc   *time.Location
}

func newExceptionSet(entries []string, loc *time.Location) (exceptionSet, error) {
	set := exceptionSet{loc: loc}
	if len(entries) == 0 {
		return set, nil
	}
	set.dates = make(map[string]bool, len(entries))
	for _, entry := range entries {
		if _, err := time.Parse(exceptionDateLayout, entry); err != nil {
			return exceptionSet{}, &InvalidExceptionDateError{Value: entry}
		}
		set.dates[entry] = true
	}
	return set, nil
}

// excludes reports whether the candidate starting at startUTC falls on an
// exception date. The whole occurrence is suppressed; there are no
// partial-day exceptions.
func (s exceptionSet) excludes(startUTC time.Time) bool {
	if len(s.dates) == 0 {
		return false
	}
	return s.dates[startUTC.In(s.loc).Format(exceptionDateLayout)]
}
