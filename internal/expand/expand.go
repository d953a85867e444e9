package expand

import (
	"fmt"
	"slices"
	"time"

	"famcal/internal/log"
	"famcal/internal/model"
	"famcal/internal/recur"
)

const defaultMaxOccurrencesPerEvent = 5000

// Options controls how a master event is expanded into occurrences.
// Everything is explicit: the rendering timezone and the query window are
// parameters on every call, never read from process-wide state.
type Options struct {
	// Location is the rendering timezone used for exception-date matching
	// and local-weekday derivation. If nil, UTC is used.
	Location *time.Location

	// WindowStart / WindowEnd define the half-open query window
	// [WindowStart, WindowEnd). An occurrence is emitted when its own
	// [start, end) overlaps the window; it is never clipped to it.
	WindowStart time.Time
	WindowEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap against runaway rules. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int

	// ParticipantID, if set, limits multi-event expansion to masters whose
	// participant set contains it.
	ParticipantID string

	// Category, if set, limits multi-event expansion to masters with that
	// category.
	Category string
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) cap() int {
	if o.MaxOccurrencesPerEvent <= 0 {
		return defaultMaxOccurrencesPerEvent
	}
	return o.MaxOccurrencesPerEvent
}

// FailedEvent records a master that could not be expanded, together with the
// error that rejected it. Expansion is all-or-nothing per master: a failing
// master contributes no occurrences at all.
type FailedEvent struct {
	MasterID string
	Err      error
}

// Result wraps the occurrences from a multi-event expansion plus any
// truncation or per-master failures.
type Result struct {
	Occurrences []model.Occurrence
	// Truncated records master IDs that hit the MaxOccurrencesPerEvent cap.
	Truncated []string
	// Failed records masters rejected by validation or rule parsing.
	Failed []FailedEvent
}

// Events expands a set of master events against one query window, applying
// the optional participant/category filters, and returns the union of their
// occurrences sorted by start instant. Failing masters are reported in
// Result.Failed and skipped; the remaining masters still expand.
func Events(masters []model.MasterEvent, opts Options) (Result, error) {
	var result Result

	if opts.WindowEnd.Before(opts.WindowStart) {
		return result, fmt.Errorf("expand: window end %s is before window start %s",
			opts.WindowEnd.Format(time.RFC3339), opts.WindowStart.Format(time.RFC3339))
	}

	for _, ev := range masters {
		if !matchesFilters(ev, opts) {
			continue
		}
		occ, truncated, err := expandOne(ev, opts)
		if err != nil {
			log.Error("expand: master event rejected", err, "master_id", ev.ID)
			result.Failed = append(result.Failed, FailedEvent{MasterID: ev.ID, Err: err})
			continue
		}
		if truncated {
			log.Error("expand: occurrence cap hit", fmt.Errorf("max occurrences reached"),
				"master_id", ev.ID, "cap", opts.cap())
			result.Truncated = append(result.Truncated, ev.ID)
		}
		result.Occurrences = append(result.Occurrences, occ...)
	}

	slices.SortFunc(result.Occurrences, func(a, b model.Occurrence) int {
		if c := a.StartUTC.Compare(b.StartUTC); c != 0 {
			return c
		}
		if a.MasterID < b.MasterID {
			return -1
		}
		if a.MasterID > b.MasterID {
			return 1
		}
		return 0
	})

	return result, nil
}

// Event expands a single master event against one query window. Same inputs
// always yield the same occurrences in the same order; on error no
// occurrences are returned.
func Event(ev model.MasterEvent, opts Options) ([]model.Occurrence, error) {
	if opts.WindowEnd.Before(opts.WindowStart) {
		return nil, fmt.Errorf("expand: window end %s is before window start %s",
			opts.WindowEnd.Format(time.RFC3339), opts.WindowStart.Format(time.RFC3339))
	}
	occ, truncated, err := expandOne(ev, opts)
	if err != nil {
		return nil, err
	}
	if truncated {
		log.Error("expand: occurrence cap hit", fmt.Errorf("max occurrences reached"),
			"master_id", ev.ID, "cap", opts.cap())
	}
	return occ, nil
}

func expandOne(ev model.MasterEvent, opts Options) ([]model.Occurrence, bool, error) {
	if !ev.EndUTC.After(ev.StartUTC) {
		return nil, false, &recur.InvariantViolationError{
			Reason: fmt.Sprintf("event %s: end %s does not follow start %s",
				ev.ID, ev.EndUTC.Format(time.RFC3339), ev.StartUTC.Format(time.RFC3339)),
		}
	}

	exceptions, err := newExceptionSet(ev.ExDates, opts.location())
	if err != nil {
		return nil, false, err
	}

	var rule *recur.Rule
	if ev.Recurring() {
		rule, err = recur.ParseRule(ev.RRule)
		if err != nil {
			return nil, false, err
		}
		if err := recur.CheckWeekdayAlignment(ev.StartUTC, rule); err != nil {
			return nil, false, err
		}
	}

	duration := ev.Duration()
	maxOcc := opts.cap()

	var (
		out       []model.Occurrence
		truncated bool
	)

	gen := recur.NewGenerator(ev.StartUTC, rule, opts.WindowEnd)
	for {
		start, ok := gen.Next()
		if !ok {
			break
		}
		// Window test: does [start, start+duration) overlap the window?
		// Candidates ending on or before WindowStart still consumed COUNT
		// inside the generator; they are only dropped from the output.
		if !start.Add(duration).After(opts.WindowStart) {
			continue
		}
		if exceptions.excludes(start) {
			continue
		}
		if len(out) >= maxOcc {
			truncated = true
			break
		}
		out = append(out, makeOccurrence(ev, start, duration, rule != nil))
	}

	return out, truncated, nil
}

func matchesFilters(ev model.MasterEvent, opts Options) bool {
	if opts.Category != "" && ev.Category != opts.Category {
		return false
	}
	if opts.ParticipantID != "" && !slices.Contains(ev.ParticipantIDs, opts.ParticipantID) {
		return false
	}
	return true
}

// makeOccurrence builds the concrete instance for one surviving candidate.
// Descriptive fields are copied verbatim from the master; the end instant is
// derived from the master's invariant duration, never clipped to the window.
func makeOccurrence(ev model.MasterEvent, startUTC time.Time, duration time.Duration, recurring bool) model.Occurrence {
	return model.Occurrence{
		MasterID:       ev.ID,
		InstanceKey:    startUTC.UTC().Format(time.RFC3339),
		Title:          ev.Title,
		Location:       ev.Location,
		Category:       ev.Category,
		Source:         ev.Source,
		ParticipantIDs: append([]string(nil), ev.ParticipantIDs...),
		StartUTC:       startUTC,
		EndUTC:         startUTC.Add(duration),
		Recurring:      recurring,
		OriginalStart:  ev.StartUTC,
	}
}
