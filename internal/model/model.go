package model

import "time"

// MasterEvent is the stored, possibly-recurring event definition from which
// concrete occurrences are derived. The expansion engine treats it as
// read-only input; persistence is owned by internal/store.
type MasterEvent struct {
	ID string

	Title    string
	Location string

	// Category groups events for filtering (e.g. school, after-school, family).
	Category string
	// Source records where the event definition came from (manual, ics, ...).
	Source    string
	CreatedBy string

	// StartUTC / EndUTC are the first occurrence's instants, stored in UTC.
	// EndUTC - StartUTC is the duration of every occurrence.
	StartUTC time.Time
	EndUTC   time.Time

	// RRule is the recurrence rule string (restricted RFC5545 subset).
	// Empty means a single non-recurring event.
	RRule string

	// ExDates lists calendar dates (YYYY-MM-DD) on which an otherwise
	// generated occurrence is suppressed. Dates are matched against the
	// occurrence's local date in the rendering timezone, not its UTC date.
	ExDates []string

	// ParticipantIDs are the family members this event applies to, carried
	// through unchanged to every occurrence.
	ParticipantIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the invariant occurrence duration.
func (e *MasterEvent) Duration() time.Duration {
	return e.EndUTC.Sub(e.StartUTC)
}

// Recurring reports whether the event carries a recurrence rule.
func (e *MasterEvent) Recurring() bool {
	return e.RRule != ""
}

// Occurrence represents a single concrete instance of a master event
// (after recurrence expansion and exception filtering).
//
// Occurrences are ephemeral: created fresh on every expansion call, never
// persisted by the engine, owned solely by the caller.
type Occurrence struct {
	// MasterID back-references the master event (lookup only).
	MasterID string

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the UTC start instant.
	InstanceKey string

	Title    string
	Location string
	Category string
	Source   string

	ParticipantIDs []string

	// StartUTC / EndUTC are this instance's concrete instants.
	// EndUTC - StartUTC always equals the master's duration.
	StartUTC time.Time
	EndUTC   time.Time

	// Recurring is false for the single instance of a non-recurring master.
	Recurring bool

	// OriginalStart is the master's StartUTC, i.e. the series anchor.
	OriginalStart time.Time
}
