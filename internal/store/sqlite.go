package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"famcal/internal/model"
	"famcal/internal/recur"
)

//go:embed schema.sql
var schema string

// Store persists master events in SQLite. It is the read collaborator the
// expansion engine pulls masters from; occurrences themselves are never
// persisted.
//
// Instants are stored as Unix seconds so range comparisons work in SQL
// without depending on a text timestamp format.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddEvent inserts a new master event and returns it with its minted ID and
// timestamps filled in. The recurrence rule is validated at write time so a
// malformed rule is rejected here instead of failing every later expansion.
func (s *Store) AddEvent(ev model.MasterEvent) (*model.MasterEvent, error) {
	if err := recur.Validate(ev.RRule); err != nil {
		return nil, fmt.Errorf("add event: %w", err)
	}
	if !ev.EndUTC.After(ev.StartUTC) {
		return nil, fmt.Errorf("add event: end %s does not follow start %s",
			ev.EndUTC.Format(time.RFC3339), ev.StartUTC.Format(time.RFC3339))
	}

	ev.ID = uuid.New().String()
	now := time.Now().UTC().Truncate(time.Second)
	ev.CreatedAt = now
	ev.UpdatedAt = now
	ev.StartUTC = ev.StartUTC.UTC()
	ev.EndUTC = ev.EndUTC.UTC()

	exdates, err := encodeStrings(ev.ExDates)
	if err != nil {
		return nil, fmt.Errorf("add event: %w", err)
	}
	participants, err := encodeStrings(ev.ParticipantIDs)
	if err != nil {
		return nil, fmt.Errorf("add event: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO events (id, title, location, category, source, created_by,
			start_utc, end_utc, rrule, exdates, participant_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Title, ev.Location, ev.Category, ev.Source, ev.CreatedBy,
		ev.StartUTC.Unix(), ev.EndUTC.Unix(), ev.RRule, exdates, participants,
		ev.CreatedAt.Unix(), ev.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return &ev, nil
}

// GetEvent retrieves a master event by ID.
func (s *Store) GetEvent(id string) (*model.MasterEvent, error) {
	row := s.db.QueryRow(selectColumns+" FROM events WHERE id = ?", id)
	ev, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ListEvents returns all master events ordered by start instant.
func (s *Store) ListEvents() ([]model.MasterEvent, error) {
	return s.list(selectColumns + " FROM events ORDER BY start_utc, id")
}

// ListCandidates returns the master events whose series could intersect a
// window ending at windowEnd, i.e. those starting before it. Recurring
// events have no stored upper bound, so the lower edge cannot be narrowed
// in SQL; the expansion engine applies the real overlap test.
func (s *Store) ListCandidates(windowEnd time.Time) ([]model.MasterEvent, error) {
	return s.list(selectColumns+" FROM events WHERE start_utc < ? ORDER BY start_utc, id",
		windowEnd.UTC().Unix())
}

// DeleteEvent removes a master event by ID.
func (s *Store) DeleteEvent(id string) error {
	res, err := s.db.Exec("DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const selectColumns = `SELECT id, title, location, category, source, created_by,
	start_utc, end_utc, rrule, exdates, participant_ids, created_at, updated_at`

func (s *Store) list(query string, args ...any) ([]model.MasterEvent, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.MasterEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.MasterEvent, error) {
	var (
		ev                         model.MasterEvent
		location, createdBy, rrule sql.NullString
		exdates, participants      sql.NullString
		startUnix, endUnix         int64
		createdUnix, updatedUnix   int64
	)

	err := row.Scan(&ev.ID, &ev.Title, &location, &ev.Category, &ev.Source, &createdBy,
		&startUnix, &endUnix, &rrule, &exdates, &participants, &createdUnix, &updatedUnix)
	if err != nil {
		return nil, err
	}

	ev.Location = location.String
	ev.CreatedBy = createdBy.String
	ev.RRule = rrule.String
	ev.StartUTC = time.Unix(startUnix, 0).UTC()
	ev.EndUTC = time.Unix(endUnix, 0).UTC()
	ev.CreatedAt = time.Unix(createdUnix, 0).UTC()
	ev.UpdatedAt = time.Unix(updatedUnix, 0).UTC()

	if ev.ExDates, err = decodeStrings(exdates); err != nil {
		return nil, fmt.Errorf("decode exdates: %w", err)
	}
	if ev.ParticipantIDs, err = decodeStrings(participants); err != nil {
		return nil, fmt.Errorf("decode participant ids: %w", err)
	}

	return &ev, nil
}

func encodeStrings(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeStrings(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(v.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}
