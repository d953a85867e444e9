package export

import (
	"strings"
	"testing"
	"time"

	"famcal/internal/model"
	"famcal/internal/recur"
)

var stamp = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func TestRRuleString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "weekly with weekdays and until",
			in:   "FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=2025-12-20T00:00:00Z",
			want: []string{"FREQ=WEEKLY", "BYDAY=TU,TH", "UNTIL=20251220T000000Z"},
		},
		{
			name: "daily with interval",
			in:   "FREQ=DAILY;INTERVAL=2",
			want: []string{"FREQ=DAILY", "INTERVAL=2"},
		},
		{
			name: "monthly with count",
			in:   "FREQ=MONTHLY;COUNT=3",
			want: []string{"FREQ=MONTHLY", "COUNT=3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := recur.ParseRule(tt.in)
			if err != nil {
				t.Fatalf("ParseRule: %v", err)
			}
			got, err := RRuleString(rule)
			if err != nil {
				t.Fatalf("RRuleString: %v", err)
			}
			for _, part := range tt.want {
				if !strings.Contains(got, part) {
					t.Errorf("RRuleString(%q) = %q, missing %q", tt.in, got, part)
				}
			}
		})
	}
}

func TestMasters(t *testing.T) {
	events := []model.MasterEvent{{
		ID:       "ev-1",
		Title:    "Soccer practice",
		Location: "Community field",
		Category: "after-school",
		StartUTC: time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC),
		EndUTC:   time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC),
		RRule:    "FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=2025-12-20T00:00:00Z",
		ExDates:  []string{"2025-10-01"},
	}}

	cal, err := Masters(events, stamp)
	if err != nil {
		t.Fatalf("Masters: %v", err)
	}
	out := cal.Serialize()

	for _, want := range []string{
		"BEGIN:VEVENT",
		"UID:ev-1",
		"SUMMARY:Soccer practice",
		"LOCATION:Community field",
		"RRULE:FREQ=WEEKLY",
		"UNTIL=20251220T000000Z",
		"EXDATE;VALUE=DATE:20251001",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("serialized calendar missing %q:\n%s", want, out)
		}
	}
}

func TestMastersRejectsBadRule(t *testing.T) {
	events := []model.MasterEvent{{
		ID:       "ev-bad",
		Title:    "Broken",
		StartUTC: time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC),
		EndUTC:   time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC),
		RRule:    "FREQ=NEVER",
	}}
	if _, err := Masters(events, stamp); err == nil {
		t.Fatal("bad rule accepted")
	}
}

func TestOccurrences(t *testing.T) {
	occs := []model.Occurrence{{
		MasterID:    "ev-1",
		InstanceKey: "2025-09-02T08:00:00Z",
		Title:       "Soccer practice",
		StartUTC:    time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC),
		EndUTC:      time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC),
		Recurring:   true,
	}}

	out := Occurrences(occs, stamp).Serialize()

	for _, want := range []string{
		"UID:ev-1/2025-09-02T08:00:00Z",
		"DTSTART:20250902T080000Z",
		"DTEND:20250902T090000Z",
		"SUMMARY:Soccer practice",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("serialized feed missing %q:\n%s", want, out)
		}
	}
	// An occurrence feed carries no recurrence machinery.
	if strings.Contains(out, "RRULE") {
		t.Error("occurrence feed contains RRULE")
	}
}
