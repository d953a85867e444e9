package export

import (
	"fmt"
	"os"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"famcal/internal/model"
	"famcal/internal/recur"
)

const prodID = "-//famcal//calendar feed//EN"

// Masters serializes master event definitions into a VCALENDAR, one VEVENT
// per master with its recurrence expressed as an RRULE property and its
// exception dates as EXDATE properties. now is used for DTSTAMP and is
// passed in explicitly.
func Masters(events []model.MasterEvent, now time.Time) (*ics.Calendar, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(ev.StartUTC)
		ve.SetEndAt(ev.EndUTC)
		ve.SetSummary(ev.Title)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Category != "" {
			ve.AddProperty(ics.ComponentPropertyCategories, ev.Category)
		}

		if ev.Recurring() {
			rule, err := recur.ParseRule(ev.RRule)
			if err != nil {
				return nil, fmt.Errorf("export event %s: %w", ev.ID, err)
			}
			line, err := RRuleString(rule)
			if err != nil {
				return nil, fmt.Errorf("export event %s: %w", ev.ID, err)
			}
			ve.AddRrule(line)
		}

		for _, exdate := range ev.ExDates {
			d, err := time.Parse("2006-01-02", exdate)
			if err != nil {
				return nil, fmt.Errorf("export event %s: bad exception date %q", ev.ID, exdate)
			}
			ve.AddProperty(ics.ComponentPropertyExdate, d.Format("20060102"),
				&ics.KeyValues{Key: "VALUE", Value: []string{"DATE"}})
		}
	}

	return cal, nil
}

// Occurrences serializes expanded occurrences into a flat VCALENDAR feed,
// one plain VEVENT per instance. This is the feed a wall display consumes:
// recurrence is already resolved, so no RRULE appears.
func Occurrences(occs []model.Occurrence, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)

	for _, occ := range occs {
		ve := cal.AddEvent(occ.MasterID + "/" + occ.InstanceKey)
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(occ.StartUTC)
		ve.SetEndAt(occ.EndUTC)
		ve.SetSummary(occ.Title)
		if occ.Location != "" {
			ve.SetLocation(occ.Location)
		}
		if occ.Category != "" {
			ve.AddProperty(ics.ComponentPropertyCategories, occ.Category)
		}
	}

	return cal
}

// WriteFile serializes cal to path with owner-only permissions.
func WriteFile(path string, cal *ics.Calendar) error {
	if path == "" {
		return fmt.Errorf("export: output path is empty")
	}
	return os.WriteFile(path, []byte(cal.Serialize()), 0o600)
}

// RRuleString renders an engine Rule as a canonical RFC5545 RRULE value
// (UNTIL in basic format, weekdays as MO..SU), validating the result through
// the rrule library.
func RRuleString(r *recur.Rule) (string, error) {
	opt := rrule.ROption{
		Interval: r.Interval,
		Count:    r.Count,
	}

	switch r.Freq {
	case recur.FreqDaily:
		opt.Freq = rrule.DAILY
	case recur.FreqWeekly:
		opt.Freq = rrule.WEEKLY
	case recur.FreqMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("export: unknown frequency %v", r.Freq)
	}

	for _, wd := range r.ByWeekday {
		opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
	}
	if r.Until != nil {
		opt.Until = r.Until.UTC()
	}

	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("export: rule rejected: %w", err)
	}
	return opt.RRuleString(), nil
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}
