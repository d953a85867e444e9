package expand

import "time"

// Window helpers for the common "what's on today / this week" views. All of
// them take the reference instant explicitly ("now" is never read from
// ambient state) and return UTC instants bounding a half-open window.

// DayWindow returns the UTC window covering the local calendar day that
// contains ref in the rendering zone loc.
func DayWindow(ref time.Time, loc *time.Location) (time.Time, time.Time) {
	local := ref.In(loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// WeekWindow returns the UTC window covering the local week that contains
// ref in loc. weekStart selects the first day of the week and accepts
// "monday" (default) or "sunday".
func WeekWindow(ref time.Time, loc *time.Location, weekStart string) (time.Time, time.Time) {
	first := time.Monday
	if weekStart == "sunday" {
		first = time.Sunday
	}

	local := ref.In(loc)
	back := (int(local.Weekday()) - int(first) + 7) % 7
	y, m, d := local.AddDate(0, 0, -back).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 7).UTC()
}

// HorizonWindow returns the UTC window from the start of ref's local day
// spanning the given number of local days. Used by the CLI's agenda view.
func HorizonWindow(ref time.Time, loc *time.Location, days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 1
	}
	local := ref.In(loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, days).UTC()
}
