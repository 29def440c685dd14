// Package calendar groups a flat list of dated workouts into calendar months and lays a month out as a
// Monday-first grid.
//
// Every function here is pure. Callers own the workout list and the transient selection state; see [View] for the
// state transitions used by the calendar page.
package calendar

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/myrjola/coach21k/internal/plan"
)

const daysPerWeek = 7

// Month is the bucket of workouts dated within one calendar month.
type Month struct {
	Year  int
	Month time.Month
	// Label is the English "Month Year" label. Localised labels are produced at render time.
	Label    string
	Workouts []plan.Workout
}

// Key formats the month as YYYY-MM.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Contains reports whether date (YYYY-MM-DD) falls in the month.
func (m Month) Contains(date string) bool {
	year, month, ok := plan.Workout{Date: date}.YearMonth()
	return ok && year == m.Year && month == m.Month
}

func newMonth(year int, month time.Month) Month {
	return Month{
		Year:     year,
		Month:    month,
		Label:    fmt.Sprintf("%s %d", month.String(), year),
		Workouts: nil,
	}
}

// Placeholder is the empty month shown for today when there are no workouts. It never takes part in aggregation.
func Placeholder(today time.Time) Month {
	return newMonth(today.Year(), today.Month())
}

// ParseMonthKey parses YYYY-MM.
func ParseMonthKey(key string) (int, time.Month, bool) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// SortByDate returns a copy of the workouts that have a YYYY-MM-DD date, ordered by date ascending.
// Workouts sharing a date keep their input order.
func SortByDate(workouts []plan.Workout) []plan.Workout {
	dated := make([]plan.Workout, 0, len(workouts))
	for _, w := range workouts {
		if _, _, ok := w.YearMonth(); ok {
			dated = append(dated, w)
		}
	}
	slices.SortStableFunc(dated, func(a, b plan.Workout) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return dated
}

// BuildMonths buckets workouts by the year and month of their date. Months are ascending, unique, and never empty.
// Workouts without a YYYY-MM-DD date are left out. The input is not modified.
func BuildMonths(workouts []plan.Workout) []Month {
	var months []Month
	for _, w := range SortByDate(workouts) {
		year, month, _ := w.YearMonth()
		n := len(months)
		if n == 0 || months[n-1].Year != year || months[n-1].Month != month {
			months = append(months, newMonth(year, month))
			n++
		}
		months[n-1].Workouts = append(months[n-1].Workouts, w)
	}
	return months
}

// DefaultWorkout picks the first workout dated on or after today's date, ignoring the time of day. If every workout
// is in the past it picks the first one. sorted must be ordered as returned by SortByDate.
func DefaultWorkout(sorted []plan.Workout, today time.Time) (plan.Workout, bool) {
	if len(sorted) == 0 {
		return plan.Workout{}, false
	}
	todayDate := today.Format(time.DateOnly)
	for _, w := range sorted {
		if w.Date >= todayDate {
			return w, true
		}
	}
	return sorted[0], true
}

// MonthIndex returns the index of the month matching year and month, or -1.
func MonthIndex(months []Month, year int, month time.Month) int {
	return slices.IndexFunc(months, func(m Month) bool {
		return m.Year == year && m.Month == month
	})
}

// SelectDate returns the first workout dated exactly date.
func SelectDate(workouts []plan.Workout, date string) (plan.Workout, bool) {
	i := slices.IndexFunc(workouts, func(w plan.Workout) bool { return w.Date == date })
	if i < 0 {
		return plan.Workout{}, false
	}
	return workouts[i], true
}

// WorkoutsOn returns every workout dated exactly date in input order.
func WorkoutsOn(workouts []plan.Workout, date string) []plan.Workout {
	var on []plan.Workout
	for _, w := range workouts {
		if w.Date == date {
			on = append(on, w)
		}
	}
	return on
}

// NavigateMonth moves current by delta and clamps the result to [0, count-1]. It returns 0 when count is 0.
func NavigateMonth(current, delta, count int) int {
	if count <= 0 {
		return 0
	}
	return min(max(current+delta, 0), count-1)
}

// Cell is one day in the month grid. Padding cells have Day 0.
type Cell struct {
	Day        int
	Date       string
	HasWorkout bool
	IsToday    bool
}

// Empty reports whether the cell pads the grid before day 1 or after the last day.
func (c Cell) Empty() bool {
	return c.Day == 0
}

// Grid lays out the month as weeks of seven cells starting on Monday. The first week is left-padded so that day 1
// lands on its weekday and the last week is right-padded. HasWorkout is set for days with a workout dated exactly
// that day. IsToday only highlights and is independent of HasWorkout.
func Grid(year int, month time.Month, workouts []plan.Workout, today time.Time) [][]Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) + daysPerWeek - 1) % daysPerWeek
	days := first.AddDate(0, 1, -1).Day()

	withWorkout := make(map[string]bool, len(workouts))
	for _, w := range workouts {
		withWorkout[w.Date] = true
	}
	todayDate := today.Format(time.DateOnly)

	cells := make([]Cell, lead, lead+days+daysPerWeek)
	for day := 1; day <= days; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
		cells = append(cells, Cell{
			Day:        day,
			Date:       date,
			HasWorkout: withWorkout[date],
			IsToday:    date == todayDate,
		})
	}
	for len(cells)%daysPerWeek != 0 {
		cells = append(cells, Cell{}) //nolint:exhaustruct // padding.
	}

	weeks := make([][]Cell, 0, len(cells)/daysPerWeek)
	for start := 0; start < len(cells); start += daysPerWeek {
		weeks = append(weeks, cells[start:start+daysPerWeek])
	}
	return weeks
}

// MarkDone returns a new list without the workout identified by id, keeping the relative order of the rest.
func MarkDone(workouts []plan.Workout, id plan.ID) []plan.Workout {
	remaining := make([]plan.Workout, 0, len(workouts))
	for _, w := range workouts {
		if w.ID != id {
			remaining = append(remaining, w)
		}
	}
	return remaining
}
