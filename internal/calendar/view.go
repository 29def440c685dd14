package calendar

import (
	"time"

	"github.com/myrjola/coach21k/internal/plan"
)

// View is the calendar page state: the workout list, its months, the active month and the selected workout.
//
// Methods return modified copies. Month navigation drops a selection that falls outside the newly active month so
// that the detail panel always belongs to the visible grid.
type View struct {
	Workouts     []plan.Workout
	Months       []Month
	Index        int
	Selected     plan.Workout
	HasSelection bool
}

// NewView selects the default workout and activates its month.
func NewView(workouts []plan.Workout, today time.Time) View {
	v := View{
		Workouts:     workouts,
		Months:       BuildMonths(workouts),
		Index:        0,
		Selected:     plan.Workout{},
		HasSelection: false,
	}
	if w, ok := DefaultWorkout(SortByDate(workouts), today); ok {
		v = v.selectWorkout(w)
	}
	return v
}

func (v View) selectWorkout(w plan.Workout) View {
	v.Selected = w
	v.HasSelection = true
	if year, month, ok := w.YearMonth(); ok {
		if i := MonthIndex(v.Months, year, month); i >= 0 {
			v.Index = i
		}
	}
	return v
}

func (v View) clearSelectionOutsideMonth() View {
	if !v.HasSelection || len(v.Months) == 0 {
		return v
	}
	if !v.Months[v.Index].Contains(v.Selected.Date) {
		v.Selected = plan.Workout{}
		v.HasSelection = false
	}
	return v
}

// Month returns the active month, or the placeholder for today when there are no months.
func (v View) Month(today time.Time) Month {
	if len(v.Months) == 0 {
		return Placeholder(today)
	}
	return v.Months[v.Index]
}

// Adjacent returns the month delta steps away from the active one when it exists.
func (v View) Adjacent(delta int) (Month, bool) {
	i := v.Index + delta
	if i < 0 || i >= len(v.Months) {
		return Month{}, false
	}
	return v.Months[i], true
}

// Navigate moves the active month by delta, clamped to the available months.
func (v View) Navigate(delta int) View {
	v.Index = NavigateMonth(v.Index, delta, len(v.Months))
	return v.clearSelectionOutsideMonth()
}

// ShowMonth activates the given month. It reports false and leaves v unchanged when the month has no workouts.
func (v View) ShowMonth(year int, month time.Month) (View, bool) {
	i := MonthIndex(v.Months, year, month)
	if i < 0 {
		return v, false
	}
	v.Index = i
	return v.clearSelectionOutsideMonth(), true
}

// SelectDate selects the first workout dated date and activates its month. Picking a day without workouts clears
// the selection.
func (v View) SelectDate(date string) View {
	if w, ok := SelectDate(v.Workouts, date); ok {
		return v.selectWorkout(w)
	}
	v.Selected = plan.Workout{}
	v.HasSelection = false
	return v
}

// MarkDone removes the workout from the view. The active month stays put when it still has workouts; otherwise the
// index is clamped. A selection pointing at the workout is cleared.
func (v View) MarkDone(id plan.ID) View {
	var active Month
	if len(v.Months) > 0 {
		active = v.Months[v.Index]
	}
	v.Workouts = MarkDone(v.Workouts, id)
	v.Months = BuildMonths(v.Workouts)
	if i := MonthIndex(v.Months, active.Year, active.Month); i >= 0 {
		v.Index = i
	} else {
		v.Index = NavigateMonth(v.Index, 0, len(v.Months))
	}
	if v.HasSelection && v.Selected.ID == id {
		v.Selected = plan.Workout{}
		v.HasSelection = false
	}
	return v
}

// Grid lays out the active month.
func (v View) Grid(today time.Time) [][]Cell {
	m := v.Month(today)
	return Grid(m.Year, m.Month, m.Workouts, today)
}
