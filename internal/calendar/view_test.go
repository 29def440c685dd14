package calendar_test

import (
	"testing"
	"time"

	"github.com/myrjola/coach21k/internal/calendar"
	"github.com/myrjola/coach21k/internal/plan"
)

func planWorkouts() []plan.Workout {
	return []plan.Workout{
		workout("1", "2024-03-02"),
		workout("2", "2024-03-09"),
		workout("3", "2024-04-01"),
	}
}

func TestNewView(t *testing.T) {
	v := calendar.NewView(planWorkouts(), day("2024-03-05"))

	if len(v.Months) != 2 {
		t.Fatalf("months = %d, want 2", len(v.Months))
	}
	if !v.HasSelection || v.Selected.ID != "2" {
		t.Errorf("selected = %q, want 2", v.Selected.ID)
	}
	if got := v.Month(day("2024-03-05")).Key(); got != "2024-03" {
		t.Errorf("active month = %s, want 2024-03", got)
	}
}

func TestNewView_selectionActivatesLaterMonth(t *testing.T) {
	v := calendar.NewView(planWorkouts(), day("2024-03-20"))
	if v.Selected.ID != "3" || v.Index != 1 {
		t.Errorf("selected = %q at index %d, want 3 at index 1", v.Selected.ID, v.Index)
	}
}

func TestNewView_empty(t *testing.T) {
	today := day("2026-10-18")
	v := calendar.NewView(nil, today)
	if v.HasSelection {
		t.Error("empty view has a selection")
	}
	if got := v.Month(today); got.Key() != "2026-10" || len(got.Workouts) != 0 {
		t.Errorf("Month() = %+v, want the placeholder", got)
	}
	if len(v.Grid(today)) == 0 {
		t.Error("placeholder grid is empty")
	}
	if v = v.Navigate(1); v.Index != 0 {
		t.Errorf("Navigate() on empty view moved to %d", v.Index)
	}
}

func TestView_Navigate(t *testing.T) {
	v := calendar.NewView(planWorkouts(), day("2024-03-05"))

	next := v.Navigate(1)
	if next.Index != 1 {
		t.Fatalf("Navigate(1) index = %d, want 1", next.Index)
	}
	if next.HasSelection {
		t.Errorf("selection %q outside the active month was kept", next.Selected.ID)
	}
	if clamped := next.Navigate(1); clamped.Index != 1 {
		t.Errorf("Navigate past the end = %d, want 1", clamped.Index)
	}
	if !v.HasSelection {
		t.Error("Navigate modified the receiver")
	}

	back := next.Navigate(-1)
	if back.Index != 0 || back.HasSelection {
		t.Errorf("Navigate(-1) = index %d selection %v, want 0 without selection", back.Index, back.HasSelection)
	}

	if _, ok := v.Adjacent(-1); ok {
		t.Error("Adjacent(-1) exists before the first month")
	}
	if m, ok := v.Adjacent(1); !ok || m.Key() != "2024-04" {
		t.Errorf("Adjacent(1) = %s, %v, want 2024-04", m.Key(), ok)
	}
}

func TestView_ShowMonth(t *testing.T) {
	v := calendar.NewView(planWorkouts(), day("2024-03-05"))

	shown, ok := v.ShowMonth(2024, time.April)
	if !ok || shown.Index != 1 || shown.HasSelection {
		t.Errorf("ShowMonth(April) = index %d ok %v selection %v", shown.Index, ok, shown.HasSelection)
	}
	same, ok := v.ShowMonth(2024, time.March)
	if !ok || !same.HasSelection {
		t.Error("ShowMonth of the selected month cleared the selection")
	}
	if _, ok = v.ShowMonth(2023, time.January); ok {
		t.Error("ShowMonth accepted a month without workouts")
	}
}

func TestView_SelectDate(t *testing.T) {
	v := calendar.NewView(planWorkouts(), day("2024-03-05"))

	april := v.SelectDate("2024-04-01")
	if april.Selected.ID != "3" || april.Index != 1 {
		t.Errorf("SelectDate(2024-04-01) = %q at %d, want 3 at 1", april.Selected.ID, april.Index)
	}
	none := april.SelectDate("2024-04-02")
	if none.HasSelection || none.Index != 1 {
		t.Errorf("SelectDate(empty day) = selection %v at %d", none.HasSelection, none.Index)
	}
}

func TestView_MarkDone(t *testing.T) {
	v := calendar.NewView(planWorkouts(), day("2024-03-05"))

	done := v.MarkDone("2")
	if done.HasSelection {
		t.Error("selection of the completed workout was kept")
	}
	if len(done.Workouts) != 2 || done.Index != 0 {
		t.Errorf("after MarkDone(2): %d workouts at index %d", len(done.Workouts), done.Index)
	}

	onApril := v.Navigate(1).MarkDone("3")
	if len(onApril.Months) != 1 || onApril.Index != 0 {
		t.Errorf("emptied month: %d months at index %d, want 1 at 0", len(onApril.Months), onApril.Index)
	}

	all := v.MarkDone("1").MarkDone("2").MarkDone("3")
	if len(all.Months) != 0 || all.Index != 0 {
		t.Errorf("all done: %d months at index %d", len(all.Months), all.Index)
	}
}
