package calendar_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/coach21k/internal/calendar"
	"github.com/myrjola/coach21k/internal/plan"
)

func workout(id, date string) plan.Workout {
	return plan.Workout{ID: plan.ID(id), Date: date} //nolint:exhaustruct // only identity matters here.
}

func ids(workouts []plan.Workout) []string {
	out := make([]string, len(workouts))
	for i, w := range workouts {
		out[i] = string(w.ID)
	}
	return out
}

func day(date string) time.Time {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return t.Add(15 * time.Hour)
}

func TestBuildMonths(t *testing.T) {
	workouts := []plan.Workout{
		workout("3", "2024-04-01"),
		workout("x", "not a date"),
		workout("2", "2024-03-09"),
		workout("1", "2024-03-02"),
		workout("y", ""),
		workout("4", "2025-03-01"),
	}
	months := calendar.BuildMonths(workouts)

	type summary struct {
		Key      string
		Label    string
		Workouts []string
	}
	got := make([]summary, len(months))
	for i, m := range months {
		got[i] = summary{Key: m.Key(), Label: m.Label, Workouts: ids(m.Workouts)}
	}
	want := []summary{
		{Key: "2024-03", Label: "March 2024", Workouts: []string{"1", "2"}},
		{Key: "2024-04", Label: "April 2024", Workouts: []string{"3"}},
		{Key: "2025-03", Label: "March 2025", Workouts: []string{"4"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildMonths() mismatch (-want +got):\n%s", diff)
	}
	if workouts[0].ID != "3" {
		t.Error("BuildMonths() reordered its input")
	}
}

func TestBuildMonths_impossibleDayKeepsMonth(t *testing.T) {
	months := calendar.BuildMonths([]plan.Workout{
		workout("2", "2024-02-30"),
		workout("1", "2024-02-28"),
		workout("x", "2024-13-01"),
	})
	if len(months) != 1 || months[0].Key() != "2024-02" {
		t.Fatalf("BuildMonths() = %v, want February 2024 only", months)
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids(months[0].Workouts)); diff != "" {
		t.Errorf("February workouts mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMonths_empty(t *testing.T) {
	if months := calendar.BuildMonths(nil); len(months) != 0 {
		t.Errorf("BuildMonths(nil) = %v, want none", months)
	}
	if months := calendar.BuildMonths([]plan.Workout{workout("1", "")}); len(months) != 0 {
		t.Errorf("BuildMonths(undated) = %v, want none", months)
	}
}

func TestSortByDate_stable(t *testing.T) {
	got := calendar.SortByDate([]plan.Workout{
		workout("b", "2024-03-09"),
		workout("a1", "2024-03-02"),
		workout("a2", "2024-03-02"),
	})
	if diff := cmp.Diff([]string{"a1", "a2", "b"}, ids(got)); diff != "" {
		t.Errorf("SortByDate() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultWorkout(t *testing.T) {
	sorted := calendar.SortByDate([]plan.Workout{
		workout("1", "2024-03-02"),
		workout("2", "2024-03-09"),
		workout("3", "2024-04-01"),
	})
	tests := []struct {
		name  string
		today string
		want  string
	}{
		{name: "next upcoming", today: "2024-03-05", want: "2"},
		{name: "today counts as upcoming", today: "2024-03-09", want: "2"},
		{name: "before the plan", today: "2024-01-01", want: "1"},
		{name: "all past falls back to first", today: "2024-05-01", want: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calendar.DefaultWorkout(sorted, day(tt.today))
			if !ok || string(got.ID) != tt.want {
				t.Errorf("DefaultWorkout() = %q, %v, want %q", got.ID, ok, tt.want)
			}
		})
	}

	if _, ok := calendar.DefaultWorkout(nil, day("2024-03-05")); ok {
		t.Error("DefaultWorkout(nil) reported a workout")
	}
}

func TestMonthIndex(t *testing.T) {
	months := calendar.BuildMonths([]plan.Workout{workout("1", "2024-03-02"), workout("3", "2024-04-01")})
	if got := calendar.MonthIndex(months, 2024, time.April); got != 1 {
		t.Errorf("MonthIndex(April) = %d, want 1", got)
	}
	if got := calendar.MonthIndex(months, 2024, time.May); got != -1 {
		t.Errorf("MonthIndex(May) = %d, want -1", got)
	}
}

func TestSelectDate(t *testing.T) {
	workouts := []plan.Workout{
		workout("1", "2024-03-02"),
		workout("2", "2024-03-09"),
		workout("2b", "2024-03-09"),
	}
	if got, ok := calendar.SelectDate(workouts, "2024-03-09"); !ok || got.ID != "2" {
		t.Errorf("SelectDate() = %q, %v, want first match 2", got.ID, ok)
	}
	if _, ok := calendar.SelectDate(workouts, "2024-03-10"); ok {
		t.Error("SelectDate() matched a day without workouts")
	}
	if diff := cmp.Diff([]string{"2", "2b"}, ids(calendar.WorkoutsOn(workouts, "2024-03-09"))); diff != "" {
		t.Errorf("WorkoutsOn() mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigateMonth(t *testing.T) {
	tests := []struct {
		current, delta, count, want int
	}{
		{current: 0, delta: 1, count: 3, want: 1},
		{current: 2, delta: 1, count: 3, want: 2},
		{current: 0, delta: -1, count: 3, want: 0},
		{current: 1, delta: -5, count: 3, want: 0},
		{current: 0, delta: 1, count: 0, want: 0},
	}
	for _, tt := range tests {
		if got := calendar.NavigateMonth(tt.current, tt.delta, tt.count); got != tt.want {
			t.Errorf("NavigateMonth(%d, %d, %d) = %d, want %d", tt.current, tt.delta, tt.count, got, tt.want)
		}
	}
}

func TestGrid(t *testing.T) {
	workouts := []plan.Workout{workout("1", "2024-03-02"), workout("2", "2024-03-09")}
	weeks := calendar.Grid(2024, time.March, workouts, day("2024-03-05"))

	if len(weeks) != 5 {
		t.Fatalf("Grid() returned %d weeks, want 5", len(weeks))
	}
	for i, week := range weeks {
		if len(week) != 7 {
			t.Fatalf("week %d has %d cells, want 7", i, len(week))
		}
	}
	// 2024-03-01 is a Friday, so Monday to Thursday pad the first week.
	for i := range 4 {
		if !weeks[0][i].Empty() {
			t.Errorf("cell %d of the first week should be padding, got %+v", i, weeks[0][i])
		}
	}
	if diff := cmp.Diff(calendar.Cell{Day: 1, Date: "2024-03-01", HasWorkout: false, IsToday: false},
		weeks[0][4]); diff != "" {
		t.Errorf("first day mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(calendar.Cell{Day: 2, Date: "2024-03-02", HasWorkout: true, IsToday: false},
		weeks[0][5]); diff != "" {
		t.Errorf("workout day mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(calendar.Cell{Day: 5, Date: "2024-03-05", HasWorkout: false, IsToday: true},
		weeks[1][1]); diff != "" {
		t.Errorf("today mismatch (-want +got):\n%s", diff)
	}
	if got := weeks[4][6]; got.Day != 31 {
		t.Errorf("last cell = %+v, want day 31 on Sunday", got)
	}

	var withWorkout []string
	for _, week := range weeks {
		for _, c := range week {
			if c.HasWorkout {
				withWorkout = append(withWorkout, c.Date)
			}
		}
	}
	if diff := cmp.Diff([]string{"2024-03-02", "2024-03-09"}, withWorkout); diff != "" {
		t.Errorf("HasWorkout days mismatch (-want +got):\n%s", diff)
	}
}

func TestGrid_shapes(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		wantWeeks int
		wantLead  int
	}{
		{name: "starts on Monday and fills four weeks", year: 2021, month: time.February, wantWeeks: 4, wantLead: 0},
		{name: "starts on Sunday", year: 2024, month: time.September, wantWeeks: 6, wantLead: 6},
		{name: "leap February", year: 2024, month: time.February, wantWeeks: 5, wantLead: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weeks := calendar.Grid(tt.year, tt.month, nil, day("2000-01-01"))
			if len(weeks) != tt.wantWeeks {
				t.Errorf("weeks = %d, want %d", len(weeks), tt.wantWeeks)
			}
			lead := 0
			for _, c := range weeks[0] {
				if !c.Empty() {
					break
				}
				lead++
			}
			if lead != tt.wantLead {
				t.Errorf("leading padding = %d, want %d", lead, tt.wantLead)
			}
		})
	}
}

func TestMarkDone(t *testing.T) {
	workouts := []plan.Workout{workout("1", "2024-03-02"), workout("2", "2024-03-09"), workout("3", "2024-04-01")}
	got := calendar.MarkDone(workouts, "2")
	if diff := cmp.Diff([]string{"1", "3"}, ids(got)); diff != "" {
		t.Errorf("MarkDone() mismatch (-want +got):\n%s", diff)
	}
	if len(workouts) != 3 {
		t.Error("MarkDone() modified its input")
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, ids(calendar.MarkDone(workouts, "missing"))); diff != "" {
		t.Errorf("MarkDone(missing) mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceholder(t *testing.T) {
	m := calendar.Placeholder(day("2026-10-18"))
	if m.Key() != "2026-10" || m.Label != "October 2026" || len(m.Workouts) != 0 {
		t.Errorf("Placeholder() = %+v", m)
	}
}

func TestParseMonthKey(t *testing.T) {
	if y, m, ok := calendar.ParseMonthKey("2024-04"); !ok || y != 2024 || m != time.April {
		t.Errorf("ParseMonthKey(2024-04) = %d, %v, %v", y, m, ok)
	}
	if _, _, ok := calendar.ParseMonthKey("2024-13"); ok {
		t.Error("ParseMonthKey accepted month 13")
	}
}
