package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/myrjola/coach21k/internal/calendar"
	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/icsexport"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/session"
)

// loadedPlan is the user's plan with the local completions applied.
type loadedPlan struct {
	Workouts []plan.Workout
	// Cached is set when the planning API failed and the plan comes from the local cache.
	Cached    bool
	FetchedAt time.Time
	// APIErr is the planning API failure, if any. Without a cached plan Workouts is empty.
	APIErr error
}

// loadPlan fetches the plan from the planning API and caches it. When the API fails the cached plan is used instead.
// Only local failures are returned as errors.
func (app *application) loadPlan(r *http.Request, user session.User) (loadedPlan, error) {
	ctx := r.Context()
	workouts, apiErr := app.api.Workouts(ctx, user.Token)
	if apiErr == nil {
		if err := app.plans.Save(ctx, user.UserID, workouts); err != nil {
			return loadedPlan{}, fmt.Errorf("cache plan: %w", err)
		}
		var err error
		if workouts, err = app.applyCompletions(r, user.UserID, workouts); err != nil {
			return loadedPlan{}, err
		}
		return loadedPlan{Workouts: workouts, Cached: false, FetchedAt: app.now(), APIErr: nil}, nil
	}

	app.logger.LogAttrs(ctx, slog.LevelWarn, "fetch plan, trying cache", errors.SlogError(apiErr))
	cached, ok, err := app.plans.Load(ctx, user.UserID)
	if err != nil {
		return loadedPlan{}, fmt.Errorf("load cached plan: %w", err)
	}
	if !ok {
		return loadedPlan{Workouts: nil, Cached: false, FetchedAt: time.Time{}, APIErr: apiErr}, nil
	}
	if workouts, err = app.applyCompletions(r, user.UserID, cached.Workouts); err != nil {
		return loadedPlan{}, err
	}
	return loadedPlan{Workouts: workouts, Cached: true, FetchedAt: cached.FetchedAt, APIErr: apiErr}, nil
}

// applyCompletions overlays the completion ledger on fetched workouts.
func (app *application) applyCompletions(r *http.Request, userID string, workouts []plan.Workout) ([]plan.Workout, error) {
	completed, err := app.completions.Completed(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	out := make([]plan.Workout, len(workouts))
	for i, w := range workouts {
		out[i] = w
		if c, ok := completed[w.ID]; ok {
			if out[i], err = c.Apply(w); err != nil {
				return nil, fmt.Errorf("apply completion %s: %w", w.ID, err)
			}
		}
	}
	return out, nil
}

// withCompletion overlays the completion ledger on a single workout.
func (app *application) withCompletion(r *http.Request, userID string, w plan.Workout) (plan.Workout, error) {
	c, ok, err := app.completions.Get(r.Context(), userID, w.ID)
	if err != nil {
		return plan.Workout{}, fmt.Errorf("get completion: %w", err)
	}
	if !ok {
		return w, nil
	}
	if w, err = c.Apply(w); err != nil {
		return plan.Workout{}, fmt.Errorf("apply completion: %w", err)
	}
	return w, nil
}

// pendingWorkouts drops the completed workouts. The calendar only shows what is left to run.
func pendingWorkouts(workouts []plan.Workout) []plan.Workout {
	return slices.DeleteFunc(slices.Clone(workouts), plan.Workout.Completed)
}

// planURL links the calendar page with the given month and optional date selected.
func planURL(month string, date string) string {
	q := url.Values{}
	if month != "" {
		q.Set("month", month)
	}
	if date != "" {
		q.Set("date", date)
	}
	if len(q) == 0 {
		return "/plan"
	}
	return "/plan?" + q.Encode()
}

type calendarCell struct {
	calendar.Cell
	URL      string
	Selected bool
}

type planTemplateData struct {
	BaseTemplateData
	Error        string
	Cached       bool
	FetchedAt    string
	HasPlan      bool
	Month        calendar.Month
	Weeks        [][]calendarCell
	PrevURL      string
	NextURL      string
	Selected     plan.Workout
	HasSelection bool
	SelectedDate string
	DayWorkouts  []plan.Workout
	Total        int
	Done         int
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}
	data := planTemplateData{ //nolint:exhaustruct // filled in below.
		BaseTemplateData: app.newSessionTemplateData(r),
	}

	loaded, err := app.loadPlan(r, user)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if loaded.APIErr != nil && !loaded.Cached {
		data.Error = planapi.Message(loaded.APIErr, translate(r, "plan.error.load"))
	}
	data.Cached = loaded.Cached
	if loaded.Cached {
		data.FetchedAt = loaded.FetchedAt.Local().Format("2006-01-02 15:04")
	}

	today := app.today()
	pending := pendingWorkouts(loaded.Workouts)
	data.Total = len(loaded.Workouts)
	data.Done = data.Total - len(pending)
	view := calendar.NewView(pending, today)
	data.HasPlan = len(view.Months) > 0

	query := r.URL.Query()
	if year, month, ok := calendar.ParseMonthKey(query.Get("month")); ok {
		view, _ = view.ShowMonth(year, month)
	}
	if date := query.Get("date"); date != "" {
		view = view.SelectDate(date)
		data.SelectedDate = date
	} else if view.HasSelection {
		data.SelectedDate = view.Selected.Date
	}

	data.Month = view.Month(today)
	if prev, ok := view.Adjacent(-1); ok {
		data.PrevURL = planURL(prev.Key(), "")
	}
	if next, ok := view.Adjacent(1); ok {
		data.NextURL = planURL(next.Key(), "")
	}
	data.Selected = view.Selected
	data.HasSelection = view.HasSelection
	if view.HasSelection {
		data.DayWorkouts = calendar.WorkoutsOn(view.Workouts, view.Selected.Date)
	}

	for _, week := range view.Grid(today) {
		row := make([]calendarCell, len(week))
		for i, cell := range week {
			row[i] = calendarCell{Cell: cell, URL: "", Selected: false}
			if cell.HasWorkout {
				row[i].URL = planURL(data.Month.Key(), cell.Date)
				row[i].Selected = cell.Date == data.SelectedDate
			}
		}
		data.Weeks = append(data.Weeks, row)
	}

	app.render(w, r, http.StatusOK, "plan", data)
}

// planWorkoutDonePOST marks a workout done from the calendar. The cached plan is left alone: the completion ledger
// hides the workout from the calendar and the user stays on the month they were looking at while it still has
// workouts.
func (app *application) planWorkoutDonePOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}
	id := plan.ID(r.PathValue("id"))
	if id == "" {
		app.notFound(w, r)
		return
	}

	res, err := app.completions.Mark(ctx, user.UserID, user.Token, id, true)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if res.Synced {
		app.sessions.Flash(ctx, "plan.done")
	} else {
		app.sessions.Flash(ctx, "sync.warning")
	}

	target := "/plan"
	cached, ok, err := app.plans.Load(ctx, user.UserID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if ok {
		var workouts []plan.Workout
		if workouts, err = app.applyCompletions(r, user.UserID, cached.Workouts); err != nil {
			app.serverError(w, r, err)
			return
		}
		// The view still holds the workout so that MarkDone moves off a month it leaves empty.
		workouts = slices.DeleteFunc(workouts, func(wo plan.Workout) bool { return wo.Completed() && wo.ID != id })
		today := app.today()
		view := calendar.NewView(workouts, today)
		if year, month, found := calendar.ParseMonthKey(r.PostFormValue("month")); found {
			view, _ = view.ShowMonth(year, month)
		}
		view = view.MarkDone(id)
		if len(view.Months) > 0 {
			target = planURL(view.Month(today).Key(), "")
		}
	}
	redirect(w, r, target)
}

// planCalendarICS exports the whole plan, completed workouts included, as an iCalendar file.
func (app *application) planCalendarICS(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}
	loaded, err := app.loadPlan(r, user)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if loaded.APIErr != nil && !loaded.Cached {
		http.Error(w, planapi.Message(loaded.APIErr, translate(r, "plan.error.load")), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="coach21k.ics"`)
	if err = icsexport.Write(w, calendar.SortByDate(loaded.Workouts), icsexport.Options{
		Name:           translate(r, "ics.name"),
		DefaultSummary: translate(r, "ics.default_summary"),
		PaceLabel:      translate(r, "workout.pace"),
		Stamp:          app.now(),
	}); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "write calendar", errors.SlogError(err))
	}
}
