package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/session"
)

// findWorkout looks up a workout by id, first in the workout opened last and then in the plan. The local completion
// state is applied. It reports false when the workout is unknown.
func (app *application) findWorkout(r *http.Request, user session.User, id plan.ID) (plan.Workout, bool, error) {
	ctx := r.Context()
	if current, ok := app.sessions.CurrentWorkout(ctx); ok && current.ID == id {
		w, err := app.withCompletion(r, user.UserID, current)
		if err != nil {
			return plan.Workout{}, false, err
		}
		return w, true, nil
	}

	loaded, err := app.loadPlan(r, user)
	if err != nil {
		return plan.Workout{}, false, err
	}
	for _, w := range loaded.Workouts {
		if w.ID == id {
			if err = app.sessions.SaveCurrentWorkout(ctx, w); err != nil {
				return plan.Workout{}, false, err
			}
			return w, true, nil
		}
	}
	return plan.Workout{}, false, nil
}

type workoutTemplateData struct {
	BaseTemplateData
	Workout   plan.Workout
	Steps     []plan.Step
	Segments  []plan.Segment
	Completed bool
	// Toggle is the completed value the status button submits.
	Toggle  bool
	BackURL string
}

func (app *application) workoutGET(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}
	wo, found, err := app.findWorkout(r, user, plan.ID(r.PathValue("id")))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if !found {
		app.notFound(w, r)
		return
	}

	data := workoutTemplateData{
		BaseTemplateData: app.newSessionTemplateData(r),
		Workout:          wo,
		Steps:            wo.Steps(),
		Segments:         wo.Segments(),
		Completed:        wo.Completed(),
		Toggle:           !wo.Completed(),
		BackURL:          "/plan",
	}
	if year, month, ok := wo.YearMonth(); ok {
		data.BackURL = planURL(fmt.Sprintf("%04d-%02d", year, int(month)), wo.Date)
	}
	app.render(w, r, http.StatusOK, "workout", data)
}

// workoutCompletePOST toggles the completion state. The change is kept locally when the planning API is unreachable
// and the user is told so.
func (app *application) workoutCompletePOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}
	id := plan.ID(r.PathValue("id"))
	completed, err := strconv.ParseBool(r.PostFormValue("completed"))
	if err != nil {
		http.Error(w, "invalid completed value", http.StatusBadRequest)
		return
	}

	res, err := app.completions.Mark(ctx, user.UserID, user.Token, id, completed)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	switch {
	case !res.Synced:
		app.sessions.Flash(ctx, "sync.warning")
	case completed:
		app.sessions.Flash(ctx, "workout.flash.completed")
	default:
		app.sessions.Flash(ctx, "workout.flash.pending")
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "workout marked",
		slog.String("workout_id", string(id)), slog.Bool("completed", completed), slog.Bool("synced", res.Synced))
	redirect(w, r, "/workouts/"+url.PathEscape(string(id)))
}

// workoutDownloadGET serves the workout record as a JSON attachment.
func (app *application) workoutDownloadGET(w http.ResponseWriter, r *http.Request) {
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}
	wo, found, err := app.findWorkout(r, user, plan.ID(r.PathValue("id")))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if !found {
		app.notFound(w, r)
		return
	}
	body, err := wo.IndentedJSON()
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "render workout json", slog.String("workout_id", string(wo.ID))))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, wo.DownloadName()))
	_, _ = w.Write(body)
}
