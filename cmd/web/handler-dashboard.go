package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"golang.org/x/sync/errgroup"
)

type dashboardTemplateData struct {
	BaseTemplateData
	Message       string
	MessageError  string
	Next          plan.Workout
	HasNext       bool
	NextError     string
	NextSteps     []plan.Step
	NextCompleted bool
}

// dashboard shows the planning API's greeting next to the next workout. Both are fetched concurrently and each failure
// only blanks its own card.
func (app *application) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}
	data := dashboardTemplateData{ //nolint:exhaustruct // filled in below.
		BaseTemplateData: app.newSessionTemplateData(r),
	}

	var (
		message string
		next    plan.Workout
		hasNext bool
		nextErr error
		homeErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		message, homeErr = app.api.HomeData(gctx, user.Token)
		return nil
	})
	g.Go(func() error {
		next, hasNext, nextErr = app.api.NextWorkout(gctx, user.Token)
		return nil
	})
	_ = g.Wait()

	if homeErr != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "fetch home data", errors.SlogError(homeErr))
		data.MessageError = translate(r, "dashboard.error.home")
	}
	data.Message = message

	switch {
	case nextErr != nil:
		app.logger.LogAttrs(ctx, slog.LevelWarn, "fetch next workout", errors.SlogError(nextErr))
		data.NextError = planapi.Message(nextErr, translate(r, "dashboard.error.next"))
	case hasNext:
		var err error
		if next, err = app.withCompletion(r, user.UserID, next); err != nil {
			app.serverError(w, r, err)
			return
		}
		if err = app.sessions.SaveCurrentWorkout(ctx, next); err != nil {
			app.serverError(w, r, err)
			return
		}
		data.Next = next
		data.HasNext = true
		data.NextSteps = next.Steps()
		data.NextCompleted = next.Completed()
	}

	app.render(w, r, http.StatusOK, "main", data)
}
