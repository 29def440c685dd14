package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/session"
	"github.com/myrjola/coach21k/internal/wizard"
)

type progressDot struct {
	Number  int
	Done    bool
	Current bool
}

type summaryRow struct {
	Step  wizard.Step
	Value string
}

type wizardTemplateData struct {
	BaseTemplateData
	Step       wizard.Step
	StepNumber int
	StepCount  int
	Progress   []progressDot
	Options    []wizard.Option
	Value      string
	Error      string
	IsFirst    bool
	IsLast     bool
	Summary    []summaryRow
	// Days and Weeks count down to the race date once it is valid.
	Days         int
	Weeks        int
	HasCountdown bool
	MinDate      string
}

func (app *application) newWizardTemplateData(r *http.Request, base BaseTemplateData, form wizard.Form) wizardTemplateData {
	today := app.today()
	step := form.Current()
	data := wizardTemplateData{
		BaseTemplateData: base,
		Step:             step,
		StepNumber:       form.Index + 1,
		StepCount:        len(wizard.Steps),
		Progress:         make([]progressDot, len(wizard.Steps)),
		Options:          wizard.Options(step),
		Value:            form.Value(step),
		Error:            "",
		IsFirst:          form.IsFirst(),
		IsLast:           form.IsLast(),
		Summary:          nil,
		Days:             0,
		Weeks:            0,
		HasCountdown:     false,
		MinDate:          today.AddDate(0, 0, 1).Format("2006-01-02"),
	}
	for i := range wizard.Steps {
		data.Progress[i] = progressDot{Number: i + 1, Done: i < form.Index, Current: i == form.Index}
	}
	if days, weeks, ok := form.Countdown(today); ok && days > 0 {
		data.Days, data.Weeks, data.HasCountdown = days, weeks, true
	}
	if step == wizard.StepSummary {
		for _, s := range wizard.Steps[:len(wizard.Steps)-1] {
			data.Summary = append(data.Summary, summaryRow{Step: s, Value: answerLabel(r, s, form.Value(s))})
		}
	}
	return data
}

// answerLabel translates the chosen option of a step for the summary. Free-form answers are shown as typed.
func answerLabel(r *http.Request, step wizard.Step, value string) string {
	for _, o := range wizard.Options(step) {
		if o.Value == value {
			if _, err := strconv.Atoi(o.LabelKey); err == nil {
				return o.LabelKey
			}
			return translate(r, o.LabelKey)
		}
	}
	if value == "" {
		return translate(r, "wizard.summary.none")
	}
	return value
}

func (app *application) renderWizardError(
	w http.ResponseWriter,
	r *http.Request,
	form wizard.Form,
	err error,
) {
	var validationErr *wizard.ValidationError
	if !errors.As(err, &validationErr) {
		app.serverError(w, r, err)
		return
	}
	data := app.newWizardTemplateData(r, newBaseTemplateData(r), form)
	data.Error = translate(r, validationErr.Key)
	app.render(w, r, http.StatusUnprocessableEntity, "wizard", data)
}

func (app *application) wizardGET(w http.ResponseWriter, r *http.Request) {
	form := app.sessions.Form(r.Context())
	app.render(w, r, http.StatusOK, "wizard", app.newWizardTemplateData(r, app.newSessionTemplateData(r), form))
}

// wizardPOST stores the answer of the current step and moves forward or back. A submission from a stale page that
// does not match the current step only redirects.
func (app *application) wizardPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := app.sessions.Form(ctx)
	step := form.Current()
	if wizard.Step(r.PostFormValue("step")) != step {
		redirect(w, r, "/plans/new")
		return
	}
	if step != wizard.StepSummary {
		form = form.Set(step, r.PostFormValue(string(step)))
	}

	if r.PostFormValue("action") == "prev" {
		app.sessions.SaveForm(ctx, form.Prev())
		redirect(w, r, "/plans/new")
		return
	}

	next, err := form.Next(app.today())
	app.sessions.SaveForm(ctx, next)
	if err != nil {
		app.renderWizardError(w, r, next, err)
		return
	}
	redirect(w, r, "/plans/new")
}

type generatingTemplateData struct {
	BaseTemplateData
	Error      string
	HasPending bool
}

// generatePOST validates the questionnaire, remembers the request for retries and waits for the planning API to
// generate the plan. A retry submits the remembered request again.
func (app *application) generatePOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := app.currentUser(w, r)
	if !ok {
		return
	}

	var req planapi.PlanRequest
	if r.PostFormValue("retry") != "" {
		if req, ok = app.sessions.PendingPlan(ctx); !ok {
			redirect(w, r, "/plans/generating")
			return
		}
	} else {
		form, err := app.sessions.Form(ctx).ValidateAll(app.today())
		if err != nil {
			app.sessions.SaveForm(ctx, form)
			app.renderWizardError(w, r, form, err)
			return
		}
		if req, err = form.Request(user.UserID, app.today()); err != nil {
			app.renderWizardError(w, r, form, err)
			return
		}
		app.sessions.SavePendingPlan(ctx, req)
	}

	data := generatingTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Error:            "",
		HasPending:       true,
	}
	workouts, err := app.generate(r, user, req)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "generate plan", errors.SlogError(err))
		data.Error = translate(r, "generating.error")
		var decodeErr *unexpectedPlanError
		if errors.As(err, &decodeErr) {
			data.Error = translate(r, "generating.error.unexpected")
		}
		app.render(w, r, http.StatusOK, "generating", data)
		return
	}

	if err = app.plans.Save(ctx, user.UserID, workouts); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessions.ClearPendingPlan(ctx)
	app.sessions.ClearForm(ctx)
	app.sessions.Flash(ctx, "generating.success")
	app.logger.LogAttrs(ctx, slog.LevelInfo, "plan generated", slog.Int("workouts", len(workouts)))
	redirect(w, r, "/plan")
}

// unexpectedPlanError is a generation response that is not a plan.
type unexpectedPlanError struct {
	err error
}

func (e *unexpectedPlanError) Error() string {
	return "unexpected plan: " + e.err.Error()
}

func (e *unexpectedPlanError) Unwrap() error {
	return e.err
}

func (app *application) generate(r *http.Request, user session.User, req planapi.PlanRequest) ([]plan.Workout, error) {
	raw, err := app.api.GeneratePlan(r.Context(), user.Token, req)
	if err != nil {
		return nil, err //nolint:wrapcheck // planapi errors carry the endpoint.
	}
	workouts, err := plan.DecodeWorkouts(raw)
	if err != nil {
		return nil, &unexpectedPlanError{err: err}
	}
	return workouts, nil
}

// generatingGET offers to retry the remembered generation request, or sends the user back to the questionnaire
// when there is none.
func (app *application) generatingGET(w http.ResponseWriter, r *http.Request) {
	_, ok := app.sessions.PendingPlan(r.Context())
	data := generatingTemplateData{
		BaseTemplateData: app.newSessionTemplateData(r),
		Error:            "",
		HasPending:       ok,
	}
	app.render(w, r, http.StatusOK, "generating", data)
}
