package main

import (
	"net/http"

	"github.com/myrjola/coach21k/internal/session"
)

type homeTemplateData struct {
	BaseTemplateData
	LoggedOut bool
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	data := homeTemplateData{
		BaseTemplateData: app.newSessionTemplateData(r),
		LoggedOut:        app.sessions.State(r.Context()) == session.LoggedOut,
	}
	app.render(w, r, http.StatusOK, "home", data)
}
