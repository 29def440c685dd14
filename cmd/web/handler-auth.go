package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/session"
)

type loginTemplateData struct {
	BaseTemplateData
	FormUsername string
	Error        string
}

func (app *application) loginGET(w http.ResponseWriter, r *http.Request) {
	data := loginTemplateData{
		BaseTemplateData: app.newSessionTemplateData(r),
		FormUsername:     "",
		Error:            "",
	}
	app.render(w, r, http.StatusOK, "login", data)
}

func (app *application) loginPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	data := loginTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		FormUsername:     username,
		Error:            "",
	}

	if username == "" || password == "" {
		data.Error = translate(r, "login.error.missing")
		app.render(w, r, http.StatusUnprocessableEntity, "login", data)
		return
	}

	resp, err := app.api.Login(ctx, username, password)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelInfo, "login failed", errors.SlogError(err))
		data.Error = planapi.Message(err, translate(r, "login.error"))
		app.render(w, r, http.StatusUnprocessableEntity, "login", data)
		return
	}

	user := session.User{Token: resp.Token, Username: resp.Username, UserID: resp.UserID}
	if user.Username == "" {
		user.Username = username
	}
	if err = app.sessions.Login(ctx, user); err != nil {
		app.serverError(w, r, err)
		return
	}
	if err = app.completions.Resume(ctx, user.UserID, user.Token); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessions.Flash(ctx, "login.success")
	redirect(w, r, "/main")
}

type registerTemplateData struct {
	BaseTemplateData
	FormUsername string
	FormEmail    string
	Error        string
}

func (app *application) registerGET(w http.ResponseWriter, r *http.Request) {
	data := registerTemplateData{
		BaseTemplateData: app.newSessionTemplateData(r),
		FormUsername:     "",
		FormEmail:        "",
		Error:            "",
	}
	app.render(w, r, http.StatusOK, "register", data)
}

func (app *application) registerPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := planapi.RegisterRequest{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := registerTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		FormUsername:     req.Username,
		FormEmail:        req.Email,
		Error:            "",
	}

	switch {
	case req.Username == "" || req.Email == "" || req.Password == "":
		data.Error = translate(r, "register.error.missing")
	case req.Password != req.ConfirmPassword:
		data.Error = translate(r, "register.error.mismatch")
	}
	if data.Error != "" {
		app.render(w, r, http.StatusUnprocessableEntity, "register", data)
		return
	}

	message, err := app.api.Register(ctx, req)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelInfo, "registration failed", errors.SlogError(err))
		data.Error = planapi.Message(err, translate(r, "register.error"))
		app.render(w, r, http.StatusUnprocessableEntity, "register", data)
		return
	}

	if message == "" {
		message = "register.success"
	}
	app.sessions.Flash(ctx, message)
	redirect(w, r, "/login")
}

func (app *application) logoutPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if user, ok := app.sessions.User(ctx); ok {
		if err := app.completions.Suspend(ctx, user.UserID); err != nil {
			app.serverError(w, r, err)
			return
		}
	}
	if err := app.sessions.Logout(ctx); err != nil {
		app.serverError(w, r, err)
		return
	}
	redirect(w, r, "/")
}
