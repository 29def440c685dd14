package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/coach21k/internal/contexthelpers"
	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/i18n"
	"github.com/myrjola/coach21k/internal/session"
)

// serverError logs err and renders the error page. When even the error page fails to render, a plain text response
// is written instead.
func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	var (
		buf       *bytes.Buffer
		renderErr error
	)
	if buf, renderErr = app.renderToBuf(r.Context(), "error", newBaseTemplateData(r)); renderErr != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "render error page", errors.SlogError(renderErr))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusNotFound, "not-found", newBaseTemplateData(r))
}

// redirect detects if the request is originating from a fetch API call or a top-level navigation and points the user
// to the correct URL.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("Sec-Fetch-Dest") == "empty" {
		w.Header().Set("Content-Location", path)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, path, http.StatusSeeOther)
}

// translate looks up key in the request language.
func translate(r *http.Request, key string) string {
	return i18n.Translate(contexthelpers.Language(r.Context()), key)
}

// today is the current date at midnight UTC, the reference for comparisons with plan dates.
func (app *application) today() time.Time {
	y, m, d := app.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// currentUser returns the signed-in user. Handlers behind mustAuthenticate render a server error when the session has
// lost the user in between.
func (app *application) currentUser(w http.ResponseWriter, r *http.Request) (session.User, bool) {
	user, ok := app.sessions.User(r.Context())
	if !ok {
		app.serverError(w, r, errors.New("authenticated session without user"))
		return session.User{}, false
	}
	return user, true
}
