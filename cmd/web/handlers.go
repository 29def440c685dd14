package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/coach21k/internal/contexthelpers"
	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/i18n"
	"github.com/myrjola/coach21k/internal/plan"
)

// weekdayKeys are the translation keys of the weekdays indexed by time.Weekday.
var weekdayKeys = [...]string{ //nolint:gochecknoglobals // lookup table.
	"weekday.sunday",
	"weekday.monday",
	"weekday.tuesday",
	"weekday.wednesday",
	"weekday.thursday",
	"weekday.friday",
	"weekday.saturday",
}

// workoutDay is the day label of a workout: the record's own day name when present, the translated weekday of its
// date otherwise.
func workoutDay(lang i18n.Language, w plan.Workout) string {
	if w.Day != "" {
		return string(w.Day)
	}
	if wd, ok := w.Weekday(); ok {
		return i18n.Translate(lang, weekdayKeys[wd])
	}
	return ""
}

func monthName(lang i18n.Language, m time.Month) string {
	return i18n.Translate(lang, "month."+strconv.Itoa(int(m)))
}

// baseTemplateFuncs returns the base template.FuncMap with placeholder implementations.
// Context-dependent functions must be overridden with actual implementations.
func (app *application) baseTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"nonce": func() string {
			panic("not implemented")
		},
		"mdToHTML": func(string) template.HTML {
			panic("not implemented")
		},
		"t": func(string) string {
			panic("not implemented")
		},
		"tf": func(string, ...any) string {
			panic("not implemented")
		},
		"monthName": func(time.Month) string {
			panic("not implemented")
		},
		"dayName": func(plan.Workout) string {
			panic("not implemented")
		},
	}
}

// contextTemplateFuncs returns template.FuncMap with context-dependent function implementations.
func (app *application) contextTemplateFuncs(ctx context.Context) template.FuncMap {
	nonce := fmt.Sprintf("nonce=\"%s\"", contexthelpers.CSPNonce(ctx))
	lang := contexthelpers.Language(ctx)
	return template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // we trust the nonce since it's not provided by user.
		},
		"mdToHTML": func(markdown string) template.HTML {
			return app.renderMarkdownToHTML(ctx, markdown)
		},
		"t": func(key string) string {
			return i18n.Translate(lang, key)
		},
		"tf": func(key string, args ...any) string {
			return fmt.Sprintf(i18n.Translate(lang, key), args...)
		},
		"monthName": func(m time.Month) string {
			return monthName(lang, m)
		},
		"dayName": func(w plan.Workout) string {
			return workoutDay(lang, w)
		},
	}
}

// renderMarkdownToHTML converts workout advice to HTML. Raw HTML in the source is not passed through.
func (app *application) renderMarkdownToHTML(ctx context.Context, markdown string) template.HTML {
	var buf bytes.Buffer
	if err := app.markdown.Convert([]byte(markdown), &buf); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "render markdown", errors.SlogError(err))
		return template.HTML(template.HTMLEscapeString(markdown)) //nolint:gosec // escaped above.
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark omits raw HTML by default.
}

// pageTemplate returns a template for the given page name.
//
// pageName corresponds to directory inside ui/templates/pages folder. It has to include a template named "page".
func (app *application) pageTemplate(pageName string) (*template.Template, error) {
	var err error
	// We need to initialize the FuncMap before parsing the files. These will be overridden in the render function.
	var t *template.Template
	t = template.New(pageName).Funcs(app.baseTemplateFuncs())
	if t, err = t.ParseFS(app.templateFS, "base.gohtml", fmt.Sprintf("pages/%s/*.gohtml", pageName)); err != nil {
		return nil, fmt.Errorf("new template: %w", err)
	}
	return t, nil
}

func (app *application) renderToBuf(ctx context.Context, file string, data any) (*bytes.Buffer, error) {
	var (
		err error
		t   *template.Template
	)

	if t, err = app.pageTemplate(file); err != nil {
		return nil, fmt.Errorf("retrieve page template %s: %w", file, err)
	}

	buf := new(bytes.Buffer)
	t.Funcs(app.contextTemplateFuncs(ctx))
	if err = t.ExecuteTemplate(buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", file, err)
	}

	return buf, nil
}

/*
 * render renders the template residing in the /ui/templates/pages/{pageName} folder from the repository root and writes
 * it to the response writer.
 */
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, pageName string, data any) {
	var (
		buf *bytes.Buffer
		err error
	)

	if buf, err = app.renderToBuf(r.Context(), pageName, data); err != nil {
		app.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_, _ = buf.WriteTo(w)
}
