package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/coach21k/internal/errors"
)

// healthy reports whether the local database answers. The planning API is not probed, the app keeps serving cached
// plans while it is down.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	n, err := app.plans.Count(r.Context())
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "health check", errors.SlogError(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = fmt.Fprintf(w, `{"status":"ok","cached_plans":%d}`, n)
}
