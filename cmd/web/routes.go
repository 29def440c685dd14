package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	var (
		common = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(commonContext(next))))
		}
		noAuth = func(next http.Handler) http.Handler {
			return app.recoverPanic(common(app.timeout(next)))
		}
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessions.LoadAndSave(
				app.sessions.Authenticate(common(app.timeout(next))))))
		}
		mustSession = func(next http.Handler) http.Handler {
			return session(app.mustAuthenticate(next))
		}
		// Plan generation waits for the planning API far longer than other requests.
		mustSessionSlow = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessions.LoadAndSave(
				app.sessions.Authenticate(common(app.longTimeout(app.mustAuthenticate(next)))))))
		}
	)

	mux.Handle("GET /{$}", session(http.HandlerFunc(app.home)))
	mux.Handle("GET /login", session(http.HandlerFunc(app.loginGET)))
	mux.Handle("POST /login", session(http.HandlerFunc(app.loginPOST)))
	mux.Handle("GET /register", session(http.HandlerFunc(app.registerGET)))
	mux.Handle("POST /register", session(http.HandlerFunc(app.registerPOST)))
	mux.Handle("POST /logout", session(http.HandlerFunc(app.logoutPOST)))

	mux.Handle("GET /main", mustSession(http.HandlerFunc(app.dashboard)))

	mux.Handle("GET /plans/new", mustSession(http.HandlerFunc(app.wizardGET)))
	mux.Handle("POST /plans/new", mustSession(http.HandlerFunc(app.wizardPOST)))
	mux.Handle("POST /plans/generate", mustSessionSlow(http.HandlerFunc(app.generatePOST)))
	mux.Handle("GET /plans/generating", mustSession(http.HandlerFunc(app.generatingGET)))

	mux.Handle("GET /plan", mustSession(http.HandlerFunc(app.planGET)))
	mux.Handle("POST /plan/workouts/{id}/done", mustSession(http.HandlerFunc(app.planWorkoutDonePOST)))
	mux.Handle("GET /plan/calendar.ics", mustSession(http.HandlerFunc(app.planCalendarICS)))

	mux.Handle("GET /workouts/{id}", mustSession(http.HandlerFunc(app.workoutGET)))
	mux.Handle("POST /workouts/{id}/complete", mustSession(http.HandlerFunc(app.workoutCompletePOST)))
	mux.Handle("GET /workouts/{id}/download", mustSession(http.HandlerFunc(app.workoutDownloadGET)))

	mux.Handle("POST /language", noAuth(http.HandlerFunc(app.setLanguagePOST)))
	mux.Handle("POST /api/csp-violation", noAuth(http.HandlerFunc(app.cspViolation)))
	mux.Handle("GET /api/healthy", noAuth(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /metrics", noAuth(promhttp.Handler()))

	// File server with custom 404 handling
	fileServerHandler, err := app.fileServerHandler(session)
	if err != nil {
		return nil, fmt.Errorf("fileServerHandler: %w", err)
	}
	mux.Handle("/", fileServerHandler)

	return mux, nil
}
