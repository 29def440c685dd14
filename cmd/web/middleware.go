package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/myrjola/coach21k/internal/contexthelpers"
	"github.com/myrjola/coach21k/internal/i18n"
	"github.com/myrjola/coach21k/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	written, err := mw.ResponseWriter.Write(b)
	if err != nil {
		return written, fmt.Errorf("write response: %w", err)
	}
	return written, nil
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

// contentSecurityPolicy allows no scripts at all. Pages are plain HTML forms and the stylesheet is served by the app.
const contentSecurityPolicy = `default-src 'none'; script-src 'none'; style-src 'self' 'nonce-%s'; img-src 'self' data:; ` +
	`form-action 'self'; frame-ancestors 'none'; base-uri 'none'; object-src 'none'; report-uri /api/csp-violation`

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cspNonce := rand.Text()
		w.Header().Set("Content-Security-Policy", fmt.Sprintf(contentSecurityPolicy, cspNonce))
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")

		next.ServeHTTP(w, contexthelpers.SetCSPNonce(r, cspNonce))
	})
}

// cacheStatic lets browsers reuse static files for an hour. Asset names are not fingerprinted, after that the file
// server answers conditional requests from Last-Modified.
func cacheStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")

		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

var requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "coach21k",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "Latency of handled requests, labeled by route pattern and status code.",
	Buckets:   prometheus.DefBuckets,
}, []string{"pattern", "code"})

func init() {
	prometheus.MustRegister(requestDuration)
}

// logAndTraceRequest gives every request a trace id in the log context, logs its outcome and records its latency.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithAttrs(r.Context(),
			slog.String("trace_id", rand.Text()),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
		)
		r = r.WithContext(ctx)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")
		sw := newStatusResponseWriter(w)
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		// The pattern keeps the label set bounded, workout ids are not part of it.
		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		requestDuration.WithLabelValues(pattern, strconv.Itoa(sw.statusCode)).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", elapsed))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				err := fmt.Errorf("panic: %v\n%s", excp, string(debug.Stack()))
				app.serverError(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// mustAuthenticate redirects the user to the home page if they are not authenticated.
func (app *application) mustAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !contexthelpers.IsAuthenticated(r.Context()) {
			redirect(w, r, "/")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// commonContext stores the current path and the language chosen with the language cookie.
func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = contexthelpers.SetCurrentPath(r, r.URL.Path)
		lang := i18n.DefaultLanguage
		if cookie, err := r.Cookie(languageCookieName); err == nil && i18n.IsSupported(i18n.Language(cookie.Value)) {
			lang = i18n.Language(cookie.Value)
		}
		r = contexthelpers.SetLanguage(r, lang)
		next.ServeHTTP(w, r)
	})
}

// crossOriginProtection rejects cross-origin form posts using the Sec-Fetch-Site and Origin headers.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	return protection.Handler(next)
}

// timeout times out the request and cancels the context using http.TimeoutHandler.
func (app *application) timeout(next http.Handler) http.Handler {
	return timeoutAfter(app.requestTimeout, next)
}

// longTimeout is timeout for plan generation, which waits on a slow model behind the planning API. The write deadline
// of the connection is extended to match.
func (app *application) longTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Now().Add(app.generateTimeout)); err != nil {
			app.serverError(w, r, err)
			return
		}
		timeoutAfter(app.generateTimeout, next).ServeHTTP(w, r)
	})
}

func timeoutAfter(d time.Duration, next http.Handler) http.Handler {
	// The handler has to respond before the server's write deadline closes the connection.
	return http.TimeoutHandler(next, d-200*time.Millisecond, timeoutBody) //nolint:mnd // writing takes time.
}
