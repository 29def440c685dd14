package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var cspViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coach21k",
	Name:      "csp_violations_total",
	Help:      "Content Security Policy violations reported by browsers, labeled by effective directive.",
}, []string{"directive"})

func init() {
	prometheus.MustRegister(cspViolations)
}

// cspViolation is the subset of a violation report that is logged. Browsers send either the report-uri format or
// the Reporting API format.
type cspViolation struct {
	DocumentURL string
	Directive   string
	BlockedURL  string
	SourceFile  string
	LineNumber  int
	Sample      string
}

type legacyCSPReport struct {
	CSPReport struct {
		DocumentURI        string `json:"document-uri"`
		ViolatedDirective  string `json:"violated-directive"`
		EffectiveDirective string `json:"effective-directive"`
		BlockedURI         string `json:"blocked-uri"`
		SourceFile         string `json:"source-file"`
		LineNumber         int    `json:"line-number"`
		ScriptSample       string `json:"script-sample"`
	} `json:"csp-report"`
}

type reportingAPIReport struct {
	Type string `json:"type"`
	Body struct {
		DocumentURL        string `json:"documentURL"`
		EffectiveDirective string `json:"effectiveDirective"`
		BlockedURL         string `json:"blockedURL"`
		SourceFile         string `json:"sourceFile"`
		LineNumber         int    `json:"lineNumber"`
		Sample             string `json:"sample"`
	} `json:"body"`
}

func parseCSPReports(contentType string, body []byte) ([]cspViolation, error) {
	if strings.HasPrefix(contentType, "application/reports+json") {
		var reports []reportingAPIReport
		if err := json.Unmarshal(body, &reports); err != nil {
			return nil, errors.Wrap(err, "unmarshal reports")
		}
		violations := make([]cspViolation, 0, len(reports))
		for _, r := range reports {
			if r.Type != "csp-violation" {
				continue
			}
			violations = append(violations, cspViolation{
				DocumentURL: r.Body.DocumentURL,
				Directive:   r.Body.EffectiveDirective,
				BlockedURL:  r.Body.BlockedURL,
				SourceFile:  r.Body.SourceFile,
				LineNumber:  r.Body.LineNumber,
				Sample:      r.Body.Sample,
			})
		}
		return violations, nil
	}

	var report legacyCSPReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, errors.Wrap(err, "unmarshal csp-report")
	}
	r := report.CSPReport
	directive := r.EffectiveDirective
	if directive == "" {
		directive = r.ViolatedDirective
	}
	return []cspViolation{{
		DocumentURL: r.DocumentURI,
		Directive:   directive,
		BlockedURL:  r.BlockedURI,
		SourceFile:  r.SourceFile,
		LineNumber:  r.LineNumber,
		Sample:      r.ScriptSample,
	}}, nil
}

// cspViolation logs and counts violation reports sent by browsers.
func (app *application) cspViolation(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 64 * 1024
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "read csp report", errors.SlogError(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	violations, err := parseCSPReports(r.Header.Get("Content-Type"), body)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "parse csp report",
			errors.SlogError(err), slog.String("body", string(body)))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	for _, v := range violations {
		directive := v.Directive
		if directive == "" {
			directive = "unknown"
		}
		cspViolations.WithLabelValues(directive).Inc()
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "csp violation",
			slog.String("document_url", v.DocumentURL),
			slog.String("directive", directive),
			slog.String("blocked_url", v.BlockedURL),
			slog.String("source_file", v.SourceFile),
			slog.Int("line_number", v.LineNumber),
			slog.String("sample", v.Sample),
			slog.String("user_agent", r.UserAgent()))
	}

	w.WriteHeader(http.StatusNoContent)
}
