// Package icsexport renders a training plan as an iCalendar feed with one all-day event per workout.
package icsexport

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/myrjola/coach21k/internal/plan"
)

const productID = "-//coach21k//training plan//ES"

// Options for the exported calendar.
type Options struct {
	// Name is shown by calendar apps as the calendar title.
	Name string
	// DefaultSummary titles workouts without a type.
	DefaultSummary string
	// PaceLabel prefixes the pace line of event descriptions.
	PaceLabel string
	// Stamp is the DTSTAMP of every event.
	Stamp time.Time
}

// Calendar builds the calendar. Workouts without a valid date are skipped.
func Calendar(workouts []plan.Workout, opts Options) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	for _, w := range workouts {
		day, ok := w.Time()
		if !ok {
			continue
		}
		event := cal.AddEvent(UID(w))
		event.SetDtStampTime(opts.Stamp.UTC())
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(summary(w, opts.DefaultSummary))
		if description := describe(w, opts.PaceLabel); description != "" {
			event.SetDescription(description)
		}
	}
	return cal
}

// Write serializes the calendar to w.
func Write(w io.Writer, workouts []plan.Workout, opts Options) error {
	if _, err := io.WriteString(w, Calendar(workouts, opts).Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

// UID is stable across exports so that re-importing updates events instead of duplicating them.
func UID(w plan.Workout) string {
	return fmt.Sprintf("workout-%s@coach21k", w.ID)
}

func summary(w plan.Workout, fallback string) string {
	title := string(w.Type)
	if title == "" {
		title = fallback
	}
	if distance := w.Distance(); distance != "" {
		title += " · " + distance
	}
	if w.Completed() {
		title = "✓ " + title
	}
	return title
}

func describe(w plan.Workout, paceLabel string) string {
	var lines []string
	if pace := w.Pace(); pace != "" {
		lines = append(lines, paceLabel+": "+pace)
	}
	for _, step := range w.Steps() {
		if step.Text != "" {
			lines = append(lines, step.Text)
		}
	}
	if w.Advice != "" {
		lines = append(lines, string(w.Advice))
	}
	return strings.Join(lines, "\n")
}
