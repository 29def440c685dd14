// Package wizard holds the plan questionnaire: its steps, the answer options, per-step validation and the request
// payload built from a completed form.
package wizard

import (
	"encoding/gob"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/ptr"
	"github.com/myrjola/coach21k/internal/racetime"
)

// Step identifies a questionnaire step. The value doubles as the form field name.
type Step string

const (
	StepRaceType            Step = "race_type"
	StepLevel               Step = "level"
	StepDaysPerWeek         Step = "days_per_week"
	StepRaceDate            Step = "race_date"
	StepPreferredLongRunDay Step = "preferred_longrun_day"
	StepTargetTime          Step = "target_time"
	StepRecent5K            Step = "recent_5k"
	StepSummary             Step = "summary"
)

// Steps in the order they are presented.
var Steps = []Step{ //nolint:gochecknoglobals // fixed questionnaire order.
	StepRaceType,
	StepLevel,
	StepDaysPerWeek,
	StepRaceDate,
	StepPreferredLongRunDay,
	StepTargetTime,
	StepRecent5K,
	StepSummary,
}

const (
	minWeeks = 1
	maxWeeks = 26
)

// Option is a selectable answer. LabelKey is a translation key.
type Option struct {
	Value    string
	LabelKey string
}

// Options returns the selectable answers of a step, or nil for free-form steps.
func Options(step Step) []Option {
	switch step {
	case StepRaceType:
		return []Option{
			{Value: "5k", LabelKey: "wizard.race_type.5k"},
			{Value: "10k", LabelKey: "wizard.race_type.10k"},
			{Value: "21k", LabelKey: "wizard.race_type.21k"},
			{Value: "42k", LabelKey: "wizard.race_type.42k"},
		}
	case StepLevel:
		return []Option{
			{Value: "principiante", LabelKey: "wizard.level.principiante"},
			{Value: "intermedio", LabelKey: "wizard.level.intermedio"},
			{Value: "avanzado", LabelKey: "wizard.level.avanzado"},
		}
	case StepDaysPerWeek:
		options := make([]Option, 0, 7) //nolint:mnd // days in a week.
		for d := 1; d <= 7; d++ {
			v := strconv.Itoa(d)
			options = append(options, Option{Value: v, LabelKey: v})
		}
		return options
	case StepPreferredLongRunDay:
		// The planning API expects the Spanish weekday names.
		return []Option{
			{Value: "", LabelKey: "wizard.longrun.none"},
			{Value: "Lunes", LabelKey: "weekday.monday"},
			{Value: "Martes", LabelKey: "weekday.tuesday"},
			{Value: "Miércoles", LabelKey: "weekday.wednesday"},
			{Value: "Jueves", LabelKey: "weekday.thursday"},
			{Value: "Viernes", LabelKey: "weekday.friday"},
			{Value: "Sábado", LabelKey: "weekday.saturday"},
			{Value: "Domingo", LabelKey: "weekday.sunday"},
		}
	case StepRaceDate, StepTargetTime, StepRecent5K, StepSummary:
		return nil
	}
	return nil
}

func isOption(step Step, value string) bool {
	return slices.ContainsFunc(Options(step), func(o Option) bool { return o.Value == value })
}

// ValidationError reports the step that failed and a translation key describing why.
type ValidationError struct {
	Step Step
	Key  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Step, e.Key)
}

// Form is the questionnaire state kept in the session between steps.
type Form struct {
	// Index of the current step in Steps.
	Index               int
	RaceType            string
	Level               string
	DaysPerWeek         string
	RaceDate            string
	PreferredLongRunDay string
	TargetTime          string
	Recent5K            string
}

func init() {
	gob.Register(Form{}) //nolint:exhaustruct // type registration.
}

// Current returns the step at Index.
func (f Form) Current() Step {
	return Steps[min(max(f.Index, 0), len(Steps)-1)]
}

// IsFirst reports whether the form is on the first step.
func (f Form) IsFirst() bool {
	return f.Index <= 0
}

// IsLast reports whether the form is on the summary step.
func (f Form) IsLast() bool {
	return f.Index >= len(Steps)-1
}

// Value returns the answer of a step.
func (f Form) Value(step Step) string {
	switch step {
	case StepRaceType:
		return f.RaceType
	case StepLevel:
		return f.Level
	case StepDaysPerWeek:
		return f.DaysPerWeek
	case StepRaceDate:
		return f.RaceDate
	case StepPreferredLongRunDay:
		return f.PreferredLongRunDay
	case StepTargetTime:
		return f.TargetTime
	case StepRecent5K:
		return f.Recent5K
	case StepSummary:
		return ""
	}
	return ""
}

// Set returns a copy of the form with the answer of step replaced. Surrounding whitespace is dropped.
func (f Form) Set(step Step, value string) Form {
	value = strings.TrimSpace(value)
	switch step {
	case StepRaceType:
		f.RaceType = value
	case StepLevel:
		f.Level = value
	case StepDaysPerWeek:
		f.DaysPerWeek = value
	case StepRaceDate:
		f.RaceDate = value
	case StepPreferredLongRunDay:
		f.PreferredLongRunDay = value
	case StepTargetTime:
		f.TargetTime = value
	case StepRecent5K:
		f.Recent5K = value
	case StepSummary:
	}
	return f
}

// Validate checks the answer of a single step.
func (f Form) Validate(step Step, today time.Time) error {
	fail := func(key string) error { return &ValidationError{Step: step, Key: key} }
	switch step {
	case StepRaceType, StepLevel, StepDaysPerWeek:
		if !isOption(step, f.Value(step)) {
			return fail("wizard.error." + string(step))
		}
	case StepRaceDate:
		if f.RaceDate == "" {
			return fail("wizard.error.race_date.missing")
		}
		days, weeks, ok := f.Countdown(today)
		switch {
		case !ok:
			return fail("wizard.error.race_date.invalid")
		case days <= 0:
			return fail("wizard.error.race_date.past")
		case weeks < minWeeks:
			return fail("wizard.error.race_date.too_soon")
		case weeks > maxWeeks:
			return fail("wizard.error.race_date.too_far")
		}
	case StepPreferredLongRunDay:
		if !isOption(step, f.PreferredLongRunDay) {
			return fail("wizard.error.preferred_longrun_day")
		}
	case StepTargetTime, StepRecent5K:
		if v := f.Value(step); v != "" {
			if _, err := racetime.ParseMinutes(v); err != nil {
				return fail("wizard.error." + string(step))
			}
		}
	case StepSummary:
	}
	return nil
}

// Countdown returns the days and weeks left until the race date.
func (f Form) Countdown(today time.Time) (int, int, bool) {
	race, err := racetime.ParseRaceDate(f.RaceDate)
	if err != nil {
		return 0, 0, false
	}
	days, weeks := racetime.Countdown(race, today)
	return days, weeks, true
}

// Next validates the current step and advances. It stays on the summary step.
func (f Form) Next(today time.Time) (Form, error) {
	if err := f.Validate(f.Current(), today); err != nil {
		return f, err
	}
	if !f.IsLast() {
		f.Index++
	}
	return f, nil
}

// Prev goes back one step without validating. It stays on the first step.
func (f Form) Prev() Form {
	if !f.IsFirst() {
		f.Index--
	}
	return f
}

// ValidateAll validates every step in order. On failure the returned form points at the failing step.
func (f Form) ValidateAll(today time.Time) (Form, error) {
	for i, step := range Steps {
		if err := f.Validate(step, today); err != nil {
			f.Index = i
			return f, err
		}
	}
	return f, nil
}

// Request builds the plan generation payload. The form must pass ValidateAll.
func (f Form) Request(userID string, today time.Time) (planapi.PlanRequest, error) {
	if _, err := f.ValidateAll(today); err != nil {
		return planapi.PlanRequest{}, err
	}
	days, err := strconv.Atoi(f.DaysPerWeek)
	if err != nil {
		return planapi.PlanRequest{}, fmt.Errorf("parse days per week: %w", err)
	}
	_, weeks, _ := f.Countdown(today)

	req := planapi.PlanRequest{
		UserID:              userID,
		RaceType:            f.RaceType,
		Level:               f.Level,
		DaysPerWeek:         days,
		RaceDate:            f.RaceDate,
		WeeksUntilRace:      weeks,
		PreferredLongRunDay: nil,
		TargetTimeMinutes:   nil,
		Recent5KMinutes:     nil,
	}
	if f.PreferredLongRunDay != "" {
		req.PreferredLongRunDay = ptr.Ref(f.PreferredLongRunDay)
	}
	if f.TargetTime != "" {
		minutes, _ := racetime.ParseMinutes(f.TargetTime)
		req.TargetTimeMinutes = ptr.Ref(minutes)
	}
	if f.Recent5K != "" {
		minutes, _ := racetime.ParseMinutes(f.Recent5K)
		req.Recent5KMinutes = ptr.Ref(minutes)
	}
	return req, nil
}
