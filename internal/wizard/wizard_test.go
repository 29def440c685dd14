package wizard_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/ptr"
	"github.com/myrjola/coach21k/internal/wizard"
)

var today = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func completeForm() wizard.Form {
	return wizard.Form{
		Index:               0,
		RaceType:            "21k",
		Level:               "intermedio",
		DaysPerWeek:         "4",
		RaceDate:            "2027-03-28",
		PreferredLongRunDay: "Domingo",
		TargetTime:          "1:45:00",
		Recent5K:            "22:30",
	}
}

func TestForm_Validate(t *testing.T) {
	tests := []struct {
		name    string
		step    wizard.Step
		value   string
		wantKey string
	}{
		{name: "race type missing", step: wizard.StepRaceType, value: "", wantKey: "wizard.error.race_type"},
		{name: "race type unknown", step: wizard.StepRaceType, value: "100k", wantKey: "wizard.error.race_type"},
		{name: "race type ok", step: wizard.StepRaceType, value: "42k"},
		{name: "level missing", step: wizard.StepLevel, value: "", wantKey: "wizard.error.level"},
		{name: "days missing", step: wizard.StepDaysPerWeek, value: "", wantKey: "wizard.error.days_per_week"},
		{name: "days out of range", step: wizard.StepDaysPerWeek, value: "8", wantKey: "wizard.error.days_per_week"},
		{name: "race date missing", step: wizard.StepRaceDate, value: "", wantKey: "wizard.error.race_date.missing"},
		{name: "race date invalid", step: wizard.StepRaceDate, value: "28/03/2027",
			wantKey: "wizard.error.race_date.invalid"},
		{name: "race date today", step: wizard.StepRaceDate, value: "2026-10-18",
			wantKey: "wizard.error.race_date.past"},
		{name: "race date past", step: wizard.StepRaceDate, value: "2026-01-01",
			wantKey: "wizard.error.race_date.past"},
		{name: "race date tomorrow is one week", step: wizard.StepRaceDate, value: "2026-10-19"},
		{name: "race date 26 weeks", step: wizard.StepRaceDate, value: "2027-04-18"},
		{name: "race date 27 weeks", step: wizard.StepRaceDate, value: "2027-04-19",
			wantKey: "wizard.error.race_date.too_far"},
		{name: "no long run preference", step: wizard.StepPreferredLongRunDay, value: ""},
		{name: "unknown long run day", step: wizard.StepPreferredLongRunDay, value: "Someday",
			wantKey: "wizard.error.preferred_longrun_day"},
		{name: "target time optional", step: wizard.StepTargetTime, value: ""},
		{name: "target time invalid", step: wizard.StepTargetTime, value: "1:75:00",
			wantKey: "wizard.error.target_time"},
		{name: "recent 5k invalid", step: wizard.StepRecent5K, value: "abc", wantKey: "wizard.error.recent_5k"},
		{name: "recent 5k ok", step: wizard.StepRecent5K, value: "22:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := completeForm().Set(tt.step, tt.value).Validate(tt.step, today)
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var verr *wizard.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Step != tt.step || verr.Key != tt.wantKey {
				t.Errorf("Validate() = %+v, want key %s", verr, tt.wantKey)
			}
		})
	}
}

func TestForm_NextPrev(t *testing.T) {
	var f wizard.Form
	if f.Current() != wizard.StepRaceType || !f.IsFirst() {
		t.Fatalf("zero form starts at %s", f.Current())
	}
	if f.Prev().Index != 0 {
		t.Error("Prev() moved before the first step")
	}

	next, err := f.Next(today)
	if err == nil || next.Index != 0 {
		t.Fatalf("Next() without an answer = index %d err %v", next.Index, err)
	}

	f = f.Set(wizard.StepRaceType, " 10k ")
	if f.RaceType != "10k" {
		t.Errorf("Set() kept whitespace: %q", f.RaceType)
	}
	if f, err = f.Next(today); err != nil || f.Current() != wizard.StepLevel {
		t.Fatalf("Next() = %s, %v", f.Current(), err)
	}
	if f = f.Prev(); f.Current() != wizard.StepRaceType {
		t.Errorf("Prev() = %s", f.Current())
	}

	last := completeForm()
	last.Index = len(wizard.Steps) - 1
	if got, _ := last.Next(today); got.Index != last.Index || !got.IsLast() {
		t.Errorf("Next() moved past the summary to %d", got.Index)
	}
}

func TestForm_ValidateAll(t *testing.T) {
	f := completeForm()
	f.Index = 7
	f.Level = ""
	got, err := f.ValidateAll(today)
	var verr *wizard.ValidationError
	if !errors.As(err, &verr) || verr.Step != wizard.StepLevel {
		t.Fatalf("ValidateAll() error = %v, want level failure", err)
	}
	if got.Current() != wizard.StepLevel {
		t.Errorf("ValidateAll() points at %s, want level", got.Current())
	}
	if _, err = completeForm().ValidateAll(today); err != nil {
		t.Errorf("ValidateAll(complete) error: %v", err)
	}
}

func TestForm_Request(t *testing.T) {
	got, err := completeForm().Request("42", today)
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	want := planapi.PlanRequest{
		UserID:              "42",
		RaceType:            "21k",
		Level:               "intermedio",
		DaysPerWeek:         4,
		RaceDate:            "2027-03-28",
		WeeksUntilRace:      23,
		PreferredLongRunDay: ptr.Ref("Domingo"),
		TargetTimeMinutes:   ptr.Ref(105.0),
		Recent5KMinutes:     ptr.Ref(22.5),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Request() mismatch (-want +got):\n%s", diff)
	}

	optional := completeForm()
	optional.PreferredLongRunDay, optional.TargetTime, optional.Recent5K = "", "", ""
	got, err = optional.Request("42", today)
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if got.PreferredLongRunDay != nil || got.TargetTimeMinutes != nil || got.Recent5KMinutes != nil {
		t.Errorf("optional answers should be null, got %+v", got)
	}

	if _, err = (wizard.Form{}).Request("42", today); err == nil { //nolint:exhaustruct // empty form.
		t.Error("Request() accepted an empty form")
	}
}

func TestOptions(t *testing.T) {
	if got := len(wizard.Options(wizard.StepDaysPerWeek)); got != 7 {
		t.Errorf("days per week options = %d, want 7", got)
	}
	if wizard.Options(wizard.StepRaceDate) != nil {
		t.Error("race date should be free-form")
	}
}
