package plan_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/coach21k/internal/plan"
)

func stepTexts(steps []plan.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		if s.JSON != "" {
			out[i] = "json"
			continue
		}
		out[i] = s.Text
	}
	return out
}

func TestParseDescription(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "sentences and lines",
			raw:  `"Calienta 10 min. Haz 6 series de 400 m.\r\nEnfría 5 min"`,
			want: []string{"Calienta 10 min.", "Haz 6 series de 400 m.", "Enfría 5 min"},
		},
		{
			name: "decimal numbers stay together",
			raw:  `"Ritmo 5.30 min/km"`,
			want: []string{"Ritmo 5.30 min/km"},
		},
		{
			name: "array of strings",
			raw:  `["uno", "", "dos"]`,
			want: []string{"uno", "dos"},
		},
		{
			name: "steps object",
			raw:  `{"steps":[{"text":"Trote suave"},{"type":"series","reps":6,"distance_km":0.4,"pace_min_km":"4:30"}]}`,
			want: []string{"Trote suave", "series 6x 0.4 km @ 4:30"},
		},
		{
			name: "text object",
			raw:  `{"text":"Rodaje continuo"}`,
			want: []string{"Rodaje continuo"},
		},
		{
			name: "typed step with time and note",
			raw:  `[{"type":"tempo","time_min":20,"note":"cómodo"}]`,
			want: []string{"tempo 20 min - cómodo"},
		},
		{
			name: "fartlek interval",
			raw:  `[{"reps":8,"time_min_fast":1,"time_min_easy":2,"pace_min_km_fast":"4:10"}]`,
			want: []string{"8x 1min fast 2min easy @ 4:10"},
		},
		{
			name: "unknown object falls back to json",
			raw:  `{"hr_zone":2}`,
			want: []string{"json"},
		},
		{
			name: "number",
			raw:  `42`,
			want: []string{"42"},
		},
		{
			name: "null",
			raw:  `null`,
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stepTexts(plan.ParseDescription(json.RawMessage(tt.raw)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDescription() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWorkout_StepsFallback(t *testing.T) {
	var w plan.Workout
	if err := json.Unmarshal([]byte(`{"id":1,"description":null,"notes":"Rodaje 8 km. Estiramientos."}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"Rodaje 8 km.", "Estiramientos."}, stepTexts(w.Steps())); diff != "" {
		t.Errorf("Steps() mismatch (-want +got):\n%s", diff)
	}
	if got, want := w.Summary(), "Rodaje 8 km. Estiramientos."; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestWorkout_Segments(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []plan.Segment
	}{
		{
			name: "explicit segments",
			body: `{"id":1,"segments":[{"distance_km":2},{"type":"fast","reps":4,"time_min_fast":1,"pace":"4:00"}]}`,
			want: []plan.Segment{
				{Type: "segment", Reps: "-", Amount: "2 km", Pace: "-"},
				{Type: "fast", Reps: "4", Amount: "1 / - min", Pace: "4:00"},
			},
		},
		{
			name: "derived from description",
			body: `{"id":1,"description":[{"type":"easy","time_min":10},"estira",{"hr":1}]}`,
			want: []plan.Segment{
				{Type: "easy", Reps: "-", Amount: "10 min", Pace: "-"},
			},
		},
		{
			name: "none",
			body: `{"id":1,"description":"Descanso"}`,
			want: []plan.Segment{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w plan.Workout
			if err := json.Unmarshal([]byte(tt.body), &w); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, w.Segments()); diff != "" {
				t.Errorf("Segments() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDescription_jsonFallbackIsIndented(t *testing.T) {
	steps := plan.ParseDescription(json.RawMessage(`{"hr_zone":2}`))
	if len(steps) != 1 || !strings.Contains(steps[0].JSON, "\n  \"hr_zone\": 2\n") {
		t.Errorf("expected indented JSON step, got %+v", steps)
	}
}
