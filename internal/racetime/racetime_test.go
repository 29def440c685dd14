package racetime_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/myrjola/coach21k/internal/racetime"
)

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr error
	}{
		{input: "1:45:00", want: 105},
		{input: "01:45:30", want: 105.5},
		{input: "22:30", want: 22.5},
		{input: "1:45", want: 1.75},
		{input: " 25 ", want: 25},
		{input: "24.5", want: 24.5},
		{input: "0", want: 0},
		{input: "90:00", want: 90},
		{input: "", wantErr: racetime.ErrEmpty},
		{input: "   ", wantErr: racetime.ErrEmpty},
		{input: "abc", wantErr: racetime.ErrInvalid},
		{input: "-5", wantErr: racetime.ErrInvalid},
		{input: "1:60", wantErr: racetime.ErrInvalid},
		{input: "1:75:00", wantErr: racetime.ErrInvalid},
		{input: "1:2.5", wantErr: racetime.ErrInvalid},
		{input: "1::30", wantErr: racetime.ErrInvalid},
		{input: "1:00:00:00", wantErr: racetime.ErrInvalid},
		{input: "1e3", wantErr: racetime.ErrInvalid},
		{input: "Inf", wantErr: racetime.ErrInvalid},
		{input: ":30", wantErr: racetime.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := racetime.ParseMinutes(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseMinutes(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMinutes(%q) unexpected error: %v", tt.input, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseMinutes(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{minutes: 105.5, want: "1:45:30"},
		{minutes: 22.5, want: "22:30"},
		{minutes: 0, want: "0:00"},
	}
	for _, tt := range tests {
		if got := racetime.Format(tt.minutes); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestCountdown(t *testing.T) {
	today := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	tests := []struct {
		race      string
		wantDays  int
		wantWeeks int
	}{
		{race: "2026-10-25", wantDays: 7, wantWeeks: 1},
		{race: "2026-10-26", wantDays: 8, wantWeeks: 2},
		{race: "2026-10-19", wantDays: 1, wantWeeks: 1},
		{race: "2026-10-18", wantDays: 0, wantWeeks: 0},
		{race: "2026-10-01", wantDays: -17, wantWeeks: 0},
		{race: "2027-03-28", wantDays: 161, wantWeeks: 23},
	}
	for _, tt := range tests {
		t.Run(tt.race, func(t *testing.T) {
			race, err := racetime.ParseRaceDate(tt.race)
			if err != nil {
				t.Fatalf("ParseRaceDate(%q): %v", tt.race, err)
			}
			days, weeks := racetime.Countdown(race, today)
			if days != tt.wantDays || weeks != tt.wantWeeks {
				t.Errorf("Countdown() = %d days %d weeks, want %d days %d weeks", days, weeks, tt.wantDays, tt.wantWeeks)
			}
		})
	}
}

func TestParseRaceDate_invalid(t *testing.T) {
	for _, s := range []string{"", "2026-13-01", "18/10/2026"} {
		if _, err := racetime.ParseRaceDate(s); err == nil {
			t.Errorf("ParseRaceDate(%q) succeeded", s)
		}
	}
}
