// Package racetime parses race and pace durations typed by runners and computes the countdown to a race.
//
// The accepted grammar is explicit:
//
//	H:MM:SS  hours, minutes and seconds
//	M:SS     minutes and seconds
//	M[.f]    minutes, optionally fractional
//
// The first component is a non-negative decimal. Later components are whole numbers below 60.
package racetime

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/coach21k/internal/errors"
)

var (
	ErrEmpty   = errors.NewSentinel("empty time")
	ErrInvalid = errors.NewSentinel("invalid time")
)

var (
	leadingComponent  = regexp.MustCompile(`^\d+(\.\d+)?$`)
	trailingComponent = regexp.MustCompile(`^\d{1,2}$`)
)

// ParseMinutes converts a duration string to minutes.
func ParseMinutes(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 { //nolint:mnd // H:MM:SS is the longest form.
		return 0, invalid(s)
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if !leadingComponent.MatchString(parts[0]) {
		return 0, invalid(s)
	}
	lead, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || math.IsInf(lead, 0) {
		return 0, invalid(s)
	}

	rest := make([]float64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if !trailingComponent.MatchString(p) {
			return 0, invalid(s)
		}
		n, _ := strconv.Atoi(p)
		if n >= 60 { //nolint:mnd // seconds and minutes per unit.
			return 0, invalid(s)
		}
		rest = append(rest, float64(n))
	}

	switch len(rest) {
	case 0:
		return lead, nil
	case 1:
		return lead + rest[0]/60, nil
	default:
		return lead*60 + rest[0] + rest[1]/60, nil
	}
}

func invalid(s string) error {
	return fmt.Errorf("%w: %q", ErrInvalid, s)
}

// Format renders minutes as H:MM:SS, or M:SS below an hour, rounding to the nearest second.
func Format(minutes float64) string {
	total := int(math.Round(minutes * 60))
	h, m, sec := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// ParseRaceDate parses a YYYY-MM-DD race date.
func ParseRaceDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse race date: %w", err)
	}
	return t, nil
}

// Countdown returns the calendar days from today to race and the weeks those days span, rounded up and never
// negative. Only the dates matter, not the clock time of today.
func Countdown(race, today time.Time) (int, int) {
	r := time.Date(race.Year(), race.Month(), race.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	days := int(r.Sub(t).Hours() / 24) //nolint:mnd // hours per day.
	weeks := max(0, int(math.Ceil(float64(days)/7))) //nolint:mnd // days per week.
	return days, weeks
}
