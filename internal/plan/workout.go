// Package plan models the workout records served by the planning API.
//
// Records are loosely typed on the wire: ids arrive as strings or numbers, most display fields are optional, and the
// description can be free text or structured steps. Workout keeps the original JSON object so that nothing the API
// sends is lost when a record is passed through or downloaded.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID identifies a workout. The planning API sends it either as a JSON string or a JSON number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("unmarshal workout id: %w", err)
	}
	*id = ID(t)
	return nil
}

// Text is a display value that may arrive as a JSON string, number, boolean or null. Nested objects and arrays
// are kept as compact JSON.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("unmarshal text: %w", err)
		}
		*t = Text(s)
	case b[0] == '{' || b[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return fmt.Errorf("compact text: %w", err)
		}
		*t = Text(buf.String())
	default:
		// Numbers and booleans are kept verbatim.
		*t = Text(b)
	}
	return nil
}

// Workout is a single scheduled training session.
type Workout struct {
	ID            ID
	Date          string
	Week          Text
	Day           Text
	Type          Text
	DistanceKM    Text
	PaceMinKM     Text
	PaceText      Text
	Intensity     Text
	EstimatedTime Text
	Advice        Text
	CompletedAt   Text
	// Raw is the JSON object as received. It is the source of truth for MarshalJSON.
	Raw json.RawMessage
}

// wireWorkout lists the fields we understand. Everything else stays in Workout.Raw.
type wireWorkout struct {
	ID            ID   `json:"id"`
	Date          Text `json:"date"`
	Week          Text `json:"week"`
	Day           Text `json:"day"`
	Type          Text `json:"type"`
	DistanceKM    Text `json:"distance_km"`
	PaceMinKM     Text `json:"pace_min_km"`
	PaceText      Text `json:"pace_text"`
	Intensity     Text `json:"intensity"`
	EstimatedTime Text `json:"estimated_time"`
	Advice        Text `json:"advice"`
	CompletedAt   Text `json:"completed_at"`
}

func (w *Workout) UnmarshalJSON(b []byte) error {
	var wire wireWorkout
	if err := json.Unmarshal(b, &wire); err != nil {
		return fmt.Errorf("unmarshal workout: %w", err)
	}
	*w = Workout{
		ID:            wire.ID,
		Date:          string(wire.Date),
		Week:          wire.Week,
		Day:           wire.Day,
		Type:          wire.Type,
		DistanceKM:    wire.DistanceKM,
		PaceMinKM:     wire.PaceMinKM,
		PaceText:      wire.PaceText,
		Intensity:     wire.Intensity,
		EstimatedTime: wire.EstimatedTime,
		Advice:        wire.Advice,
		CompletedAt:   wire.CompletedAt,
		Raw:           bytes.Clone(bytes.TrimSpace(b)),
	}
	return nil
}

// MarshalJSON returns the record as received, or the known fields for records built in code.
func (w Workout) MarshalJSON() ([]byte, error) {
	if len(w.Raw) > 0 {
		return w.Raw, nil
	}
	fields := map[string]any{"id": string(w.ID), "date": w.Date}
	for key, value := range map[string]Text{
		"week": w.Week, "day": w.Day, "type": w.Type, "distance_km": w.DistanceKM, "pace_min_km": w.PaceMinKM,
		"pace_text": w.PaceText, "intensity": w.Intensity, "estimated_time": w.EstimatedTime, "advice": w.Advice,
		"completed_at": w.CompletedAt,
	} {
		if value != "" {
			fields[key] = string(value)
		}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal workout: %w", err)
	}
	return b, nil
}

// Time parses Date strictly as YYYY-MM-DD in UTC.
func (w Workout) Time() (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, w.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// YearMonth splits Date on "-" into its year and month. Only the YYYY-MM-DD shape and the month range are checked,
// so a day the calendar does not have, such as 2024-02-30, still belongs to its month.
func (w Workout) YearMonth() (int, time.Month, bool) {
	parts := strings.Split(w.Date, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return 0, 0, false
	}
	for _, p := range parts {
		if strings.Trim(p, "0123456789") != "" {
			return 0, 0, false
		}
	}
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// Weekday of the workout date.
func (w Workout) Weekday() (time.Weekday, bool) {
	t, ok := w.Time()
	if !ok {
		return time.Sunday, false
	}
	return t.Weekday(), true
}

// Completed reports whether the record carries a completion timestamp.
func (w Workout) Completed() bool {
	return w.CompletedAt != ""
}

// Pace returns pace_min_km falling back to pace_text.
func (w Workout) Pace() string {
	if w.PaceMinKM != "" {
		return string(w.PaceMinKM)
	}
	return string(w.PaceText)
}

// Distance formats numeric distances as "N km" and passes free-form ones through.
func (w Workout) Distance() string {
	if w.DistanceKM == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(string(w.DistanceKM), 64); err == nil {
		return string(w.DistanceKM) + " km"
	}
	return string(w.DistanceKM)
}

// field returns the raw JSON of a top-level key or nil when absent or null.
func (w Workout) field(key string) json.RawMessage {
	if len(w.Raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(w.Raw, &fields); err != nil {
		return nil
	}
	v, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil
	}
	return v
}

// WithCompletedAt returns a copy with completed_at set to at, or null when at is nil.
func (w Workout) WithCompletedAt(at *time.Time) (Workout, error) {
	fields := map[string]json.RawMessage{}
	raw, err := w.MarshalJSON()
	if err != nil {
		return Workout{}, err
	}
	if err = json.Unmarshal(raw, &fields); err != nil {
		return Workout{}, fmt.Errorf("unmarshal workout fields: %w", err)
	}
	fields["completed_at"] = json.RawMessage("null")
	if at != nil {
		if fields["completed_at"], err = json.Marshal(at.UTC().Format(time.RFC3339)); err != nil {
			return Workout{}, fmt.Errorf("marshal completed_at: %w", err)
		}
	}
	if raw, err = json.Marshal(fields); err != nil {
		return Workout{}, fmt.Errorf("marshal workout fields: %w", err)
	}
	var next Workout
	if err = next.UnmarshalJSON(raw); err != nil {
		return Workout{}, err
	}
	return next, nil
}

// IndentedJSON renders the record for download.
func (w Workout) IndentedJSON() ([]byte, error) {
	raw, err := w.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent workout: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DownloadName is the attachment file name, e.g. workout-week3-lunes.json.
func (w Workout) DownloadName() string {
	week := string(w.Week)
	if week == "" {
		week = "x"
	}
	day := strings.ToLower(string(w.Day))
	if day == "" {
		day = "workout"
	}
	return sanitizeFileName(fmt.Sprintf("workout-week%s-%s.json", week, day))
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n', ';':
			return -1
		case ' ':
			return '-'
		default:
			return r
		}
	}, name)
}
