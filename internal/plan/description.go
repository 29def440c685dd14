package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Step is one displayable line of a workout description. Exactly one of Text and JSON is set; JSON holds indented
// source for structured steps that have no human-readable rendering.
type Step struct {
	Text string
	JSON string
}

// Segment is a row of the segments table on the workout detail page. Empty cells are "-".
type Segment struct {
	Type   string
	Reps   string
	Amount string
	Pace   string
}

type descriptionItem struct {
	value       any
	fromSegment bool
}

// Steps parses the description, falling back to notes and description_raw, into display steps.
func (w Workout) Steps() []Step {
	return renderSteps(w.descriptionItems())
}

func renderSteps(items []descriptionItem) []Step {
	steps := make([]Step, 0, len(items))
	for _, item := range items {
		if step, ok := renderStep(item.value); ok {
			steps = append(steps, step)
		}
	}
	return steps
}

// Segments returns the explicit segments of the workout or, when absent, the structured description steps that look
// like segments.
func (w Workout) Segments() []Segment {
	var items []descriptionItem
	if raw := w.field("segments"); raw != nil {
		var values []any
		if err := decodeNumbers(raw, &values); err != nil {
			return nil
		}
		for _, v := range values {
			items = append(items, descriptionItem{value: v, fromSegment: true})
		}
	} else {
		for _, item := range w.descriptionItems() {
			obj, ok := item.value.(map[string]any)
			if ok && (truthy(obj["type"]) || truthy(obj["reps"]) || truthy(obj["distance_km"]) ||
				truthy(obj["time_min"])) {
				items = append(items, item)
			}
		}
	}
	segments := make([]Segment, 0, len(items))
	for _, item := range items {
		obj, ok := item.value.(map[string]any)
		if !ok {
			continue
		}
		segments = append(segments, toSegment(obj, item.fromSegment))
	}
	return segments
}

// Summary is a one-line description for cards: the description or notes when they are plain text.
func (w Workout) Summary() string {
	for _, key := range []string{"description", "notes"} {
		var s string
		if raw := w.field(key); raw != nil && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func (w Workout) descriptionItems() []descriptionItem {
	for _, key := range []string{"description", "notes", "description_raw"} {
		if raw := w.field(key); raw != nil {
			return parseDescriptionItems(raw)
		}
	}
	return nil
}

// ParseDescription splits a description into display steps.
//
// Strings are split on line breaks and after sentence-ending periods. Arrays yield one step per element. Objects
// yield their steps or items arrays, their text, their segments, or else the object itself.
func ParseDescription(raw json.RawMessage) []Step {
	return renderSteps(parseDescriptionItems(raw))
}

func parseDescriptionItems(raw json.RawMessage) []descriptionItem {
	var v any
	if err := decodeNumbers(raw, &v); err != nil || v == nil {
		return nil
	}
	switch desc := v.(type) {
	case string:
		return stringItems(splitSentences(desc))
	case []any:
		return anyItems(desc, false)
	case map[string]any:
		if steps, ok := desc["steps"].([]any); ok {
			return anyItems(steps, false)
		}
		if items, ok := desc["items"].([]any); ok {
			return anyItems(items, false)
		}
		if text, ok := desc["text"].(string); ok && text != "" {
			return stringItems([]string{text})
		}
		if segments, ok := desc["segments"].([]any); ok {
			return anyItems(segments, true)
		}
		return []descriptionItem{{value: desc, fromSegment: false}}
	default:
		return []descriptionItem{{value: stringify(desc), fromSegment: false}}
	}
}

func stringItems(parts []string) []descriptionItem {
	items := make([]descriptionItem, len(parts))
	for i, p := range parts {
		items[i] = descriptionItem{value: p, fromSegment: false}
	}
	return items
}

func anyItems(values []any, fromSegment bool) []descriptionItem {
	items := make([]descriptionItem, len(values))
	for i, v := range values {
		items[i] = descriptionItem{value: v, fromSegment: fromSegment}
	}
	return items
}

// splitSentences splits on \n or \r\n and after a period followed by whitespace, trimming and dropping empty parts.
func splitSentences(s string) []string {
	var parts []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		start := 0
		runes := []rune(line)
		for i := 0; i+1 < len(runes); i++ {
			if runes[i] == '.' && unicode.IsSpace(runes[i+1]) {
				parts = append(parts, string(runes[start:i+2]))
				start = i + 2
			}
		}
		parts = append(parts, string(runes[start:]))
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return nonEmpty
}

func renderStep(v any) (Step, bool) {
	switch item := v.(type) {
	case nil:
		return Step{}, false
	case string:
		if item == "" {
			return Step{}, false
		}
		return Step{Text: item, JSON: ""}, true
	case bool:
		if !item {
			return Step{}, false
		}
		return Step{Text: "true", JSON: ""}, true
	case map[string]any:
		if text := renderObjectStep(item); text != "" {
			return Step{Text: text, JSON: ""}, true
		}
		indented, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return Step{Text: fmt.Sprint(item), JSON: ""}, true
		}
		return Step{Text: "", JSON: string(indented)}, true
	default:
		return Step{Text: stringify(item), JSON: ""}, true
	}
}

// renderObjectStep formats structured steps such as {"type":"series","reps":6,"distance_km":0.4,"pace_min_km":"4:30"}.
// It returns an empty string when the object has no recognised shape.
func renderObjectStep(item map[string]any) string {
	for _, key := range []string{"text", "step"} {
		if truthy(item[key]) {
			return stringify(item[key])
		}
	}

	if truthy(item["type"]) {
		parts := []string{stringify(item["type"])}
		if truthy(item["reps"]) {
			parts = append(parts, stringify(item["reps"])+"x")
		}
		if distance, ok := item["distance_km"].(json.Number); ok {
			parts = append(parts, distance.String()+" km")
		}
		if truthy(item["time_min"]) {
			parts = append(parts, stringify(item["time_min"])+" min")
		}
		if truthy(item["pace_min_km"]) {
			parts = append(parts, "@ "+stringify(item["pace_min_km"]))
		}
		if truthy(item["note"]) {
			parts = append(parts, "- "+stringify(item["note"]))
		}
		return strings.Join(parts, " ")
	}

	if truthy(item["time_min_fast"]) || truthy(item["time_min_easy"]) {
		var parts []string
		if truthy(item["reps"]) {
			parts = append(parts, stringify(item["reps"])+"x")
		}
		if truthy(item["time_min_fast"]) {
			parts = append(parts, stringify(item["time_min_fast"])+"min fast")
		}
		if truthy(item["time_min_easy"]) {
			parts = append(parts, stringify(item["time_min_easy"])+"min easy")
		}
		if truthy(item["pace_min_km_fast"]) {
			parts = append(parts, "@ "+stringify(item["pace_min_km_fast"]))
		}
		return strings.Join(parts, " ")
	}

	return ""
}

func toSegment(obj map[string]any, fromSegment bool) Segment {
	segment := Segment{Type: "-", Reps: "-", Amount: "-", Pace: "-"}
	switch {
	case truthy(obj["type"]):
		segment.Type = stringify(obj["type"])
	case fromSegment:
		segment.Type = "segment"
	}
	if v, ok := obj["reps"]; ok && v != nil {
		segment.Reps = stringify(v)
	}
	if distance, ok := obj["distance_km"].(json.Number); ok {
		segment.Amount = distance.String() + " km"
	} else if truthy(obj["time_min_fast"]) {
		easy := "-"
		if v, okEasy := obj["time_min_easy"]; okEasy && v != nil {
			easy = stringify(v)
		}
		segment.Amount = fmt.Sprintf("%s / %s min", stringify(obj["time_min_fast"]), easy)
	} else if truthy(obj["time_min"]) {
		segment.Amount = stringify(obj["time_min"]) + " min"
	}
	for _, key := range []string{"pace_min_km", "pace_min_km_fast", "pace"} {
		if truthy(obj[key]) {
			segment.Pace = stringify(obj[key])
			break
		}
	}
	return segment
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode description: %w", err)
	}
	return nil
}

// truthy follows JSON-ish truthiness: empty strings, zero, false and null are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
