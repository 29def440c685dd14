package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a response body is neither a workout list nor a known wrapper object.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// listWrapperKeys are checked in order when a workout list arrives wrapped in an object.
//
//nolint:gochecknoglobals // constant lookup table.
var listWrapperKeys = []string{"workouts", "data", "plan"}

// DecodeWorkouts decodes a workout list that is either a JSON array or an object wrapping the array under one of
// the keys workouts, data or plan. Wrappers may nest, e.g. {"success":true,"data":{"workouts":[...]}}.
//
// Array elements that are not JSON objects are skipped.
func DecodeWorkouts(body []byte) ([]Workout, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	switch body[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(body, &elements); err != nil {
			return nil, fmt.Errorf("unmarshal workout list: %w", err)
		}
		workouts := make([]Workout, 0, len(elements))
		for _, element := range elements {
			element = bytes.TrimSpace(element)
			if len(element) == 0 || element[0] != '{' {
				continue
			}
			var w Workout
			if err := json.Unmarshal(element, &w); err != nil {
				continue
			}
			workouts = append(workouts, w)
		}
		return workouts, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal workout list wrapper: %w", err)
		}
		for _, key := range listWrapperKeys {
			if inner, ok := fields[key]; ok {
				return DecodeWorkouts(inner)
			}
		}
	}
	return nil, fmt.Errorf("%w: %.40s", ErrUnexpectedShape, body)
}

// DecodeWorkout decodes a single workout that may be sent bare, wrapped as {"workout": ...} or {"data": ...}, or as
// an array whose first element is used. The boolean is false when the body holds no workout.
func DecodeWorkout(body []byte) (Workout, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return Workout{}, false, nil
	}
	switch body[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(body, &elements); err != nil {
			return Workout{}, false, fmt.Errorf("unmarshal workout array: %w", err)
		}
		if len(elements) == 0 {
			return Workout{}, false, nil
		}
		return DecodeWorkout(elements[0])
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return Workout{}, false, fmt.Errorf("unmarshal workout wrapper: %w", err)
		}
		for _, key := range []string{"workout", "data"} {
			if inner, ok := fields[key]; ok {
				return DecodeWorkout(inner)
			}
		}
		var w Workout
		if err := json.Unmarshal(body, &w); err != nil {
			return Workout{}, false, fmt.Errorf("unmarshal workout: %w", err)
		}
		return w, true, nil
	}
	return Workout{}, false, fmt.Errorf("%w: %.40s", ErrUnexpectedShape, body)
}
