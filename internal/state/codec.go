package state

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Keys under which the persisted fields are stored. One key per field so a
// corrupt value only costs that field.
const (
	KeyMode           = "speedlaunch-mode"
	KeyChallengeStep  = "speedlaunch-step"
	KeyCompletedSteps = "speedlaunch-completed"
	KeyCheckboxStates = "speedlaunch-checkboxes"
)

// PersistedKeys lists every key written by the Store, in write order.
var PersistedKeys = []string{KeyMode, KeyChallengeStep, KeyCompletedSteps, KeyCheckboxStates}

func encodeMode(m Mode) string {
	return string(m)
}

func decodeMode(raw string) (Mode, error) {
	return ParseMode(raw)
}

func encodeStep(n int) string {
	return strconv.Itoa(n)
}

func decodeStep(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse step: %w", err)
	}
	if !ValidStep(n) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStep, n)
	}
	return n, nil
}

// encodeCompleted writes {"1":true,"2":true}.
func encodeCompleted(completed map[int]bool) (string, error) {
	out := make(map[string]bool, len(completed))
	for step, done := range completed {
		out[strconv.Itoa(step)] = done
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeCompleted rejects the whole value if any key is not a valid step.
func decodeCompleted(raw string) (map[int]bool, error) {
	var in map[string]bool
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("parse completed steps: %w", err)
	}
	if in == nil {
		return nil, fmt.Errorf("parse completed steps: null value")
	}

	out := make(map[int]bool, len(in))
	for key, done := range in {
		step, err := strconv.Atoi(key)
		if err != nil || !ValidStep(step) {
			return nil, fmt.Errorf("%w in completed steps: %q", ErrInvalidStep, key)
		}
		if done {
			out[step] = true
		}
	}
	return out, nil
}

func encodeCheckboxes(boxes map[string]bool) (string, error) {
	raw, err := json.Marshal(boxes)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeCheckboxes(raw string) (map[string]bool, error) {
	var out map[string]bool
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse checkbox states: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("parse checkbox states: null value")
	}
	return out, nil
}
