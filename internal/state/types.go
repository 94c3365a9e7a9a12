// Package state owns the interactive progress of a speed-launch guide: view
// mode, challenge step, checklist boxes, accordion sections and the transient
// copy/celebration feedback.
package state

import (
	"errors"
	"fmt"
)

// Mode selects the top-level view.
type Mode string

const (
	ModeChallenge Mode = "challenge"
	ModeReference Mode = "reference"
)

// ParseMode returns the Mode for s, or ErrInvalidMode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeChallenge || m == ModeReference
}

// Workflow names a Reference-mode content track.
type Workflow string

const (
	WorkflowTrend     Workflow = "trend"
	WorkflowGlowUp    Workflow = "glow-up"
	WorkflowNichePack Workflow = "niche-pack"
)

// Workflows lists every workflow in display order.
var Workflows = []Workflow{WorkflowGlowUp, WorkflowTrend, WorkflowNichePack}

// ParseWorkflow returns the Workflow for s, or ErrInvalidWorkflow.
func ParseWorkflow(s string) (Workflow, error) {
	w := Workflow(s)
	if !w.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidWorkflow, s)
	}
	return w, nil
}

// Valid reports whether w is a known workflow.
func (w Workflow) Valid() bool {
	switch w {
	case WorkflowTrend, WorkflowGlowUp, WorkflowNichePack:
		return true
	}
	return false
}

// Challenge steps run from FirstStep to LastStep.
const (
	FirstStep = 1
	LastStep  = 3
)

// ValidStep reports whether n is a challenge step.
func ValidStep(n int) bool {
	return n >= FirstStep && n <= LastStep
}

// Contract violations returned by Store operations. State is never modified
// when one of these is returned.
var (
	ErrInvalidMode     = errors.New("invalid mode")
	ErrInvalidWorkflow = errors.New("invalid workflow")
	ErrInvalidStep     = errors.New("invalid step")
	ErrStepLocked      = errors.New("step not reachable yet")
	ErrEmptyID         = errors.New("empty id")
)

// Snapshot is an immutable copy of the Store's state handed to renderers.
type Snapshot struct {
	Mode               Mode            `json:"mode"`
	ChallengeStep      int             `json:"challengeStep"`
	CompletedSteps     map[int]bool    `json:"completedSteps"`
	CheckboxStates     map[string]bool `json:"checkboxStates"`
	SelectedWorkflow   Workflow        `json:"selectedWorkflow"`
	ExpandedSections   map[string]bool `json:"expandedSections"`
	CopiedPromptID     string          `json:"copiedPromptId,omitempty"`
	CelebrationVisible bool            `json:"celebrationVisible"`
}

// Checked reports whether checkbox id is ticked. Absent ids are unchecked.
func (s Snapshot) Checked(id string) bool {
	return s.CheckboxStates[id]
}

// Expanded reports whether section id is open. Absent ids resolve to defaultOpen.
func (s Snapshot) Expanded(id string, defaultOpen bool) bool {
	if open, ok := s.ExpandedSections[id]; ok {
		return open
	}
	return defaultOpen
}

// StepCompleted reports whether step n has been marked done.
func (s Snapshot) StepCompleted(n int) bool {
	return s.CompletedSteps[n]
}

// CanNavigate reports whether SetChallengeStep(n) would be accepted.
func (s Snapshot) CanNavigate(n int) bool {
	return canNavigate(n, s.ChallengeStep, s.CompletedSteps)
}

// canNavigate allows revisiting any step up to the current one, and moving
// forward only past completed steps.
func canNavigate(target, current int, completed map[int]bool) bool {
	if !ValidStep(target) {
		return false
	}
	return target == FirstStep || target <= current || completed[target-1]
}
