// Package pipeline sequences the release stages for every discovered build
// unit and drives the post-build fan-out. Each unit moves through an explicit
// state machine; stage outcomes go to a run-scoped append-only log. A unit
// failing a fatal stage stops that unit, never the run (unless fail-fast is
// configured); a test failure is recorded but deliberately does not block
// packing or publishing of the same unit, so artifacts stay available for
// inspection.
package pipeline

import (
	"fmt"
	"time"
)

// Stage names one step of the per-unit sequence.
type Stage string

const (
	StageRestore Stage = "restore"
	StageClean   Stage = "clean"
	StageBuild   Stage = "build"
	StageTest    Stage = "test"
	StagePack    Stage = "pack"
	StagePublish Stage = "publish"
	StageDocs    Stage = "docs"

	// StageDiscover reports per-unit classification failures (toolchain
	// unresolvable) in the outcome log; it is not part of the executed
	// stage sequence.
	StageDiscover Stage = "discover"
)

// State is a unit's position in its lifecycle.
type State string

const (
	Discovered     State = "discovered"
	Restoring      State = "restoring"
	Cleaning       State = "cleaning"
	RestoringAgain State = "restoring_again"
	Building       State = "building"
	Testing        State = "testing"
	Packing        State = "packing"
	Publishing     State = "publishing"
	DocsGenerating State = "docs_generating"
	Done           State = "done"
	Failed         State = "failed"
)

// stateRank orders the sequential states. Transitions may only move forward
// (skipped stages jump over their state) or to Failed.
var stateRank = map[State]int{
	Discovered:     0,
	Restoring:      1,
	Cleaning:       2,
	RestoringAgain: 3,
	Building:       4,
	Testing:        5,
	Packing:        6,
	Publishing:     7,
	DocsGenerating: 8,
	Done:           9,
}

// Terminal reports whether a state is terminal.
func (s State) Terminal() bool { return s == Done || s == Failed }

// Transition validates a state change. Any state may fail; otherwise the unit
// only moves strictly forward through the sequence.
func Transition(from, to State) error {
	if from.Terminal() {
		return fmt.Errorf("invalid transition: %s is terminal", from)
	}
	if to == Failed {
		return nil
	}
	fromRank, ok := stateRank[from]
	if !ok {
		return fmt.Errorf("invalid transition: unknown state %s", from)
	}
	toRank, ok := stateRank[to]
	if !ok {
		return fmt.Errorf("invalid transition: unknown state %s", to)
	}
	if toRank <= fromRank {
		return fmt.Errorf("invalid transition: %s -> %s moves backward", from, to)
	}
	return nil
}

// StageOutcome is one stage execution's result. Appended to the run log,
// never mutated.
type StageOutcome struct {
	Unit      string
	Solution  string
	Stage     Stage
	Succeeded bool
	ExitCode  int
	Message   string
	Duration  time.Duration
}
