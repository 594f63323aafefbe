// Package job runs export jobs: render, compose, export.
package job

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcanaland/cardpress/internal/export"
	"github.com/arcanaland/cardpress/internal/paper"
)

// State is a job's position in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRendering State = "rendering"
	StateComposing State = "composing"
	StateExporting State = "exporting"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// next lists the states reachable from each state.
var next = map[State][]State{
	StateIdle:      {StateRendering, StateFailed},
	StateRendering: {StateComposing, StateFailed},
	StateComposing: {StateExporting, StateFailed},
	StateExporting: {StateSucceeded, StateFailed},
}

// TransitionError is returned for a move the lifecycle does not allow.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid job transition %s -> %s", e.From, e.To)
}

// Job is one export run. It is owned by the goroutine running it.
type Job struct {
	ID       string
	Profile  paper.Profile
	Format   export.Format
	Filename string
	Records  int

	State   State
	History []State
	Err     error
	Files   []string

	Created  time.Time
	Finished time.Time
}

func newJob(p paper.Profile, f export.Format, records int, now time.Time) *Job {
	return &Job{
		ID:      uuid.NewString(),
		Profile: p,
		Format:  f,
		Records: records,
		State:   StateIdle,
		History: []State{StateIdle},
		Created: now,
	}
}

// transition moves the job to s, refusing skips and moves out of a terminal
// state.
func (j *Job) transition(s State) error {
	for _, ok := range next[j.State] {
		if ok == s {
			j.State = s
			j.History = append(j.History, s)
			return nil
		}
	}
	return &TransitionError{From: j.State, To: s}
}

// fail records err and moves the job to Failed.
func (j *Job) fail(err error, now time.Time) error {
	j.Err = err
	j.Finished = now
	if terr := j.transition(StateFailed); terr != nil {
		return terr
	}
	return err
}
