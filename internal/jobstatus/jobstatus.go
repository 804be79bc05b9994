package jobstatus

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid job status transition")

// Status is a job's position in the processing pipeline.
type Status string

const (
	Queued     Status = "queued"
	Analyzing  Status = "analyzing"
	Hooking    Status = "hooking"
	Cutting    Status = "cutting"
	Pacing     Status = "pacing"
	Captioning Status = "captioning"
	Audio      Status = "audio"
	Rendering  Status = "rendering"
	Uploading  Status = "uploading"
	Completed  Status = "completed"
	Failed     Status = "failed"
)

// flow is the forward order every job moves through.
var flow = []Status{Queued, Analyzing, Hooking, Cutting, Pacing, Captioning, Audio, Rendering, Uploading, Completed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if s == Failed {
		return true
	}
	for _, f := range flow {
		if f == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further forward progress is possible.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// ExpectsAnalysis reports whether the retention engine should be running
// for a job in this status.
func (s Status) ExpectsAnalysis() bool {
	switch s {
	case Analyzing, Hooking, Cutting, Pacing:
		return true
	}
	return false
}

// Parse validates a status name.
func Parse(name string) (Status, error) {
	s := Status(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown job status %q", name)
	}
	return s, nil
}

// Machine enforces the transition graph. A non-strict machine accepts any
// change between known statuses.
type Machine struct {
	strict bool
	edges  map[Status]map[Status]bool
}

// NewMachine builds the transition graph: each status may advance to the
// next one, any non-terminal status may fail, and any status other than
// queued may be requeued.
func NewMachine(strict bool) *Machine {
	edges := make(map[Status]map[Status]bool)
	add := func(from, to Status) {
		if edges[from] == nil {
			edges[from] = make(map[Status]bool)
		}
		edges[from][to] = true
	}

	for i := 0; i+1 < len(flow); i++ {
		add(flow[i], flow[i+1])
	}
	for _, s := range flow {
		if !s.Terminal() {
			add(s, Failed)
		}
		if s != Queued {
			add(s, Queued)
		}
	}
	add(Failed, Queued)

	return &Machine{strict: strict, edges: edges}
}

// CanTransition reports whether from -> to is allowed.
func (m *Machine) CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if !m.strict {
		return true
	}
	return m.edges[from][to]
}

// Transition returns to if the change is allowed.
func (m *Machine) Transition(from, to Status) (Status, error) {
	if !m.CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Next returns the status that follows s in the forward flow.
func Next(s Status) (Status, bool) {
	for i := 0; i+1 < len(flow); i++ {
		if flow[i] == s {
			return flow[i+1], true
		}
	}
	return "", false
}
