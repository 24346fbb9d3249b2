// Package status tracks the workflow's progress for presentation layers: the
// phases pass through here so the user interface can render them without
// coupling to the worker packages.
package status

import (
	"sync"
	"time"
)

// Phase is a named stage of the mounting workflow.
type Phase string

// Workflow phases, in order of appearance.
const (
	PhaseStarting     Phase = "starting"
	PhaseDependencies Phase = "dependencies"
	PhaseDiscovery    Phase = "discovery"
	PhaseEnumeration  Phase = "enumeration"
	PhaseMounting     Phase = "mounting"
	PhaseDone         Phase = "done"
	PhaseFailed       Phase = "failed"
)

// Progress is a point-in-time snapshot of the workflow state.
type Progress struct {
	Phase        Phase
	StartTime    time.Time
	Hosts        int
	Exports      int
	MountsOK     int
	MountsFailed int
}

// Processed returns the number of finished mount attempts.
func (p Progress) Processed() int {
	return p.MountsOK + p.MountsFailed
}

// Tracker is a concurrency-safe holder of the current [Progress].
type Tracker struct {
	sync.RWMutex
	progress Progress
}

// NewTracker returns a pointer to a new [Tracker] in the starting phase.
func NewTracker() *Tracker {
	return &Tracker{
		progress: Progress{
			Phase:     PhaseStarting,
			StartTime: time.Now(),
		},
	}
}

// SetPhase moves the workflow into the given phase.
func (t *Tracker) SetPhase(phase Phase) {
	t.Lock()
	defer t.Unlock()

	t.progress.Phase = phase
}

// SetHosts records the number of discovered hosts.
func (t *Tracker) SetHosts(n int) {
	t.Lock()
	defer t.Unlock()

	t.progress.Hosts = n
}

// AddExports records newly enumerated exports.
func (t *Tracker) AddExports(n int) {
	t.Lock()
	defer t.Unlock()

	t.progress.Exports += n
}

// RecordMount records the outcome of one finished mount attempt.
func (t *Tracker) RecordMount(succeeded bool) {
	t.Lock()
	defer t.Unlock()

	if succeeded {
		t.progress.MountsOK++
	} else {
		t.progress.MountsFailed++
	}
}

// Progress returns a snapshot of the current workflow state.
func (t *Tracker) Progress() Progress {
	t.RLock()
	defer t.RUnlock()

	return t.progress
}
