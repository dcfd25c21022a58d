package orrery

import (
	"fmt"
	"sync"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Archive is the append-only store of the propagated snapshots. Step 0 is the epoch and
// the wall time of step n is n times the step size.
// It is safe for concurrent use: readers never observe a partially written step, and writers are
// serialized so that each step is derived from the one published before it.
type Archive struct {
	mu    sync.RWMutex
	wmu   sync.Mutex // held by the writer for the duration of Append or Propagator.Continue
	steps [][]float64 // flattened snapshots
	step  time.Duration
	start time.Time
}

// NewArchive returns an archive whose step 0 is the provided epoch snapshot.
func NewArchive(epoch Snapshot, step time.Duration, start time.Time) *Archive {
	if start.Location() != time.UTC {
		start = start.UTC()
	}
	return &Archive{steps: [][]float64{epoch.flatten()}, step: step, start: start}
}

// Append publishes the next snapshot and returns its step index.
func (a *Archive) Append(s Snapshot) int {
	a.wmu.Lock()
	defer a.wmu.Unlock()
	return a.appendFlat(s.flatten())
}

// appendFlat publishes a flattened snapshot which must not be modified afterwards.
// The caller must hold the writer lock.
func (a *Archive) appendFlat(f []float64) int {
	a.mu.Lock()
	a.steps = append(a.steps, f)
	n := len(a.steps) - 1
	a.mu.Unlock()
	archiveLastStep.Set(float64(n))
	return n
}

// LastComputed returns the index of the last published step.
func (a *Archive) LastComputed() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.steps) - 1
}

// Bodies returns the number of bodies in each snapshot.
func (a *Archive) Bodies() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.steps[0]) / 6
}

// Snapshot returns a copy of the snapshot at the given step.
func (a *Archive) Snapshot(step int) (Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if step < 0 || step >= len(a.steps) {
		return nil, fmt.Errorf("%w: step %d (last %d)", ErrStepNotComputed, step, len(a.steps)-1)
	}
	return snapshotFrom(a.steps[step]), nil
}

// State returns a copy of the state of a body at a given step.
func (a *Archive) State(step int, id BodyID) (BodyState, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if step < 0 || step >= len(a.steps) {
		return BodyState{}, fmt.Errorf("%w: step %d (last %d)", ErrStepNotComputed, step, len(a.steps)-1)
	}
	f := a.steps[step]
	if id < 0 || 6*int(id) >= len(f) {
		return BodyState{}, fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	i := 6 * int(id)
	return BodyState{R: []float64{f[i], f[i+1], f[i+2]}, V: []float64{f[i+3], f[i+4], f[i+5]}}, nil
}

// last returns the last flattened snapshot without copying it; callers must not modify it.
func (a *Archive) last() ([]float64, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := len(a.steps) - 1
	return a.steps[n], n
}

// Step returns the time step between two consecutive snapshots.
func (a *Archive) Step() time.Duration {
	return a.step
}

// Start returns the date of step 0.
func (a *Archive) Start() time.Time {
	return a.start
}

// StepTime returns the date of the given step.
func (a *Archive) StepTime(step int) time.Time {
	return a.start.Add(time.Duration(step) * a.step)
}

// StepJD returns the Julian date of the given step.
func (a *Archive) StepJD(step int) float64 {
	return julian.TimeToJD(a.StepTime(step))
}

// StepsFor returns the number of whole steps covering the provided duration.
func (a *Archive) StepsFor(d time.Duration) int {
	return int(d / a.step)
}
