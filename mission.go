package orrery

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/ChristopherRabotin/ode"
	"github.com/dgravesa/go-parallel/parallel"
	kitlog "github.com/go-kit/kit/log"
)

const (
	// StepSize is the default step size of propagation.
	StepSize = 100 * time.Second
)

/* Handles the N-body propagation. */

// Budget bounds a single call to Propagator.Continue. At least one bound must be set;
// the propagation stops as soon as any of them is reached.
type Budget struct {
	MaxSteps  int       // Maximum number of steps to append in this call
	UntilStep int       // Stop once this step index is published
	Deadline  time.Time // Wall clock deadline
}

func (b Budget) isEmpty() bool {
	return b.MaxSteps <= 0 && b.UntilStep <= 0 && b.Deadline.IsZero()
}

// Propagator advances all the bodies of a catalog with a fixed step RK4.
type Propagator struct {
	catalog *Catalog
	perts   Perturbations
	step    time.Duration
	workers int
	logger  kitlog.Logger
}

// NewPropagator returns a new propagator. If workers is not positive, the number of CPUs is used.
func NewPropagator(c *Catalog, step time.Duration, perts Perturbations, workers int, logger kitlog.Logger) *Propagator {
	if step <= 0 {
		step = StepSize
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Propagator{catalog: c, perts: perts, step: step, workers: workers, logger: kitlog.With(logger, "subsys", "prop")}
}

// StepSize returns the integration step of this propagator.
func (p *Propagator) StepSize() time.Duration {
	return p.step
}

// Step returns the snapshot one step after the provided one. The input is not modified.
func (p *Propagator) Step(s Snapshot) Snapshot {
	var out Snapshot
	in := &integration{prop: p, state: s.flatten(), remaining: 1, publish: func(f []float64) {
		out = snapshotFrom(f)
	}}
	ode.NewRK4(0, p.step.Seconds(), in).Solve() // Blocking.
	return out
}

// Continue propagates from the last computed step of the archive until the budget is exhausted.
// Each step is published to the archive as soon as it is computed. It returns the number of steps appended.
// Concurrent calls on the same archive run one after the other.
func (p *Propagator) Continue(a *Archive, b Budget) (int, error) {
	if b.isEmpty() {
		return 0, ErrNoBudget
	}
	if a.Bodies() != p.catalog.Len() {
		return 0, fmt.Errorf("%w: archive has %d bodies, catalog has %d", ErrInvalidCatalog, a.Bodies(), p.catalog.Len())
	}
	if a.Step() != p.step {
		return 0, fmt.Errorf("%w: archive step is %s, propagator step is %s", ErrInvalidConfig, a.Step(), p.step)
	}
	a.wmu.Lock()
	defer a.wmu.Unlock()
	last, lastStep := a.last()
	remaining := math.MaxInt32
	if b.MaxSteps > 0 {
		remaining = b.MaxSteps
	}
	if b.UntilStep > 0 {
		if until := b.UntilStep - lastStep; until < remaining {
			remaining = until
		}
	}
	if remaining <= 0 || (!b.Deadline.IsZero() && !time.Now().Before(b.Deadline)) {
		return 0, nil
	}
	start := time.Now()
	appended := 0
	in := &integration{prop: p, state: append([]float64(nil), last...), remaining: remaining, deadline: b.Deadline, publish: func(f []float64) {
		a.appendFlat(f)
		appended++
	}}
	ode.NewRK4(0, p.step.Seconds(), in).Solve() // Blocking.
	p.logger.Log("level", "notice", "status", "finished", "steps", appended, "last", a.LastComputed(), "duration", time.Since(start))
	return appended, nil
}

// integration implements the ode integrable interface over the flattened snapshot of all bodies.
type integration struct {
	prop      *Propagator
	state     []float64
	remaining int
	deadline  time.Time
	publish   func([]float64)
	stepStart time.Time
	nanWarned bool
}

// Stop implements the stop call of the integrator.
func (in *integration) Stop(t float64) bool {
	if in.remaining <= 0 {
		return true
	}
	if !in.deadline.IsZero() && !time.Now().Before(in.deadline) {
		return true
	}
	in.stepStart = time.Now()
	return false
}

// GetState returns the state for the integrator.
func (in *integration) GetState() []float64 {
	return in.state
}

// SetState sets the updated state.
func (in *integration) SetState(t float64, s []float64) {
	in.state = append([]float64(nil), s...)
	in.remaining--
	in.publish(in.state)
	propagatedSteps.Inc()
	if !in.stepStart.IsZero() {
		propagationStepSeconds.Observe(time.Since(in.stepStart).Seconds())
	}
}

// Func returns the time derivative of the flattened state: the velocity and acceleration of each body.
// The bodies are evaluated concurrently; each only writes its own six components.
func (in *integration) Func(t float64, f []float64) []float64 {
	c := in.prop.catalog
	fDot := make([]float64, len(f))
	n := c.Len()
	parallel.WithNumGoroutines(in.prop.workers).For(n, func(i, _ int) {
		acc := in.prop.perts.acceleration(c, i, f)
		copy(fDot[6*i:6*i+3], f[6*i+3:6*i+6])
		copy(fDot[6*i+3:6*i+6], acc[:])
	})
	if !in.nanWarned {
		for i, v := range fDot {
			if math.IsNaN(v) {
				in.nanWarned = true
				in.prop.logger.Log("level", "warning", "body", c.entries[i/6].Name, "component", i%6, "message", "derivative is NaN")
				break
			}
		}
	}
	return fDot
}
