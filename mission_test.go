package orrery

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gonum/floats"
)

const earthμ = 3.986e14

// satelliteCatalog returns an Earth-like primary and a negligible-mass satellite.
func satelliteCatalog(t *testing.T) (*Catalog, Snapshot) {
	c, epoch, err := NewCatalog(
		Body{CatalogEntry{Name: "Earth", GM: earthμ, Radius: 6378.137e3, J2: 1082.63e-6, Affects: true},
			[]float64{0, 0, 0}, []float64{0, 0, 0}},
		Body{CatalogEntry{Name: "Satellite", GM: 1, Affected: true, KeplerParent: 0},
			[]float64{7000000, 0, 0}, []float64{0, 7546, 0}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return c, epoch
}

// periodStep returns the number of steps of about 10 seconds covering exactly one period of the satellite.
func periodStep(epoch Snapshot) (int, time.Duration) {
	oe := RVToOE(earthμ, epoch[1].R, epoch[1].V)
	T := oe.Period(earthμ).Seconds()
	n := math.Ceil(T / 10)
	return int(n), time.Duration(T / n * float64(time.Second))
}

func TestMissionReturn(t *testing.T) {
	c, epoch := satelliteCatalog(t)
	n, Δt := periodStep(epoch)
	a := NewArchive(epoch, Δt, Epoch)
	p := NewPropagator(c, Δt, Perturbations{}, 2, nil)
	appended, err := p.Continue(a, Budget{MaxSteps: n})
	if err != nil {
		t.Fatal(err)
	}
	if appended != n || a.LastComputed() != n {
		t.Fatalf("appended %d steps (last %d), expected %d", appended, a.LastComputed(), n)
	}
	final, _ := a.State(n, 1)
	if d := norm(sub(final.R, epoch[1].R)); d > 1e3 {
		t.Fatalf("satellite is %f m away from its initial position after one period", d)
	}
	// The primary is not affected by anything.
	if primary, _ := a.State(n, 0); !vectorsEqual(primary.R, []float64{0, 0, 0}) {
		t.Fatalf("primary moved to %+v", primary.R)
	}
}

func TestMissionConservation(t *testing.T) {
	c, epoch := satelliteCatalog(t)
	n, Δt := periodStep(epoch)
	a := NewArchive(epoch, Δt, Epoch)
	p := NewPropagator(c, Δt, Perturbations{}, 1, nil)
	if _, err := p.Continue(a, Budget{UntilStep: n}); err != nil {
		t.Fatal(err)
	}
	oe0 := RVToOE(earthμ, epoch[1].R, epoch[1].V)
	h0 := norm(cross(epoch[1].R, epoch[1].V))
	for _, step := range []int{n / 4, n / 2, n} {
		s, _ := a.State(step, 1)
		oe := RVToOE(earthμ, s.R, s.V)
		if !floats.EqualWithinRel(oe.A, oe0.A, 1e-6) {
			t.Fatalf("step %d: a=%f expected %f", step, oe.A, oe0.A)
		}
		if h := norm(cross(s.R, s.V)); !floats.EqualWithinRel(h, h0, 1e-6) {
			t.Fatalf("step %d: |h|=%f expected %f", step, h, h0)
		}
	}
}

func TestMissionJ2(t *testing.T) {
	c, epoch := satelliteCatalog(t)
	// Inclined orbit so that the node regresses.
	epoch[1].V = []float64{0, 7546 * math.Cos(Deg2rad(45)), 7546 * math.Sin(Deg2rad(45))}
	n, Δt := periodStep(epoch)
	a := NewArchive(epoch, Δt, Epoch)
	if _, err := NewPropagator(c, Δt, Perturbations{J2: true}, 2, nil).Continue(a, Budget{MaxSteps: n}); err != nil {
		t.Fatal(err)
	}
	s0 := RVToOE(earthμ, epoch[1].R, epoch[1].V)
	s, _ := a.State(n, 1)
	s1 := RVToOE(earthμ, s.R, s.V)
	// Node regression of a prograde orbit is westward: dΩ/dt = -1.5 n J2 (R/p)^2 cos i
	ΔΩ := s1.Ω - s0.Ω
	if ΔΩ > math.Pi {
		ΔΩ -= 2 * math.Pi
	}
	mm := 2 * math.Pi / s0.Period(earthμ).Seconds()
	exp := -1.5 * mm * 1082.63e-6 * math.Pow(6378.137e3/s0.SemiParameter(), 2) * math.Cos(s0.I) * s0.Period(earthμ).Seconds()
	if ΔΩ >= 0 || math.Abs(ΔΩ-exp) > 0.2*math.Abs(exp) {
		t.Fatalf("ΔΩ=%e rad over one orbit, expected about %e", ΔΩ, exp)
	}
}

func TestMissionDeterminism(t *testing.T) {
	c, epoch := SolarSystem()
	a1 := NewArchive(epoch, StepSize, Epoch)
	a4 := NewArchive(epoch, StepSize, Epoch)
	if _, err := NewPropagator(c, StepSize, Perturbations{J2: true}, 1, nil).Continue(a1, Budget{MaxSteps: 50}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPropagator(c, StepSize, Perturbations{J2: true}, 4, nil).Continue(a4, Budget{MaxSteps: 50}); err != nil {
		t.Fatal(err)
	}
	for step := 0; step <= 50; step++ {
		s1, _ := a1.Snapshot(step)
		s4, _ := a4.Snapshot(step)
		for id := range s1 {
			for i := 0; i < 3; i++ {
				if s1[id].R[i] != s4[id].R[i] || s1[id].V[i] != s4[id].V[i] {
					t.Fatalf("step %d body %d differs between 1 and 4 workers", step, id)
				}
			}
		}
	}
	// Step computes the same snapshot as Continue.
	p := NewPropagator(c, StepSize, Perturbations{J2: true}, 3, nil)
	next := p.Step(epoch)
	s1, _ := a1.Snapshot(1)
	for id := range next {
		if !vectorsEqual(next[id].R, s1[id].R) || !vectorsEqual(next[id].V, s1[id].V) {
			t.Fatalf("Step and Continue differ for body %d", id)
		}
	}
	if epoch[Earth].R[0] != -1.464172364494842e11 {
		t.Fatal("Step modified its input")
	}
	// The Sun is not affected.
	if s, _ := a1.State(50, Sun); !vectorsEqual(s.R, []float64{0, 0, 0}) {
		t.Fatalf("the Sun moved to %+v", s.R)
	}
}

func TestMissionBudget(t *testing.T) {
	c, epoch := satelliteCatalog(t)
	a := NewArchive(epoch, 10*time.Second, Epoch)
	p := NewPropagator(c, 10*time.Second, Perturbations{}, 1, nil)
	if _, err := p.Continue(a, Budget{}); !errors.Is(err, ErrNoBudget) {
		t.Fatalf("expected ErrNoBudget, got %v", err)
	}
	if n, err := p.Continue(a, Budget{MaxSteps: 5}); err != nil || n != 5 {
		t.Fatalf("MaxSteps: appended %d, err %v", n, err)
	}
	if n, err := p.Continue(a, Budget{UntilStep: 8}); err != nil || n != 3 || a.LastComputed() != 8 {
		t.Fatalf("UntilStep: appended %d (last %d), err %v", n, a.LastComputed(), err)
	}
	if n, err := p.Continue(a, Budget{UntilStep: 8}); err != nil || n != 0 {
		t.Fatalf("UntilStep already reached: appended %d, err %v", n, err)
	}
	if n, err := p.Continue(a, Budget{MaxSteps: 10, UntilStep: 10}); err != nil || n != 2 {
		t.Fatalf("tightest bound: appended %d, err %v", n, err)
	}
	if n, err := p.Continue(a, Budget{Deadline: time.Now().Add(-time.Second)}); err != nil || n != 0 {
		t.Fatalf("past deadline: appended %d, err %v", n, err)
	}
	before := a.LastComputed()
	n, err := p.Continue(a, Budget{Deadline: time.Now().Add(20 * time.Millisecond)})
	if err != nil {
		t.Fatal(err)
	}
	if a.LastComputed() != before+n || n == 0 {
		t.Fatalf("deadline: appended %d from %d to %d", n, before, a.LastComputed())
	}
	// Resuming in several calls yields the same states as a single call.
	b := NewArchive(epoch, 10*time.Second, Epoch)
	if _, err := p.Continue(b, Budget{MaxSteps: 10}); err != nil {
		t.Fatal(err)
	}
	s1, _ := a.State(10, 1)
	s2, _ := b.State(10, 1)
	if !vectorsEqual(s1.R, s2.R) || !vectorsEqual(s1.V, s2.V) {
		t.Fatal("resumed propagation differs")
	}
	// The archive must match the catalog.
	other, _ := SolarSystem()
	if _, err := NewPropagator(other, StepSize, Perturbations{}, 1, nil).Continue(a, Budget{MaxSteps: 1}); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
	// And its step size.
	if _, err := NewPropagator(c, 100*time.Second, Perturbations{}, 1, nil).Continue(a, Budget{MaxSteps: 1}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestMissionConcurrentContinue(t *testing.T) {
	c, epoch := satelliteCatalog(t)
	a := NewArchive(epoch, 10*time.Second, Epoch)
	p := NewPropagator(c, 10*time.Second, Perturbations{}, 1, nil)
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Continue(a, Budget{MaxSteps: 2000}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if a.LastComputed() != 4000 {
		t.Fatalf("last=%d", a.LastComputed())
	}
	// Every step must be derived from the one before it.
	prev, _ := a.Snapshot(0)
	for step := 1; step <= a.LastComputed(); step++ {
		cur, _ := a.Snapshot(step)
		exp := p.Step(prev)
		if !vectorsEqual(exp[1].R, cur[1].R) || !vectorsEqual(exp[1].V, cur[1].V) {
			t.Fatalf("step %d is not the successor of step %d", step, step-1)
		}
		prev = cur
	}
}
