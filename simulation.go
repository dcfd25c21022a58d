package orrery

import (
	"context"
	"fmt"
	"sync"

	kitlog "github.com/go-kit/kit/log"

	"github.com/orrery/orrery/lambert"
)

// Simulation owns everything a host needs to propagate bodies and query their orbits:
// the catalog, the archive, the propagator, the transfer designer, and a display cursor.
type Simulation struct {
	Catalog    *Catalog
	Archive    *Archive
	Propagator *Propagator
	Designer   *Designer
	conf       Config
	logger     kitlog.Logger

	mu       sync.Mutex
	cursor   int
	playing  bool
	transfer *TransferSolution
	porkchop *PorkchopGrid
}

// NewSimulation returns a simulation starting at the provided epoch snapshot of the catalog, at Epoch.
func NewSimulation(c *Catalog, epoch Snapshot, conf Config, logger kitlog.Logger) (*Simulation, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if len(epoch) != c.Len() {
		return nil, fmt.Errorf("%w: epoch has %d bodies, catalog has %d", ErrInvalidCatalog, len(epoch), c.Len())
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	a := NewArchive(epoch, conf.Step, Epoch)
	return &Simulation{
		Catalog:    c,
		Archive:    a,
		Propagator: NewPropagator(c, conf.Step, Perturbations{J2: conf.J2}, conf.Workers, logger),
		Designer:   NewDesigner(c, a, conf, lambert.Solver{}, logger),
		conf:       conf,
		logger:     logger,
	}, nil
}

// Config returns the configuration of this simulation.
func (s *Simulation) Config() Config {
	return s.conf
}

// Continue propagates from the last computed step within the provided budget.
func (s *Simulation) Continue(b Budget) (int, error) {
	return s.Propagator.Continue(s.Archive, b)
}

// State returns the state of a body at a computed step.
func (s *Simulation) State(id BodyID, step int) (BodyState, error) {
	return s.Archive.State(step, id)
}

// Elements returns the orbital elements of `id` relative to `parent` at a computed step.
func (s *Simulation) Elements(id, parent BodyID, step int) (OE, error) {
	p, err := s.Catalog.Entry(parent)
	if err != nil {
		return OE{}, err
	}
	if id == parent {
		return OE{}, fmt.Errorf("%w: %d cannot orbit itself", ErrUnknownBody, id)
	}
	st, err := s.Archive.State(step, id)
	if err != nil {
		return OE{}, err
	}
	ps, err := s.Archive.State(step, parent)
	if err != nil {
		return OE{}, err
	}
	rel := st.RelativeTo(ps)
	return RVToOE(p.GM, rel.R, rel.V), nil
}

// Orbit returns the sampled orbit curve of a body around its Kepler parent at a computed step,
// relative to that parent.
func (s *Simulation) Orbit(id BodyID, step int) ([][]float64, error) {
	e, err := s.Catalog.Entry(id)
	if err != nil {
		return nil, err
	}
	oe, err := s.Elements(id, e.KeplerParent, step)
	if err != nil {
		return nil, err
	}
	return SampleOrbit(oe), nil
}

// Recommend runs the window search and stores the porkchop grid and the best transfer.
func (s *Simulation) Recommend(ctx context.Context, w WindowSearch) (TransferSolution, error) {
	grid, err := s.Designer.Porkchop(ctx, w, s.conf.Workers)
	if err != nil {
		return TransferSolution{}, err
	}
	s.mu.Lock()
	s.porkchop = grid
	s.mu.Unlock()
	if !grid.Found {
		return TransferSolution{}, fmt.Errorf("%w: no cell of the window has a solution", ErrNoTransferSolution)
	}
	sol, err := s.Designer.Design(grid.Best.Request(w))
	if err != nil {
		return TransferSolution{}, err
	}
	s.mu.Lock()
	s.transfer = &sol
	s.mu.Unlock()
	return sol, nil
}

// Transfer returns the recommended transfer, if any.
func (s *Simulation) Transfer() (TransferSolution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transfer == nil {
		return TransferSolution{}, false
	}
	return *s.transfer, true
}

// Porkchop returns the last porkchop grid, if any.
func (s *Simulation) Porkchop() (*PorkchopGrid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.porkchop, s.porkchop != nil
}

// Cursor returns the step currently displayed.
func (s *Simulation) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Seek moves the cursor to the provided step, clamped to the computed steps, and returns it.
func (s *Simulation) Seek(step int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = s.clamp(step)
	return s.cursor
}

// Advance moves the cursor forward.
func (s *Simulation) Advance(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = s.clamp(s.cursor + n)
	return s.cursor
}

// Rewind moves the cursor backward.
func (s *Simulation) Rewind(n int) int {
	return s.Advance(-n)
}

// Play starts the automatic advance of the cursor on Tick.
func (s *Simulation) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
}

// Pause stops the automatic advance of the cursor.
func (s *Simulation) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Playing returns whether the cursor advances on Tick.
func (s *Simulation) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Tick advances the cursor by `speed` steps if playing, and returns the cursor.
func (s *Simulation) Tick(speed int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.cursor = s.clamp(s.cursor + speed)
	}
	return s.cursor
}

func (s *Simulation) clamp(step int) int {
	if step < 0 {
		return 0
	}
	if last := s.Archive.LastComputed(); step > last {
		return last
	}
	return step
}
