package orrery

import (
	"fmt"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// LambertSolver solves the two-body boundary value problem between r1 and r2 in `tof` seconds.
type LambertSolver interface {
	Solve(r1, r2 []float64, tof, μ float64, short bool, tol float64, maxIter int) (v1, v2 []float64, err error)
}

// TransferRequest defines an interplanetary transfer between two archived steps.
type TransferRequest struct {
	Central, Departure, Arrival BodyID
	DepartureStep, ArrivalStep  int
	Short                       bool // Short way or long way Lambert solution
}

// TransferSolution is a designed transfer: the heliocentric leg and both planetary hyperbolas.
type TransferSolution struct {
	TransferRequest
	Transfer           OE // Transfer leg, relative to the central body
	DepartureHyperbola OE // Relative to the departure body
	ArrivalHyperbola   OE // Relative to the arrival body
	VInfDeparture      []float64
	VInfArrival        []float64
	DepartureΔv        float64
	ArrivalΔv          float64
	TimeOfFlight       time.Duration
}

// TotalΔv returns the sum of the departure and arrival impulses.
func (t TransferSolution) TotalΔv() float64 {
	return t.DepartureΔv + t.ArrivalΔv
}

// String implements the Stringer interface.
func (t TransferSolution) String() string {
	way := "long"
	if t.Short {
		way = "short"
	}
	return fmt.Sprintf("%d->%d (%s way) steps %d->%d Δv=%.3f+%.3f=%.3f m/s", t.Departure, t.Arrival, way, t.DepartureStep, t.ArrivalStep, t.DepartureΔv, t.ArrivalΔv, t.TotalΔv())
}

// Designer designs transfers between bodies of a catalog using the propagated states of an archive.
type Designer struct {
	catalog *Catalog
	archive *Archive
	conf    Config
	solver  LambertSolver
	logger  kitlog.Logger
}

// NewDesigner returns a new transfer designer.
func NewDesigner(c *Catalog, a *Archive, conf Config, solver LambertSolver, logger kitlog.Logger) *Designer {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Designer{catalog: c, archive: a, conf: conf, solver: solver, logger: logger}
}

// relativeState returns the state of `id` with respect to `central` at the given step.
func (d *Designer) relativeState(id, central BodyID, step int) (BodyState, error) {
	s, err := d.archive.State(step, id)
	if err != nil {
		return BodyState{}, err
	}
	c, err := d.archive.State(step, central)
	if err != nil {
		return BodyState{}, err
	}
	return s.RelativeTo(c), nil
}

// Design computes the Lambert leg between the departure body at the departure step and the arrival body at
// the arrival step, and the departure and arrival hyperbolas matching the excess velocities at both ends.
func (d *Designer) Design(req TransferRequest) (TransferSolution, error) {
	start := time.Now()
	defer func() { transferDesignSeconds.Observe(time.Since(start).Seconds()) }()
	for _, id := range []BodyID{req.Central, req.Departure, req.Arrival} {
		if !d.catalog.Has(id) {
			return TransferSolution{}, fmt.Errorf("%w: %d", ErrUnknownBody, id)
		}
	}
	if req.ArrivalStep <= req.DepartureStep {
		return TransferSolution{}, fmt.Errorf("%w: %d <= %d", ErrInvalidTransfer, req.ArrivalStep, req.DepartureStep)
	}
	dep, err := d.relativeState(req.Departure, req.Central, req.DepartureStep)
	if err != nil {
		return TransferSolution{}, err
	}
	arr, err := d.relativeState(req.Arrival, req.Central, req.ArrivalStep)
	if err != nil {
		return TransferSolution{}, err
	}
	central := d.catalog.entry(req.Central)
	tof := time.Duration(req.ArrivalStep-req.DepartureStep) * d.archive.Step()
	v1, v2, err := d.solver.Solve(dep.R, arr.R, tof.Seconds(), central.GM, req.Short, d.conf.LambertTolerance, d.conf.LambertMaxIterations)
	if err != nil {
		return TransferSolution{}, fmt.Errorf("%w: %w", ErrNoTransferSolution, err)
	}

	sol := TransferSolution{TransferRequest: req, TimeOfFlight: tof}
	sol.Transfer = RVToOE(central.GM, dep.R, v1)
	sol.VInfDeparture = sub(v1, dep.V)
	sol.VInfArrival = sub(v2, arr.V)

	depHyp, depOE, err := d.hyperbola(req.Departure, dep, sol.VInfDeparture, true)
	if err != nil {
		return TransferSolution{}, err
	}
	arrHyp, arrOE, err := d.hyperbola(req.Arrival, arr, sol.VInfArrival, false)
	if err != nil {
		return TransferSolution{}, err
	}
	sol.DepartureHyperbola = depOE
	sol.ArrivalHyperbola = arrOE
	sol.DepartureΔv = depHyp.Δv()
	sol.ArrivalΔv = arrHyp.Δv()
	return sol, nil
}

// hyperbola builds and orients the hyperbola of a body for the provided excess velocity.
func (d *Designer) hyperbola(id BodyID, st BodyState, vInf []float64, departure bool) (Hyperbola, OE, error) {
	body := d.catalog.entry(id)
	h := NewHyperbola(vInf, body.GM, body.Radius+d.conf.ParkingAltitude)
	var (
		o   Orientation
		err error
	)
	switch d.conf.Orientation {
	case InclinationSearch:
		o, err = h.OrientSearch(departure, d.conf.TargetInclination)
	default:
		o, err = h.OrientClosedForm(departure, cross(st.R, st.V), body.Pole)
	}
	if err != nil {
		d.logger.Log("level", "warning", "subsys", "transfer", "body", body.Name, "departure", departure, "err", err)
		return Hyperbola{}, OE{}, err
	}
	return h, h.OE(o), nil
}
