package orrery

import "errors"

var (
	// ErrStepNotComputed is returned when a step beyond the last computed one is requested.
	ErrStepNotComputed = errors.New("step not yet computed")
	// ErrUnknownBody is returned for a body identifier which is not in the catalog.
	ErrUnknownBody = errors.New("unknown body")
	// ErrInvalidCatalog is returned when a catalog entry violates a physical constraint.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrNoBudget is returned when a propagation is requested without any bound.
	ErrNoBudget = errors.New("propagation budget has no bound")
	// ErrNoTransferSolution is returned when the boundary value problem has no solution.
	ErrNoTransferSolution = errors.New("no transfer solution")
	// ErrInvalidTransfer is returned when the arrival step is not after the departure step.
	ErrInvalidTransfer = errors.New("arrival must be after departure")
	// ErrSingularOrientation is returned when no hyperbola orientation matches the asymptote.
	ErrSingularOrientation = errors.New("singular hyperbola orientation")
	// ErrKeplerNoConvergence is returned when Kepler's equation did not converge within the iteration limit.
	ErrKeplerNoConvergence = errors.New("kepler equation did not converge")
	// ErrInvalidEccentricity is returned when Kepler's equation is solved for a non elliptical orbit.
	ErrInvalidEccentricity = errors.New("eccentricity must be in [0, 1)")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)
