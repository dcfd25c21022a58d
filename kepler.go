package orrery

import (
	"fmt"
	"math"
)

const (
	// KeplerTolerance is the default residual tolerance of the Kepler equation solver.
	KeplerTolerance = 1e-12
	// KeplerMaxIterations is the default maximum number of Newton iterations of the Kepler equation solver.
	KeplerMaxIterations = 50
)

// KeplerSolver solves Kepler's equation M = E - e sin E for elliptical orbits with Newton-Raphson.
type KeplerSolver struct {
	Tolerance     float64
	MaxIterations int
}

// NewKeplerSolver returns a solver with the default tolerance and iterations.
func NewKeplerSolver() KeplerSolver {
	return KeplerSolver{Tolerance: KeplerTolerance, MaxIterations: KeplerMaxIterations}
}

// MeanAnomalyResidual returns |E - e sin E - M|.
func MeanAnomalyResidual(e, E, M float64) float64 {
	return math.Abs(E - e*math.Sin(E) - M)
}

// EccentricAnomaly returns the eccentric anomaly for the provided mean anomaly, both in radians.
func (k KeplerSolver) EccentricAnomaly(e, M float64) (float64, error) {
	if e < 0 || e >= 1 || math.IsNaN(e) {
		return math.NaN(), fmt.Errorf("%w: e=%f", ErrInvalidEccentricity, e)
	}
	M = wrap2π(M)
	if e == 0 {
		return M, nil
	}
	// Initial guess from Vallado, page 65.
	E := M - e
	if M > 0 && M < math.Pi {
		E = M + e
	}
	for iter := 0; iter < k.MaxIterations; iter++ {
		sE, cE := math.Sincos(E)
		E -= (E - e*sE - M) / (1 - e*cE)
		if MeanAnomalyResidual(e, E, M) <= k.Tolerance {
			return E, nil
		}
	}
	return E, fmt.Errorf("%w: e=%f M=%f after %d iterations (residual %e)", ErrKeplerNoConvergence, e, M, k.MaxIterations, MeanAnomalyResidual(e, E, M))
}

// TrueAnomaly returns the true anomaly in [0, 2π) for the provided mean anomaly.
func (k KeplerSolver) TrueAnomaly(e, M float64) (float64, error) {
	E, err := k.EccentricAnomaly(e, M)
	if err != nil {
		return math.NaN(), err
	}
	if e == 0 {
		return E, nil
	}
	sE2, cE2 := math.Sincos(E / 2)
	return wrap2π(2 * math.Atan2(math.Sqrt(1+e)*sE2, math.Sqrt(1-e)*cE2)), nil
}

// TrueAnomalyFromMeanAnomaly solves Kepler's equation with the default solver.
func TrueAnomalyFromMeanAnomaly(e, M float64) (float64, error) {
	return NewKeplerSolver().TrueAnomaly(e, M)
}
