// Package lambert solves the two-body boundary value problem: given two position vectors
// and a time of flight, it finds the velocities of the conic connecting them.
package lambert

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	ε          = 1e-6  // Threshold on ψ below which the Stumpff functions use their series value
	collinearε = 1e-10 // Threshold on the sine of the transfer angle
	ψStep      = 0.1   // Increment of ψ when y is negative
)

var (
	// ErrDegenerateGeometry is returned when both radii are collinear (including equal) or null.
	ErrDegenerateGeometry = errors.New("degenerate transfer geometry")
	// ErrInvalidTimeOfFlight is returned for a non positive time of flight.
	ErrInvalidTimeOfFlight = errors.New("time of flight must be positive")
	// ErrNoConvergence is returned when the iteration limit is reached or the solution is not finite.
	ErrNoConvergence = errors.New("lambert solver did not converge")
)

// Solver is the universal variable Lambert solver with bisection on ψ (Vallado, algorithm 58).
type Solver struct{}

// Solve implements the boundary value solver used by the transfer designer.
func (Solver) Solve(r1, r2 []float64, tof, μ float64, short bool, tol float64, maxIter int) ([]float64, []float64, error) {
	return Solve(r1, r2, tof, μ, short, tol, maxIter)
}

// Solve returns the initial and final velocities of the zero revolution transfer from r1 to r2
// in tof seconds around a body of gravitational parameter μ. The short way is used if `short`
// is set, the long way otherwise. The iterations stop when the time of flight is matched within
// the relative tolerance `tol`.
func Solve(r1, r2 []float64, tof, μ float64, short bool, tol float64, maxIter int) (v1, v2 []float64, err error) {
	if len(r1) != 3 || len(r2) != 3 {
		return nil, nil, fmt.Errorf("%w: initial and final radii must be 3x1 vectors", ErrDegenerateGeometry)
	}
	if tof <= 0 || math.IsNaN(tof) {
		return nil, nil, fmt.Errorf("%w: %f", ErrInvalidTimeOfFlight, tof)
	}
	if μ <= 0 {
		return nil, nil, fmt.Errorf("gravitational parameter must be positive, got %f", μ)
	}
	Ri := mat64.NewVector(3, r1)
	Rf := mat64.NewVector(3, r2)
	rI := mat64.Norm(Ri, 2)
	rF := mat64.Norm(Rf, 2)
	if floats.EqualWithinAbs(rI, 0, 1e-12) || floats.EqualWithinAbs(rF, 0, 1e-12) {
		return nil, nil, fmt.Errorf("%w: null radius", ErrDegenerateGeometry)
	}
	sinΔν := norm(cross(r1, r2)) / (rI * rF)
	if sinΔν < collinearε {
		return nil, nil, fmt.Errorf("%w: radii are collinear", ErrDegenerateGeometry)
	}
	cosΔν := mat64.Dot(Ri, Rf) / (rI * rF)
	tm := 1.0
	if !short {
		tm = -1
	}
	A := tm * math.Sqrt(rI*rF*(1+cosΔν))
	if floats.EqualWithinAbs(A, 0, 1e-12) {
		return nil, nil, fmt.Errorf("%w: A ~= 0", ErrDegenerateGeometry)
	}
	sμ := math.Sqrt(μ)

	ψ := 0.0
	ψup := 4 * math.Pi * math.Pi
	ψlow := -4 * math.Pi
	// Initial guesses for c2 and c3
	c2, c3 := 1/2., 1/6.
	var Δt, y float64
	for iteration := 0; ; iteration++ {
		if iteration >= maxIter {
			return nil, nil, fmt.Errorf("%w: %d iterations (Δt=%f, expected %f)", ErrNoConvergence, maxIter, Δt, tof)
		}
		y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
		if A > 0 && y < 0 {
			for tmpIt := 0; y < 0; tmpIt++ {
				if tmpIt >= maxIter {
					return nil, nil, fmt.Errorf("%w: could not make y positive", ErrNoConvergence)
				}
				ψ += ψStep
				c2, c3 = stumpff(ψ)
				y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
			}
		}
		χ := math.Sqrt(y / c2)
		Δt = (χ*χ*χ*c3 + A*math.Sqrt(y)) / sμ
		if math.Abs(Δt-tof) <= tol*tof {
			break
		}
		if Δt <= tof {
			ψlow = ψ
		} else {
			ψup = ψ
		}
		ψ = (ψup + ψlow) / 2
		c2, c3 = stumpff(ψ)
	}
	f := 1 - y/rI
	gDot := 1 - y/rF
	g := A * math.Sqrt(y/μ)
	// Compute velocities
	Vi := mat64.NewVector(3, nil)
	Vf := mat64.NewVector(3, nil)
	Rf2 := mat64.NewVector(3, nil)
	Vi.AddScaledVec(Rf, -f, Ri)
	Vi.ScaleVec(1/g, Vi)
	Rf2.ScaleVec(gDot, Rf)
	Vf.AddScaledVec(Rf2, -1, Ri)
	Vf.ScaleVec(1/g, Vf)
	v1 = []float64{Vi.At(0, 0), Vi.At(1, 0), Vi.At(2, 0)}
	v2 = []float64{Vf.At(0, 0), Vf.At(1, 0), Vf.At(2, 0)}
	for i := 0; i < 3; i++ {
		if math.IsNaN(v1[i]) || math.IsNaN(v2[i]) || math.IsInf(v1[i], 0) || math.IsInf(v2[i], 0) {
			return nil, nil, fmt.Errorf("%w: non finite velocity", ErrNoConvergence)
		}
	}
	return v1, v2, nil
}

// stumpff returns the c2 and c3 Stumpff functions of ψ.
func stumpff(ψ float64) (c2, c3 float64) {
	if ψ > ε {
		sψ := math.Sqrt(ψ)
		ssψ, csψ := math.Sincos(sψ)
		return (1 - csψ) / ψ, (sψ - ssψ) / math.Sqrt(ψ*ψ*ψ)
	} else if ψ < -ε {
		sψ := math.Sqrt(-ψ)
		return (1 - math.Cosh(sψ)) / ψ, (math.Sinh(sψ) - sψ) / math.Sqrt(-ψ*ψ*ψ)
	}
	return 1 / 2., 1 / 6.
}

func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}
