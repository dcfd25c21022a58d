package orrery

import (
	"fmt"
	"math"
	"time"
)

const (
	// orbitSamples is the number of true anomaly samples of a sampled orbit (0.1 degree resolution).
	orbitSamples = 3600
	// hyperbolaTrim is the number of samples dropped at each end of a hyperbola to avoid the asymptotes.
	hyperbolaTrim = 10
)

// OE defines an orbit via its classical orbital elements. Angles are in radians.
// The semi-major axis is negative for hyperbolic orbits.
type OE struct {
	A, E, I, Ω, ω, ν float64
}

// NewOE returns the orbital elements from the provided values. Angles must be in radians.
func NewOE(a, e, i, Ω, ω, ν float64) OE {
	return OE{A: a, E: e, I: i, Ω: Ω, ω: ω, ν: ν}
}

// ArgPeriapsis returns the argument of periapsis ω.
func (o OE) ArgPeriapsis() float64 {
	return o.ω
}

// TrueAnomaly returns the true anomaly ν.
func (o OE) TrueAnomaly() float64 {
	return o.ν
}

// SemiParameter returns the semi parameter p, which is positive for both ellipses and hyperbolas.
func (o OE) SemiParameter() float64 {
	return o.A * (1 - o.E*o.E)
}

// Energy returns the specific mechanical energy.
func (o OE) Energy(μ float64) float64 {
	return -μ / (2 * o.A)
}

// Period returns the period of this orbit, or zero if it is not closed.
func (o OE) Period(μ float64) time.Duration {
	if o.A <= 0 || o.E >= 1 {
		return 0
	}
	seconds := 2 * math.Pi * math.Sqrt(o.A*o.A*o.A/μ)
	return time.Duration(seconds * float64(time.Second))
}

// String implements the stringer interface (hence the value receiver)
func (o OE) String() string {
	return fmt.Sprintf("a=%.1f e=%.6f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.A, o.E, Rad2deg(o.I), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.ν))
}

// RVToOE returns the orbital elements from the R and V vectors.
// Circular and equatorial orbits are handled by setting the undefined angles to zero:
// equatorial orbits have Ω=0, circular or equatorial orbits have ω=0, and the true anomaly
// of a circular orbit is measured from the node (or from the x axis if also equatorial).
func RVToOE(μ float64, R, V []float64) OE {
	// From Vallado's RV2COE, page 113
	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - μ/r
	a := -μ / (2 * ξ)
	vxh := cross(V, hVec)
	eVec := make([]float64, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = vxh[i]/μ - R[i]/r
	}
	e := norm(eVec)
	nNorm := norm(n)
	i := acos(hVec[2] / norm(hVec))

	var Ω, ω, ν float64
	equatorial := nNorm <= degenerateε
	circular := e <= degenerateε
	if !equatorial {
		Ω = acos(n[0] / nNorm)
		if n[1] < 0 {
			Ω = 2*math.Pi - Ω
		}
	}
	if !equatorial && !circular {
		ω = acos(dot(n, eVec) / (nNorm * e))
		if eVec[2] < 0 {
			ω = 2*math.Pi - ω
		}
	}
	switch {
	case !circular:
		ν = acos(dot(eVec, R) / (e * r))
		if dot(R, V) < 0 {
			ν = 2*math.Pi - ν
		}
	case !equatorial:
		// Argument of latitude.
		ν = acos(dot(n, R) / (nNorm * r))
		if R[2] < 0 {
			ν = 2*math.Pi - ν
		}
	default:
		// True longitude.
		ν = acos(R[0] / r)
		if R[1] < 0 {
			ν = 2*math.Pi - ν
		}
		if i > math.Pi/2 {
			ν = 2*math.Pi - ν
		}
	}
	return OE{A: a, E: e, I: i, Ω: wrap2π(Ω), ω: wrap2π(ω), ν: wrap2π(ν)}
}

// perifocalRadius returns the conic radius at the given true anomaly.
func (o OE) perifocalRadius(ν float64) float64 {
	return o.SemiParameter() / (1 + o.E*math.Cos(ν))
}

// PositionFromTrueAnomaly returns the inertial position on this orbit at the provided true anomaly.
func PositionFromTrueAnomaly(o OE, ν float64) []float64 {
	r := o.perifocalRadius(ν)
	sν, cν := math.Sincos(ν)
	return Rot313Vec(o.Ω, o.ω, o.I, []float64{r * cν, r * sν, 0})
}

// VelocityFromTrueAnomaly returns the inertial velocity on this orbit at the provided true anomaly.
func VelocityFromTrueAnomaly(o OE, μ, ν float64) []float64 {
	k := math.Sqrt(μ / o.SemiParameter())
	sν, cν := math.Sincos(ν)
	return Rot313Vec(o.Ω, o.ω, o.I, []float64{-k * sν, k * (o.E + cν), 0})
}

// RV returns the inertial position and velocity at the true anomaly of these elements.
func (o OE) RV(μ float64) ([]float64, []float64) {
	return PositionFromTrueAnomaly(o, o.ν), VelocityFromTrueAnomaly(o, μ, o.ν)
}

// SampleOrbit returns points along the orbit curve. Ellipses are sampled every tenth of a degree
// of true anomaly; hyperbolas use the same resolution over their valid range of true anomaly,
// without the ten outermost samples on each side. Each call returns a new slice.
func SampleOrbit(o OE) [][]float64 {
	if o.A >= 0 {
		pts := make([][]float64, orbitSamples)
		for i := range pts {
			pts[i] = PositionFromTrueAnomaly(o, Deg2rad(float64(i)/10))
		}
		return pts
	}
	θlim := acos(-1 / o.E)
	dθ := 2 * θlim / orbitSamples
	pts := make([][]float64, 0, orbitSamples-2*hyperbolaTrim)
	for i := hyperbolaTrim; i < orbitSamples-hyperbolaTrim; i++ {
		pts = append(pts, PositionFromTrueAnomaly(o, -θlim+dθ*float64(i)))
	}
	return pts
}
