package orrery

import (
	"fmt"
	"math"
	"strings"
)

const (
	// searchε is the magnitude under which an inclination search candidate is considered singular.
	searchε = 1e-6
)

// OrientationPolicy selects how a departure or arrival hyperbola is oriented around its asymptote.
type OrientationPolicy uint8

const (
	// ClosedForm builds the hyperbola plane from the body's orbital angular momentum.
	ClosedForm OrientationPolicy = iota + 1
	// InclinationSearch scans the argument of periapsis and keeps the inclination closest to a target.
	InclinationSearch
)

func (p OrientationPolicy) String() string {
	switch p {
	case ClosedForm:
		return "closed-form"
	case InclinationSearch:
		return "inclination-search"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ParseOrientationPolicy returns the policy from its name.
func ParseOrientationPolicy(s string) (OrientationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "closed-form", "closedform", "":
		return ClosedForm, nil
	case "inclination-search", "search":
		return InclinationSearch, nil
	default:
		return 0, fmt.Errorf("%w: unknown orientation policy %q", ErrInvalidConfig, s)
	}
}

// Hyperbola defines the in-plane geometry of a departure or arrival hyperbola.
type Hyperbola struct {
	VInf []float64 // Hyperbolic excess velocity vector
	μ    float64   // Gravitational parameter of the body
	Rp   float64   // Periapsis radius
	Vp   float64   // Periapsis speed
	E    float64   // Eccentricity
}

// NewHyperbola returns the hyperbola with the given excess velocity and periapsis radius about a body.
func NewHyperbola(vInf []float64, μ, rp float64) Hyperbola {
	v2 := dot(vInf, vInf)
	return Hyperbola{
		VInf: append([]float64(nil), vInf...),
		μ:    μ,
		Rp:   rp,
		Vp:   math.Sqrt(v2 + 2*μ/rp),
		E:    1 + rp*v2/μ,
	}
}

// TurningAngle returns the total deflection δ of the velocity along the hyperbola.
func (h Hyperbola) TurningAngle() float64 {
	return 2 * math.Asin(1/h.E)
}

// AsymptoteAnomaly returns θ∞, the limit of the true anomaly.
func (h Hyperbola) AsymptoteAnomaly() float64 {
	return acos(-1 / h.E)
}

// CircularSpeed returns the speed of the circular parking orbit at the periapsis radius.
func (h Hyperbola) CircularSpeed() float64 {
	return math.Sqrt(h.μ / h.Rp)
}

// Δv returns the impulse between the circular parking orbit and the hyperbola at periapsis.
func (h Hyperbola) Δv() float64 {
	return math.Abs(h.Vp - h.CircularSpeed())
}

// asymptoteAngle returns the in-plane angle between periapsis and the v∞ direction:
// the outgoing asymptote when departing, the incoming one when arriving.
func (h Hyperbola) asymptoteAngle(departure bool) float64 {
	if departure {
		return h.AsymptoteAnomaly()
	}
	return math.Pi - h.AsymptoteAnomaly()
}

// Orientation is the set of Euler angles placing a hyperbola in the inertial frame.
type Orientation struct {
	Ω, ω, I float64
}

// Periapsis returns the inertial periapsis position and velocity of the hyperbola with this orientation.
func (h Hyperbola) Periapsis(o Orientation) (R, V []float64) {
	rot := PQW2Inertial(o.Ω, o.ω, o.I)
	return MxV33(rot, []float64{h.Rp, 0, 0}), MxV33(rot, []float64{0, h.Vp, 0})
}

// OE returns the orbital elements of the hyperbola with this orientation.
func (h Hyperbola) OE(o Orientation) OE {
	R, V := h.Periapsis(o)
	return RVToOE(h.μ, R, V)
}

// OrientClosedForm returns the orientation of the hyperbola whose plane contains v∞ and is as close as
// possible to the plane of the provided angular momentum (usually the body's heliocentric orbit).
// If v∞ is aligned with the angular momentum, the pole is used, and then the inertial z axis.
func (h Hyperbola) OrientClosedForm(departure bool, angMom, pole []float64) (Orientation, error) {
	û := unit(h.VInf)
	if norm(û) == 0 {
		return Orientation{}, fmt.Errorf("%w: null excess velocity", ErrSingularOrientation)
	}
	var ĥ []float64
	for _, candidate := range [][]float64{angMom, pole, {0, 0, 1}} {
		if len(candidate) != 3 {
			continue
		}
		inPlane := combine(1, candidate, -dot(candidate, û), û)
		if norm(inPlane) > degenerateε*math.Max(norm(candidate), 1) {
			ĥ = unit(inPlane)
			break
		}
	}
	if ĥ == nil {
		return Orientation{}, fmt.Errorf("%w: no plane contains v∞=%v", ErrSingularOrientation, h.VInf)
	}
	α := h.asymptoteAngle(departure)
	sα, cα := math.Sincos(α)
	hxu := cross(ĥ, û)
	pHat := combine(cα, û, -sα, hxu)

	i := acos(ĥ[2])
	nVec := cross([]float64{0, 0, 1}, ĥ)
	nHat := []float64{1, 0, 0}
	Ω := 0.0
	if norm(nVec) > degenerateε {
		nHat = unit(nVec)
		Ω = math.Atan2(nHat[1], nHat[0])
	}
	ω := math.Atan2(dot(pHat, cross(ĥ, nHat)), dot(pHat, nHat))
	return Orientation{Ω: wrap2π(Ω), ω: wrap2π(ω), I: i}, nil
}

// OrientSearch scans the argument of periapsis by one degree increments, solves for the node and
// inclination placing the asymptote along v∞, and returns the candidate whose inclination is the
// closest to the target inclination.
func (h Hyperbola) OrientSearch(departure bool, targetInclination float64) (Orientation, error) {
	û := unit(h.VInf)
	if norm(û) == 0 {
		return Orientation{}, fmt.Errorf("%w: null excess velocity", ErrSingularOrientation)
	}
	α := h.asymptoteAngle(departure)
	best := Orientation{}
	bestΔi := math.Inf(1)
	for deg := 0; deg < 360; deg++ {
		ω := float64(deg) * deg2rad
		Ay, Ax := math.Sincos(ω + α)
		if math.Abs(Ay) < searchε {
			continue
		}
		si := û[2] / Ay
		if si < 0 || si > 1 {
			continue
		}
		i0 := math.Asin(si)
		for _, i := range []float64{i0, math.Pi - i0} {
			ci := math.Cos(i)
			Ω := math.Atan2(û[1], û[0]) - math.Atan2(Ay*ci, Ax)
			if Δi := math.Abs(i - targetInclination); Δi < bestΔi {
				bestΔi = Δi
				best = Orientation{Ω: wrap2π(Ω), ω: ω, I: i}
			}
		}
	}
	if math.IsInf(bestΔi, 1) {
		return Orientation{}, fmt.Errorf("%w: no candidate for v∞=%v", ErrSingularOrientation, h.VInf)
	}
	return best, nil
}
