package orrery

import (
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"
)

const earthμKm = 3.986004418e5 // km^3/s^2

func TestOrbitRV2COE(t *testing.T) {
	// From Vallado, example 2-5
	R := []float64{6524.834, 6862.875, 6448.296}
	V := []float64{4.901327, 5.533756, -1.976341}
	o := RVToOE(earthμKm, R, V)
	if !floats.EqualWithinRel(o.A, 36127.343, 1e-5) {
		t.Fatalf("a=%f", o.A)
	}
	if !floats.EqualWithinAbs(o.E, 0.832853, 1e-5) {
		t.Fatalf("e=%f", o.E)
	}
	for _, tc := range []struct {
		name     string
		got, exp float64
	}{
		{"i", o.I, 87.869126}, {"Ω", o.Ω, 227.898260}, {"ω", o.ArgPeriapsis(), 53.384931}, {"ν", o.TrueAnomaly(), 92.335157},
	} {
		if !floats.EqualWithinAbs(Rad2deg(tc.got), tc.exp, 1e-3) {
			t.Fatalf("%s=%f expected %f", tc.name, Rad2deg(tc.got), tc.exp)
		}
	}
	if !floats.EqualWithinAbs(o.Energy(earthμKm), -5.516604, 1e-5) {
		t.Fatalf("incorrect energy ξ=%f", o.Energy(earthμKm))
	}
}

func TestOrbitRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		oe   OE
	}{
		{"circular", NewOE(7000, 0, Deg2rad(28.5), Deg2rad(40), 0, Deg2rad(123))},
		{"elliptical", NewOE(12000, 0.5, Deg2rad(51.6), Deg2rad(300), Deg2rad(75), Deg2rad(210))},
		{"hyperbolic", NewOE(-9000, 1.5, Deg2rad(120), Deg2rad(10), Deg2rad(200), Deg2rad(40))},
		{"hyperbolic inbound", NewOE(-9000, 1.5, Deg2rad(20), Deg2rad(250), Deg2rad(30), Deg2rad(300))},
	} {
		R, V := tc.oe.RV(earthμKm)
		got := RVToOE(earthμKm, R, V)
		if !floats.EqualWithinRel(got.A, tc.oe.A, 1e-9) || !floats.EqualWithinAbs(got.E, tc.oe.E, 1e-9) {
			t.Fatalf("[%s] a=%f e=%f, expected a=%f e=%f", tc.name, got.A, got.E, tc.oe.A, tc.oe.E)
		}
		for _, angle := range []struct {
			name     string
			got, exp float64
		}{
			{"i", got.I, tc.oe.I}, {"Ω", got.Ω, tc.oe.Ω}, {"ω", got.ω, tc.oe.ω}, {"ν", got.ν, tc.oe.ν},
		} {
			if ok, err := anglesEqual(angle.got, angle.exp); !ok {
				t.Fatalf("[%s] %s: %s", tc.name, angle.name, err)
			}
		}
		R2, V2 := got.RV(earthμKm)
		if !vectorsEqual(R, R2) || !vectorsEqual(V, V2) {
			t.Fatalf("[%s] RV differs after round trip", tc.name)
		}
	}
}

func TestOrbitSpeCircularEquatorial(t *testing.T) {
	r := 42164.0
	v := math.Sqrt(earthμKm / r)
	for _, tc := range []struct {
		V        []float64
		i, λtrue float64
	}{
		{[]float64{-v, 0, 0}, 0, math.Pi / 2},
		{[]float64{v, 0, 0}, math.Pi, 3 * math.Pi / 2},
	} {
		R := []float64{0, r, 0}
		o := RVToOE(earthμKm, R, tc.V)
		if ok, err := anglesEqual(o.I, tc.i); !ok {
			t.Fatalf("i: %s", err)
		}
		if o.Ω != 0 || o.ω != 0 {
			t.Fatalf("Ω=%f ω=%f should be zero", o.Ω, o.ω)
		}
		if ok, err := anglesEqual(o.ν, tc.λtrue); !ok {
			t.Fatalf("true longitude: %s", err)
		}
		R2, V2 := o.RV(earthμKm)
		if !vectorsEqual(R, R2) || !vectorsEqual(tc.V, V2) {
			t.Fatalf("RV differs after round trip:\n%+v %+v\n%+v %+v", R, tc.V, R2, V2)
		}
	}
}

func TestOrbitSpeCircular(t *testing.T) {
	o := NewOE(7000, 0, Deg2rad(45), Deg2rad(60), 0, Deg2rad(30))
	R, V := o.RV(earthμKm)
	got := RVToOE(earthμKm, R, V)
	if got.E > 1e-10 {
		t.Fatalf("e=%e", got.E)
	}
	if got.ω != 0 {
		t.Fatalf("ω=%f should be zero for a circular orbit", got.ω)
	}
	// ν is the argument of latitude.
	if ok, err := anglesEqual(got.ν, Deg2rad(30)); !ok {
		t.Fatalf("argument of latitude: %s", err)
	}
}

func TestOrbitPeriod(t *testing.T) {
	o := NewOE(7000, 0.001, Deg2rad(28.5), 0, 0, 0)
	exp := 2 * math.Pi * math.Sqrt(7000*7000*7000/earthμKm)
	if got := o.Period(earthμKm).Seconds(); !floats.EqualWithinAbs(got, exp, 1e-6) {
		t.Fatalf("period=%f expected %f", got, exp)
	}
	if o.Period(earthμKm) < 97*time.Minute || o.Period(earthμKm) > 98*time.Minute {
		t.Fatalf("LEO period %s", o.Period(earthμKm))
	}
	if NewOE(-9000, 1.5, 0, 0, 0, 0).Period(earthμKm) != 0 {
		t.Fatal("hyperbola must not have a period")
	}
	if p := NewOE(12000, 0.5, 0, 0, 0, 0).SemiParameter(); !floats.EqualWithinAbs(p, 9000, 1e-9) {
		t.Fatalf("p=%f", p)
	}
}

func TestSampleOrbit(t *testing.T) {
	ellipse := NewOE(12000, 0.5, Deg2rad(51.6), Deg2rad(300), Deg2rad(75), 0)
	pts := SampleOrbit(ellipse)
	if len(pts) != 3600 {
		t.Fatalf("ellipse has %d samples", len(pts))
	}
	if !floats.EqualWithinRel(norm(pts[0]), 6000, 1e-12) {
		t.Fatalf("first sample should be periapsis, |r|=%f", norm(pts[0]))
	}
	if !floats.EqualWithinRel(norm(pts[1800]), 18000, 1e-12) {
		t.Fatalf("sample 1800 should be apoapsis, |r|=%f", norm(pts[1800]))
	}
	pts[0][0] = 0
	if SampleOrbit(ellipse)[0][0] == 0 {
		t.Fatal("samples must not be shared between calls")
	}

	hyperbola := NewOE(-9000, 1.5, Deg2rad(20), 0, 0, 0)
	pts = SampleOrbit(hyperbola)
	if len(pts) != 3580 {
		t.Fatalf("hyperbola has %d samples", len(pts))
	}
	rp := 9000 * 0.5
	for i, pt := range pts {
		r := norm(pt)
		if math.IsNaN(r) || math.IsInf(r, 0) || r < rp*(1-1e-12) {
			t.Fatalf("sample %d has |r|=%f", i, r)
		}
	}
}
