package orrery

import (
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
)

const angleε = 1e-8

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		if !floats.EqualWithinAbsOrRel(a[i], b[i], 1e-9, 1e-6) {
			return false
		}
	}
	return true
}

// anglesEqual returns whether two angles in radians are equal modulo 2π.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε || 2*math.Pi-diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", diff/deg2rad)
}

const (
	sunμ   = 1.327124400189e20
	marsAU = 1.524
)

// circularState returns the state on a circular equatorial heliocentric orbit of radius r at phase θ0 after t seconds.
func circularState(r, θ0, t float64) BodyState {
	n := math.Sqrt(sunμ / (r * r * r))
	s, c := math.Sincos(θ0 + n*t)
	v := math.Sqrt(sunμ / r)
	return BodyState{R: []float64{r * c, r * s, 0}, V: []float64{-v * s, v * c, 0}}
}

// marsPhase is the initial lead of Mars over Earth such that a Hohmann transfer departs at t=0.
var marsPhase = Deg2rad(44)

// innerPlanets returns the Sun, Earth and Mars on circular coplanar orbits.
func innerPlanets(affected bool) (*Catalog, Snapshot) {
	earth := circularState(AU, 0, 0)
	mars := circularState(marsAU*AU, marsPhase, 0)
	c, epoch, err := NewCatalog(
		Body{CatalogEntry{Name: "Sun", GM: sunμ, Radius: 695700e3, Affects: true}, []float64{0, 0, 0}, []float64{0, 0, 0}},
		Body{CatalogEntry{Name: "Earth", GM: 3.986004418e14, Radius: 6378.137e3, Affected: affected}, earth.R, earth.V},
		Body{CatalogEntry{Name: "Mars", GM: 4.2828375214e13, Radius: 3396.19e3, Affected: affected}, mars.R, mars.V},
	)
	if err != nil {
		panic(err)
	}
	return c, epoch
}

// analyticArchive returns an archive of `days` daily steps of the inner planets on their exact circular orbits.
func analyticArchive(epoch Snapshot, days int) *Archive {
	a := NewArchive(epoch, 24*time.Hour, Epoch)
	for d := 1; d <= days; d++ {
		t := float64(d) * 86400
		a.Append(Snapshot{epoch[0].Clone(), circularState(AU, 0, t), circularState(marsAU*AU, marsPhase, t)})
	}
	return a
}

// hohmannΔv returns the total Δv of the Earth to Mars Hohmann transfer between 180 km parking orbits.
func hohmannΔv() float64 {
	r1, r2 := AU, marsAU*AU
	v1 := math.Sqrt(sunμ/r1) * (math.Sqrt(2*r2/(r1+r2)) - 1)
	v2 := math.Sqrt(sunμ/r2) * (1 - math.Sqrt(2*r1/(r1+r2)))
	return NewHyperbola([]float64{v1, 0, 0}, 3.986004418e14, 6378.137e3+ParkingAltitude).Δv() +
		NewHyperbola([]float64{v2, 0, 0}, 4.2828375214e13, 3396.19e3+ParkingAltitude).Δv()
}
