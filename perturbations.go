package orrery

import "math"

// Perturbations defines which terms are added to the point mass gravity during the propagation.
type Perturbations struct {
	J2 bool // Oblateness of every source body with a non zero J2
}

// acceleration returns the acceleration of body `target` given the positions of all bodies
// (flattened as in Snapshot.flatten). Sources are summed in catalog order.
func (p Perturbations) acceleration(c *Catalog, target int, state []float64) (acc [3]float64) {
	if !c.entries[target].Affected {
		return
	}
	tx, ty, tz := state[6*target], state[6*target+1], state[6*target+2]
	for src := range c.entries {
		if src == target || !c.entries[src].Affects {
			continue
		}
		body := &c.entries[src]
		r := [3]float64{tx - state[6*src], ty - state[6*src+1], tz - state[6*src+2]}
		r2 := r[0]*r[0] + r[1]*r[1] + r[2]*r[2]
		rNorm := math.Sqrt(r2)
		r3 := r2 * rNorm
		for i := 0; i < 3; i++ {
			acc[i] -= body.GM * r[i] / r3
		}
		if p.J2 && body.J2 > 0 {
			j2 := j2Acceleration(body, r, r2, rNorm)
			for i := 0; i < 3; i++ {
				acc[i] += j2[i]
			}
		}
	}
	return
}

// j2Acceleration returns the oblateness term of the source body on a point at r from it,
// using the source's pole as the symmetry axis.
func j2Acceleration(body *CatalogEntry, r [3]float64, r2, rNorm float64) (acc [3]float64) {
	pole := body.Pole
	rp := r[0]*pole[0] + r[1]*pole[1] + r[2]*pole[2]
	r5 := r2 * r2 * rNorm
	k := 1.5 * body.J2 * body.GM * body.Radius * body.Radius / r5
	radial := 5*rp*rp/r2 - 1
	for i := 0; i < 3; i++ {
		acc[i] = k * (radial*r[i] - 2*rp*pole[i])
	}
	return
}
