package orrery

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// AU is one astronomical unit in meters.
	AU = 1.49597870700e11
	// Sun, Earth and Mars are the identifiers of those bodies in the SolarSystem catalog.
	Sun   BodyID = 0
	Earth BodyID = 3
	Mars  BodyID = 4
)

// Epoch is the reference epoch of the SolarSystem catalog states (ICRF).
var Epoch = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

// BodyID identifies a body in a Catalog. It is the index of the body in the catalog.
type BodyID int

// CatalogEntry defines the constants of a celestial body.
type CatalogEntry struct {
	Name         string
	GM           float64   // Gravitational parameter in m^3/s^2
	Radius       float64   // Mean radius in meters
	J2           float64   // Oblateness coefficient
	Pole         []float64 // Unit vector of the rotation axis
	RotationRate float64   // In radians per second
	// Affected is whether external gravity moves this body.
	Affected bool
	// Affects is whether this body's gravity acts on the others.
	Affects bool
	// KeplerParent is the body whose frame is used to express this body's orbit.
	KeplerParent BodyID
	// DisplayAsKeplerian is only consumed by presentation layers.
	DisplayAsKeplerian bool
}

// String implements the Stringer interface.
func (c CatalogEntry) String() string {
	return c.Name + " body"
}

// Body is a catalog entry along with its state at the catalog epoch.
type Body struct {
	CatalogEntry
	R, V []float64
}

// Catalog is the immutable, densely indexed, set of bodies of a simulation.
type Catalog struct {
	entries []CatalogEntry
	names   map[string]BodyID
}

// NewCatalog returns a new catalog and the epoch snapshot from the provided bodies.
// The BodyID of each body is its position in the arguments.
func NewCatalog(bodies ...Body) (*Catalog, Snapshot, error) {
	if len(bodies) == 0 {
		return nil, nil, fmt.Errorf("%w: no bodies", ErrInvalidCatalog)
	}
	c := &Catalog{entries: make([]CatalogEntry, len(bodies)), names: make(map[string]BodyID, len(bodies))}
	epoch := make(Snapshot, len(bodies))
	for id, b := range bodies {
		switch {
		case b.GM <= 0 || math.IsNaN(b.GM):
			return nil, nil, fmt.Errorf("%w: %s has GM=%g", ErrInvalidCatalog, b.Name, b.GM)
		case b.J2 < 0:
			return nil, nil, fmt.Errorf("%w: %s has J2=%g", ErrInvalidCatalog, b.Name, b.J2)
		case b.Radius < 0:
			return nil, nil, fmt.Errorf("%w: %s has radius=%g", ErrInvalidCatalog, b.Name, b.Radius)
		case len(b.R) != 3 || len(b.V) != 3:
			return nil, nil, fmt.Errorf("%w: %s state must be 3x1 vectors", ErrInvalidCatalog, b.Name)
		case b.KeplerParent < 0 || int(b.KeplerParent) >= len(bodies):
			return nil, nil, fmt.Errorf("%w: %s has parent %d", ErrInvalidCatalog, b.Name, b.KeplerParent)
		}
		if _, dup := c.names[strings.ToLower(b.Name)]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidCatalog, b.Name)
		}
		entry := b.CatalogEntry
		if len(entry.Pole) != 3 || norm(entry.Pole) == 0 {
			entry.Pole = []float64{0, 0, 1}
		} else {
			entry.Pole = unit(entry.Pole)
		}
		c.entries[id] = entry
		c.names[strings.ToLower(b.Name)] = BodyID(id)
		epoch[id] = BodyState{R: append([]float64(nil), b.R...), V: append([]float64(nil), b.V...)}
	}
	return c, epoch, nil
}

// Len returns the number of bodies.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Has returns whether this identifier is part of the catalog.
func (c *Catalog) Has(id BodyID) bool {
	return id >= 0 && int(id) < len(c.entries)
}

// Entry returns a copy of the entry of the provided body.
func (c *Catalog) Entry(id BodyID) (CatalogEntry, error) {
	if !c.Has(id) {
		return CatalogEntry{}, fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	e := c.entries[id]
	e.Pole = append([]float64(nil), e.Pole...)
	return e, nil
}

// Lookup returns the identifier of the body by name (case insensitive).
func (c *Catalog) Lookup(name string) (BodyID, error) {
	id, ok := c.names[strings.ToLower(name)]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownBody, name)
	}
	return id, nil
}

// IDs returns all the identifiers in catalog order.
func (c *Catalog) IDs() []BodyID {
	ids := make([]BodyID, len(c.entries))
	for i := range ids {
		ids[i] = BodyID(i)
	}
	return ids
}

// entry returns the entry without copying; only for internal read-only use.
func (c *Catalog) entry(id BodyID) *CatalogEntry {
	return &c.entries[id]
}

// SolarSystem returns the Sun, the eight planets, Luna, Phobos and Deimos with their ICRF states at Epoch.
func SolarSystem() (*Catalog, Snapshot) {
	s23, c23 := math.Sincos(23.5 * deg2rad)
	bodies := []Body{
		{CatalogEntry{Name: "Sun", GM: 1.327124400189e20, Radius: 695700e3, Pole: []float64{0, -s23, c23},
			Affected: false, Affects: true, KeplerParent: 0},
			[]float64{0, 0, 0}, []float64{0, 0, 0}},
		{CatalogEntry{Name: "Mercury", GM: 22031.86855e9, Radius: 2440.53e3, J2: 50.3e-6, RotationRate: 0.00000124001,
			Pole: []float64{0.089, -0.461, 0.875}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{-5.532624678820648e10, -3.142244505436447e10, -1.105178218162823e10},
			[]float64{1.506296861774696e4, -3.451695261553988e4, -2.000019976472707e4}},
		{CatalogEntry{Name: "Venus", GM: 324858.592e9, Radius: 6051.893e3, J2: 4.458e-6, RotationRate: -0.00000029924,
			Pole: []float64{-0.019, -0.388, 0.921}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{-1.027356079977646e11, -3.204245144195317e10, -7.918494278719466e9},
			[]float64{1.034372730409492e4, -3.035539597798260e4, -1.431342664988898e4}},
		{CatalogEntry{Name: "Earth", GM: 398600.435436e9, Radius: 6378.137e3, J2: 1082.63e-6, RotationRate: 0.00007292115,
			Pole: []float64{0, 0, 1}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{-1.464172364494842e11, -2.772532550991856e10, -1.20179117883738e10},
			[]float64{5.547160442088672e3, -2.687652548431365e4, -1.165130941973476e4}},
		{CatalogEntry{Name: "Mars", GM: 42828.375214e9, Radius: 3396.19e3, J2: 1960.45e-6, RotationRate: 0.0000708822,
			Pole: []float64{0.445, -0.406, 0.798}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{-2.143312584497707e11, 1.130213760581606e11, 5.762147925190119e10},
			[]float64{-1.141453632939710e4, -1.719615178206723e4, -7.579590728773417e3}},
		{CatalogEntry{Name: "Jupiter", GM: 126686531.900e9, Radius: 66854e3, J2: 14736e-6, RotationRate: 0.00017585,
			Pole: []float64{0.015, -0.434, 0.901}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{5.562576581984715e10, 7.016788857765751e11, 2.994046193296018e11},
			[]float64{-1.319662355577217e4, 1.321933841527028e3, 8.878182563218415e2}},
		{CatalogEntry{Name: "Saturn", GM: 37931206.234e9, Radius: 54364e3, J2: 16298e-6, RotationRate: 0.000163785,
			Pole: []float64{0.085, 0.073, 0.994}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{1.423024249523166e12, -1.526699268136860e11, -1.243323925422439e11},
			[]float64{7.312819321021123e2, 8.847665914106138e3, 3.622778314873457e3}},
		{CatalogEntry{Name: "Uranus", GM: 5793950.6103e9, Radius: 25559e3, J2: 3343.43e-6, RotationRate: -0.000101237,
			Pole: []float64{-0.214, -0.940, -0.262}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{1.616488349955040e12, 2.238902602761308e12, 9.576951060641547e11},
			[]float64{-5.736655948173632e3, 3.133454447349457e3, 1.453284216289044e3}},
		{CatalogEntry{Name: "Neptune", GM: 6835099.97e9, Radius: 24766e3, J2: 3411e-6, RotationRate: 0.000108338,
			Pole: []float64{0.369, -0.622, 0.689}, Affected: true, Affects: true, KeplerParent: 0, DisplayAsKeplerian: true},
			[]float64{4.470300690957564e12, -7.237235901036178e9, -1.142480940335590e11},
			[]float64{1.520223426972248e1, 5.064904445004065e3, 2.073412797962369e3}},
		{CatalogEntry{Name: "Luna", GM: 4902.800066e9, Radius: 1738.0e3, J2: 202.7e-6, RotationRate: 0.0000026617,
			Pole: []float64{0, -0.395, 0.918}, Affected: true, Affects: true, KeplerParent: Earth, DisplayAsKeplerian: true},
			[]float64{-1.462071124551009e11, -2.746651293891389e10, -1.187506498324082e10},
			[]float64{4.690415150659709e3, -2.629349527958113e4, -1.133678648192069e4}},
		{CatalogEntry{Name: "Phobos", GM: 7.11e5, Radius: 13.1e3, Pole: []float64{0.445, -0.406, 0.798},
			Affected: true, Affects: true, KeplerParent: Mars, DisplayAsKeplerian: true},
			[]float64{-2.143231508074529e11, 1.130207954358597e11, 5.761660420743605e10},
			[]float64{-1.090544043519775e4, -1.525225454690260e4, -6.921594858425093e3}},
		{CatalogEntry{Name: "Deimos", GM: 8.53e4, Radius: 13.1e3, Pole: []float64{0.445, -0.406, 0.798},
			Affected: true, Affects: true, KeplerParent: Mars, DisplayAsKeplerian: true},
			[]float64{-2.143339367495307e11, 1.130001812861314e11, 5.761177366183721e10},
			[]float64{-1.018908957340378e4, -1.709502687832305e4, -8.138962446338176e3}},
	}
	c, epoch, err := NewCatalog(bodies...)
	if err != nil {
		panic(err)
	}
	return c, epoch
}
