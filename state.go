package orrery

// BodyState is the position (m) and velocity (m/s) of a body in the inertial frame.
type BodyState struct {
	R, V []float64
}

// Clone returns a deep copy of this state.
func (s BodyState) Clone() BodyState {
	return BodyState{R: append([]float64(nil), s.R...), V: append([]float64(nil), s.V...)}
}

// RelativeTo returns this state expressed with respect to the provided one.
func (s BodyState) RelativeTo(o BodyState) BodyState {
	return BodyState{R: sub(s.R, o.R), V: sub(s.V, o.V)}
}

// Snapshot is the state of every body of a catalog at a given step, indexed by BodyID.
type Snapshot []BodyState

// Clone returns a deep copy of this snapshot.
func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for i, st := range s {
		c[i] = st.Clone()
	}
	return c
}

// flatten returns the snapshot as the 6*n vector used by the integrator.
func (s Snapshot) flatten() []float64 {
	f := make([]float64, 6*len(s))
	for i, st := range s {
		copy(f[6*i:6*i+3], st.R)
		copy(f[6*i+3:6*i+6], st.V)
	}
	return f
}

// snapshotFrom is the inverse of flatten.
func snapshotFrom(f []float64) Snapshot {
	s := make(Snapshot, len(f)/6)
	for i := range s {
		s[i] = BodyState{
			R: []float64{f[6*i], f[6*i+1], f[6*i+2]},
			V: []float64{f[6*i+3], f[6*i+4], f[6*i+5]},
		}
	}
	return s
}
