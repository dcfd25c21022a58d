package orrery

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// PQW2Inertial returns the perifocal to inertial rotation matrix for the provided
// right ascension of the ascending node Ω, argument of periapsis ω and inclination i.
// The columns are the P, Q and W axes expressed inertially, i.e. the transpose of R3(ω)*R1(i)*R3(Ω).
func PQW2Inertial(Ω, ω, i float64) *mat64.Dense {
	var R1R3, m mat64.Dense
	R1R3.Mul(R1(-i), R3(-ω))
	m.Mul(R3(-Ω), &R1R3)
	return &m
}

// Rot313Vec converts a given vector from the perifocal frame to the inertial frame.
func Rot313Vec(Ω, ω, i float64, vPQW []float64) []float64 {
	return MxV33(PQW2Inertial(Ω, ω, i), vPQW)
}

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat64.Matrix, v []float64) (o []float64) {
	vVec := mat64.NewVector(len(v), v)
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}
