package environment

import (
	"gonum.org/v1/gonum/mat"
)

// SpecType determines whether a Spec describes actions or observations
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Cardinality determines whether the values a Spec describes are
// discrete or continuous
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec describes the shape and bounds of the actions or observations
// of an environment. Shape, LowerBound and UpperBound always have the
// same length.
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewDiscreteActionSpec returns the Spec of a single discrete action
// enumerated from 0 to numActions-1
func NewDiscreteActionSpec(numActions int) Spec {
	return Spec{
		Shape:       mat.NewVecDense(1, nil),
		Type:        Action,
		LowerBound:  mat.NewVecDense(1, []float64{0}),
		UpperBound:  mat.NewVecDense(1, []float64{float64(numActions - 1)}),
		Cardinality: Discrete,
	}
}

// NewObservationSpec returns the Spec of a continuous observation
// vector of the given length whose features lie in [min, max]
func NewObservationSpec(features int, min, max float64) Spec {
	lower := make([]float64, features)
	upper := make([]float64, features)
	for i := range lower {
		lower[i] = min
		upper[i] = max
	}

	return Spec{
		Shape:       mat.NewVecDense(features, nil),
		Type:        Observation,
		LowerBound:  mat.NewVecDense(features, lower),
		UpperBound:  mat.NewVecDense(features, upper),
		Cardinality: Continuous,
	}
}

// Len returns the number of features described by the Spec
func (s Spec) Len() int {
	return s.Shape.Len()
}

// NumActions returns the number of discrete actions described by an
// action Spec
func (s Spec) NumActions() int {
	return int(s.UpperBound.AtVec(0)) + 1
}
