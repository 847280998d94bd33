package solver

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
	Batch    int     // Gradients are divided by Batch, use 1 for mean losses
	Clip     float64 // <= 0 if no clipping
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
func NewDefaultAdam(stepSize float64, batchSize int) (*Solver, error) {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999, batchSize)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64, batchSize int) (*Solver,
	error) {
	if stepSize <= 0 {
		return nil, fmt.Errorf("newAdam: step size must be > 0")
	}
	if beta1 < 0 || beta1 >= 1 || beta2 < 0 || beta2 >= 1 {
		return nil, fmt.Errorf("newAdam: betas must be in [0, 1)")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("newAdam: batch size must be >= 1")
	}

	adam := AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Batch:    int(batchSize),
	}

	return newSolver(Adam, adam)
}

// Create returns a new AdamSolver as described by the AdamConfig
func (a AdamConfig) Create() G.Solver {
	return &AdamSolver{config: a}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdamConfig) ValidType(t Type) bool {
	return t == Adam
}

// LearningRate returns the step size of the solver
func (a AdamConfig) LearningRate() float64 {
	return a.StepSize
}

// AdamState is the internal state of an AdamSolver: the step count
// and the first and second moment estimates of each learnable, in the
// order the learnables are passed to Step.
type AdamState struct {
	T    int
	M, V [][]float64
}

// AdamSolver implements the Adam gradient descent algorithm. Unlike
// the Gorgonia Adam solver, the moment estimates are exposed so that
// training can be resumed from a checkpoint.
//
// AdamSolver updates learnables in place. Learnables must be backed by
// float64 dense tensors.
type AdamSolver struct {
	config AdamConfig
	state  AdamState
}

// Step performs a single Adam update on the model. The gradient of
// each learnable is zeroed after the update.
func (a *AdamSolver) Step(model []G.ValueGrad) error {
	if a.state.M == nil {
		a.state.M = make([][]float64, len(model))
		a.state.V = make([][]float64, len(model))
		for i, n := range model {
			w, err := backing(n.Value())
			if err != nil {
				return fmt.Errorf("step: learnable %v: %w", i, err)
			}
			a.state.M[i] = make([]float64, len(w))
			a.state.V[i] = make([]float64, len(w))
		}
	}
	if len(model) != len(a.state.M) {
		return fmt.Errorf("step: model has %v learnables but solver "+
			"tracks %v", len(model), len(a.state.M))
	}

	a.state.T++
	beta1, beta2 := a.config.Beta1, a.config.Beta2
	correction1 := 1 - math.Pow(beta1, float64(a.state.T))
	correction2 := 1 - math.Pow(beta2, float64(a.state.T))
	scale := 1.0
	if a.config.Batch > 1 {
		scale = 1 / float64(a.config.Batch)
	}

	for i, n := range model {
		w, err := backing(n.Value())
		if err != nil {
			return fmt.Errorf("step: learnable %v: %w", i, err)
		}
		gradValue, err := n.Grad()
		if err != nil {
			return fmt.Errorf("step: learnable %v has no gradient: %w", i, err)
		}
		g, err := backing(gradValue)
		if err != nil {
			return fmt.Errorf("step: gradient %v: %w", i, err)
		}
		m, v := a.state.M[i], a.state.V[i]
		if len(w) != len(m) || len(g) != len(w) {
			return fmt.Errorf("step: learnable %v changed size", i)
		}

		for j := range w {
			grad := g[j] * scale
			if a.config.Clip > 0 {
				grad = math.Max(-a.config.Clip, math.Min(a.config.Clip, grad))
			}

			m[j] = beta1*m[j] + (1-beta1)*grad
			v[j] = beta2*v[j] + (1-beta2)*grad*grad

			mHat := m[j] / correction1
			vHat := v[j] / correction2
			w[j] -= a.config.StepSize * mHat / (math.Sqrt(vHat) + a.config.Epsilon)
		}

		if d, ok := gradValue.(*tensor.Dense); ok {
			d.Zero()
		}
	}
	return nil
}

// State returns a copy of the solver's internal state
func (a *AdamSolver) State() AdamState {
	state := AdamState{T: a.state.T}
	state.M = copyMoments(a.state.M)
	state.V = copyMoments(a.state.V)
	return state
}

// MarshalBinary implements the encoding.BinaryMarshaler interface
func (a *AdamSolver) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a.State()); err != nil {
		return nil, fmt.Errorf("marshalBinary: could not encode state: %v", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface
func (a *AdamSolver) UnmarshalBinary(data []byte) error {
	var state AdamState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return fmt.Errorf("unmarshalBinary: could not decode state: %v", err)
	}
	if len(state.M) != len(state.V) {
		return fmt.Errorf("unmarshalBinary: mismatched moment estimates")
	}
	a.state = state
	return nil
}

func copyMoments(moments [][]float64) [][]float64 {
	if moments == nil {
		return nil
	}
	out := make([][]float64, len(moments))
	for i := range moments {
		out[i] = append([]float64(nil), moments[i]...)
	}
	return out
}

// backing returns the float64 backing data of v
func backing(v G.Value) ([]float64, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value")
	}
	data, ok := v.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("value of type %v not supported", v.Dtype())
	}
	return data, nil
}
