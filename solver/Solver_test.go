package solver

import (
	"encoding/json"
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// param is a learnable with a fixed gradient
type param struct {
	value, grad *tensor.Dense
}

func newParam(w, g []float64) *param {
	return &param{
		value: tensor.New(tensor.WithShape(len(w)), tensor.WithBacking(w)),
		grad:  tensor.New(tensor.WithShape(len(g)), tensor.WithBacking(g)),
	}
}

func (p *param) Value() G.Value { return p.value }
func (p *param) Grad() (G.Value, error) { return p.grad, nil }
func (p *param) weights() []float64 { return p.value.Data().([]float64) }
func (p *param) setGrad(g ...float64) { copy(p.grad.Data().([]float64), g) }

func TestAdamStep(t *testing.T) {
	s, err := NewDefaultAdam(0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	adam := s.Create()

	p := newParam([]float64{1, -1}, []float64{2, -2})
	if err := adam.Step([]G.ValueGrad{p}); err != nil {
		t.Fatal(err)
	}

	// The first bias corrected Adam step moves each weight by the step
	// size against the sign of its gradient
	want := []float64{0.9, -0.9}
	for i, w := range p.weights() {
		if math.Abs(w-want[i]) > 1e-6 {
			t.Errorf("weight %v: want(%v) have(%v)", i, want[i], w)
		}
	}

	for _, g := range p.grad.Data().([]float64) {
		if g != 0 {
			t.Error("gradient not zeroed after step")
		}
	}
}

func TestAdamResume(t *testing.T) {
	s, _ := NewDefaultAdam(0.01, 1)
	grads := [][]float64{{1, 2}, {-0.5, 3}, {2, 2}}

	// Uninterrupted
	full := s.Create()
	a := newParam([]float64{0, 0}, []float64{0, 0})
	for _, g := range grads {
		a.setGrad(g...)
		if err := full.Step([]G.ValueGrad{a}); err != nil {
			t.Fatal(err)
		}
	}

	// Checkpointed after the first two steps
	first := s.Create()
	b := newParam([]float64{0, 0}, []float64{0, 0})
	for _, g := range grads[:2] {
		b.setGrad(g...)
		first.Step([]G.ValueGrad{b})
	}
	data, err := first.(Stateful).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	resumed := s.Create()
	if err := resumed.(Stateful).UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	b.setGrad(grads[2]...)
	if err := resumed.Step([]G.ValueGrad{b}); err != nil {
		t.Fatal(err)
	}

	for i := range a.weights() {
		if a.weights()[i] != b.weights()[i] {
			t.Errorf("resumed solver diverged at %v: want(%v) have(%v)", i,
				a.weights()[i], b.weights()[i])
		}
	}
}

func TestAdamModelMismatch(t *testing.T) {
	s, _ := NewDefaultAdam(0.01, 1)
	adam := s.Create()

	p := newParam([]float64{0}, []float64{1})
	adam.Step([]G.ValueGrad{p})

	q := newParam([]float64{0}, []float64{1})
	if err := adam.Step([]G.ValueGrad{p, q}); err == nil {
		t.Error("expected error stepping a different model")
	}
}

func TestNewAdamInvalid(t *testing.T) {
	if _, err := NewAdam(0, 1e-8, 0.9, 0.999, 1); err == nil {
		t.Error("expected error for zero step size")
	}
	if _, err := NewAdam(0.1, 1e-8, 1, 0.999, 1); err == nil {
		t.Error("expected error for beta1 = 1")
	}
}

func TestJSON(t *testing.T) {
	data := []byte(`{"Type": "Adam", "Config": {"StepSize": 0.001,
		"Epsilon": 1e-8, "Beta1": 0.9, "Beta2": 0.999, "Batch": 1}}`)

	var s Solver
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s.Type != Adam || s.LearningRate() != 0.001 {
		t.Errorf("decoded: type(%v) lr(%v)", s.Type, s.LearningRate())
	}
	if _, ok := s.Create().(Stateful); !ok {
		t.Error("adam solver is not stateful")
	}

	data = []byte(`{"Type": "Vanilla", "Config": {"StepSize": 0.5}}`)
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s.Type != Vanilla || s.LearningRate() != 0.5 {
		t.Errorf("decoded: type(%v) lr(%v)", s.Type, s.LearningRate())
	}

	if err := json.Unmarshal([]byte(`{"Type": "LBFGS"}`), &s); err == nil {
		t.Error("expected error for unknown solver")
	}
}
