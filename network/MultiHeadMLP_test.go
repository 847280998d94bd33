package network

import (
	"encoding/json"
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

// predict runs the forward pass of net on input
func predict(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	if err := net.SetInput(input); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	out := append([]float64(nil), net.Output().Data().([]float64)...)
	vm.Reset()
	return out
}

func newTestNet(t *testing.T, batch int, init G.InitWFn) NeuralNet {
	t.Helper()

	net, err := NewMultiHeadMLP(2, batch, 2, G.NewGraph(), []int{3},
		[]bool{true}, init, []*Activation{ReLU()})
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestForward(t *testing.T) {
	net := newTestNet(t, 1, G.ValuesOf(0.5))

	// hidden = relu(0.5 + 1.0 + 0.5) = 2 for each of 3 units
	// output = 3 * 2 * 0.5 + 0.5
	out := predict(t, net, []float64{1, 2})
	if len(out) != 2 {
		t.Fatalf("outputs: want(2) have(%v)", len(out))
	}
	for i, o := range out {
		if math.Abs(o-3.5) > 1e-9 {
			t.Errorf("output %v: want(3.5) have(%v)", i, o)
		}
	}

	if len(net.Learnables()) != 4 {
		t.Errorf("learnables: want(4) have(%v)", len(net.Learnables()))
	}
}

func TestCloneWithBatch(t *testing.T) {
	net := newTestNet(t, 1, G.ValuesOf(0.5))

	clone, err := net.CloneWithBatch(3)
	if err != nil {
		t.Fatal(err)
	}
	if clone.BatchSize() != 3 || clone.Features() != 2 || clone.Outputs() != 2 {
		t.Fatalf("clone: batch(%v) features(%v) outputs(%v)",
			clone.BatchSize(), clone.Features(), clone.Outputs())
	}

	out := predict(t, clone, []float64{1, 2, 1, 2, 0, 0})
	for i := 0; i < 4; i++ {
		if math.Abs(out[i]-3.5) > 1e-9 {
			t.Errorf("output %v: want(3.5) have(%v)", i, out[i])
		}
	}

	// Clones share no memory
	weights := clone.Weights()
	weights[0][0] = 10
	if err := clone.SetWeights(weights); err != nil {
		t.Fatal(err)
	}
	if net.Weights()[0][0] != 0.5 {
		t.Error("modifying clone modified source network")
	}
}

func TestSet(t *testing.T) {
	source := newTestNet(t, 1, G.ValuesOf(1.0))
	dest := newTestNet(t, 1, G.Zeroes())

	if err := dest.Set(source); err != nil {
		t.Fatal(err)
	}
	for _, w := range dest.Weights() {
		for _, v := range w {
			if v != 1 {
				t.Fatalf("set: want(1) have(%v)", v)
			}
		}
	}

	other, _ := NewMultiHeadMLP(2, 1, 2, G.NewGraph(), []int{4},
		[]bool{true}, G.Zeroes(), []*Activation{ReLU()})
	if err := dest.Set(other); err == nil {
		t.Error("expected error setting from network of different shape")
	}
}

func TestSetWeightsInvalid(t *testing.T) {
	net := newTestNet(t, 1, G.Zeroes())

	weights := net.Weights()
	if err := net.SetWeights(weights[:1]); err == nil {
		t.Error("expected error for missing learnables")
	}

	weights[1] = weights[1][:1]
	if err := net.SetWeights(weights); err == nil {
		t.Error("expected error for wrong learnable size")
	}
}

func TestInvalidArchitecture(t *testing.T) {
	if _, err := NewMultiHeadMLP(2, 1, 2, G.NewGraph(), []int{3},
		[]bool{true, false}, G.Zeroes(), []*Activation{ReLU()}); err == nil {
		t.Error("expected error for mismatched biases")
	}
	if _, err := NewMultiHeadMLP(2, 1, 0, G.NewGraph(), nil, nil,
		G.Zeroes(), nil); err == nil {
		t.Error("expected error for zero outputs")
	}
}

func TestActivationJSON(t *testing.T) {
	var acts []*Activation
	if err := json.Unmarshal([]byte(`["relu", "tanh", "identity"]`),
		&acts); err != nil {
		t.Fatal(err)
	}
	if len(acts) != 3 || acts[0].String() != "relu" || !acts[2].IsIdentity() {
		t.Errorf("decoded activations: %v", acts)
	}

	data, err := json.Marshal(acts)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["relu","tanh","identity"]` {
		t.Errorf("encoded activations: %s", data)
	}

	if err := json.Unmarshal([]byte(`["softmax"]`), &acts); err == nil {
		t.Error("expected error for unknown activation")
	}
}
