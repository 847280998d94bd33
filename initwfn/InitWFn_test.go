package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"gorgonia.org/tensor"
)

func TestSeeded(t *testing.T) {
	init, err := NewGlorotU(1.0)
	if err != nil {
		t.Fatal(err)
	}

	a := init.InitWFn(3)(tensor.Float64, 4, 8).([]float64)
	b := init.InitWFn(3)(tensor.Float64, 4, 8).([]float64)
	c := init.InitWFn(4)(tensor.Float64, 4, 8).([]float64)

	if len(a) != 32 {
		t.Fatalf("size: want(32) have(%v)", len(a))
	}

	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different weights at %v", i)
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical weights")
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name  string
		init  func() (*InitWFn, error)
		bound float64
	}{
		{"GlorotU", func() (*InitWFn, error) { return NewGlorotU(1) },
			math.Sqrt(6.0 / 12.0)},
		{"HeU", func() (*InitWFn, error) { return NewHeU(2) },
			2 * math.Sqrt(6.0/4.0)},
		{"Uniform", func() (*InitWFn, error) { return NewUniform(-0.1, 0.1) },
			0.1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			init, err := test.init()
			if err != nil {
				t.Fatal(err)
			}
			weights := init.InitWFn(1)(tensor.Float64, 4, 8).([]float64)
			for _, w := range weights {
				if math.Abs(w) > test.bound {
					t.Fatalf("weight %v outside bound %v", w, test.bound)
				}
			}
		})
	}
}

func TestConstant(t *testing.T) {
	zeroes, _ := NewZeroes()
	for _, w := range zeroes.InitWFn(0)(tensor.Float64, 2, 3).([]float64) {
		if w != 0 {
			t.Fatalf("zeroes: have(%v)", w)
		}
	}

	constant, _ := NewConstant(0.5)
	weights := constant.InitWFn(0)(tensor.Float64, 2, 3).([]float64)
	if len(weights) != 6 {
		t.Fatalf("constant size: want(6) have(%v)", len(weights))
	}
	for _, w := range weights {
		if w != 0.5 {
			t.Fatalf("constant: want(0.5) have(%v)", w)
		}
	}
}

func TestJSON(t *testing.T) {
	init, _ := NewHeU(1.5)
	data, err := json.Marshal(init)
	if err != nil {
		t.Fatal(err)
	}

	var decoded InitWFn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != HeU {
		t.Errorf("type: want(%v) have(%v)", HeU, decoded.Type)
	}
	if c, ok := decoded.Config.(HeUConfig); !ok || c.Gain != 1.5 {
		t.Errorf("config: have(%v)", decoded.Config)
	}

	if err := json.Unmarshal([]byte(`{"Type": "Orthogonal"}`),
		&decoded); err == nil {
		t.Error("expected error decoding unknown type")
	}

	if err := json.Unmarshal([]byte(`{"Type": "Zeroes"}`),
		&decoded); err != nil || decoded.Type != Zeroes {
		t.Errorf("zeroes without config: type(%v) err(%v)", decoded.Type, err)
	}
}
