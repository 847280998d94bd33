package floatutils

import "testing"

func TestMaxSlice(t *testing.T) {
	tests := []struct {
		in      []float64
		max     float64
		indices []int
	}{
		{[]float64{1}, 1, []int{0}},
		{[]float64{1, 3, 2}, 3, []int{1}},
		{[]float64{3, 1, 3}, 3, []int{0, 2}},
		{[]float64{-1, -1, -1}, -1, []int{0, 1, 2}},
	}

	for _, test := range tests {
		max, indices := MaxSlice(test.in)
		if max != test.max {
			t.Errorf("max of %v: want %v have %v", test.in, test.max, max)
		}
		if len(indices) != len(test.indices) {
			t.Fatalf("indices of %v: want %v have %v", test.in,
				test.indices, indices)
		}
		for i := range indices {
			if indices[i] != test.indices[i] {
				t.Errorf("indices of %v: want %v have %v", test.in,
					test.indices, indices)
			}
		}
	}
}

func TestArgMaxLowestIndex(t *testing.T) {
	if i := ArgMax([]float64{0, 2, 2, 1}); i != 1 {
		t.Errorf("argmax: want 1 have %v", i)
	}
}
