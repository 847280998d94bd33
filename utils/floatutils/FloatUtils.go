// Package floatutils provides utilities for working with floats
package floatutils

// MaxSlice returns the maximum of values and every index at which it
// occurs, in increasing order. MaxSlice panics if values is empty.
func MaxSlice(values []float64) (max float64, indices []int) {
	max = values[0]
	for _, value := range values[1:] {
		if value > max {
			max = value
		}
	}

	for i, value := range values {
		if value == max {
			indices = append(indices, i)
		}
	}
	return max, indices
}

// ArgMax returns the lowest index of the maximum value in values, so
// ties are always broken towards the first action
func ArgMax(values []float64) int {
	_, indices := MaxSlice(values)
	if len(indices) == 0 {
		// values[0] is NaN
		return 0
	}
	return indices[0]
}
