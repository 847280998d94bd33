// Package network implements feed forward neural networks as Gorgonia
// computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network built on a Gorgonia computational
// graph. The graph of a NeuralNet must be compiled into a VM by the
// caller, who sets the input with SetInput, runs the VM, and then reads
// the output with Output.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node

	// Weights returns a copy of the values of each learnable, in the
	// same order as Learnables
	Weights() [][]float64

	// SetWeights sets the values of each learnable
	SetWeights([][]float64) error
}
