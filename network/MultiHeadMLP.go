package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// multiHeadMLP implements a multi-layered perceptron with multiple
// output nodes, one for each value that should be predicted.
type multiHeadMLP struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for cloning. These describe the hidden
	// layers only; the final linear layer is implicit.
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    *G.Value // shared by copies of the struct
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// that has multiple output nodes, The number of outputs nodes is equal
// to outputs. The graph parameter g is populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// layer is always added such that given any input, the output will
// be outputs. The final layer also contains a bias unit, and bias units
// for each additional hidden layer is specified by biases. The final
// layer will contain no activations, and the activations of additional
// hidden layers is specified by activations. The parameter init
// determines the weight initialization scheme.
//
// The function works such that for index i, hiddenSizes[i] is the
// number of nodes in hidden layer i; biases[i] is true if the
// hidden layer will contain a bias unit and false otherwise; and
// activations[i] is the activation function for hidden layer i.
func NewMultiHeadMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMultiHeadMLP: features, batch, and outputs "+
			"must be positive \n\thave(%v, %v, %v)", features, batch, outputs)
	}

	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMultiHeadMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newMultiHeadMLP: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	for i, size := range hiddenSizes {
		if size < 1 {
			return nil, fmt.Errorf("newMultiHeadMLP: hidden layer %v must "+
				"have at least one unit", i)
		}
		if activations[i] == nil {
			return nil, fmt.Errorf("newMultiHeadMLP: activation %v is nil", i)
		}
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Add a final linear layer with no activation to ensure outputs
	// heads are predicted by the network
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	layerBiases := append(append([]bool{}, biases...), true)
	layerActivations := append(append([]*Activation{}, activations...),
		Identity())

	layers := addfcLayers(g, sizes, layerBiases, layerActivations, init,
		features, "")

	network := multiHeadMLP{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: append([]int{}, hiddenSizes...),
		biases:      append([]bool{}, biases...),
		activations: append([]*Activation{}, activations...),
		predVal:     new(G.Value),
	}

	// Run the forward pass on the input node
	if _, err := network.fwd(input); err != nil {
		msg := "newMultiHeadMLP: could not compute forward pass: %v"
		return nil, fmt.Errorf(msg, err)
	}

	return &network, nil
}

// Graph returns the computational graph of the multiHeadMLP.
func (e *multiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones a multiHeadMLP
func (e *multiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones a multiHeadMLP to a new computational graph
// with a new input batch size. The weights of the clone are copies of
// the weights of e; the two networks share no memory.
func (e *multiHeadMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	clone, err := NewMultiHeadMLP(e.numInputs, batchSize, e.numOutputs,
		G.NewGraph(), e.hiddenSizes, e.biases, G.Zeroes(), e.activations)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}

	if err := clone.Set(e); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not copy weights: %v",
			err)
	}
	return clone, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *multiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *multiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *multiHeadMLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass. The input is copied.
func (e *multiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(append([]float64(nil), input...)),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of a multiHeadMLP to be equal to the
// weights of another NeuralNet. Weights are copied in place.
func (dest *multiHeadMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: incompatible networks \n\twant(%v learnables)"+
			"\n\thave(%v learnables)", len(nodes), len(sourceNodes))
	}

	for i := range nodes {
		destWeights, sourceWeights, err := pair(nodes[i], sourceNodes[i])
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		copy(destWeights, sourceWeights)
	}
	return nil
}

// pair returns the backing data of two learnables, ensuring they have
// the same shape
func pair(dest, source *G.Node) ([]float64, []float64, error) {
	if !dest.Shape().Eq(source.Shape()) {
		return nil, nil, fmt.Errorf("learnable %v has incompatible shape "+
			"\n\twant(%v) \n\thave(%v)", dest.Name(), dest.Shape(),
			source.Shape())
	}
	destWeights, ok := dest.Value().Data().([]float64)
	if !ok {
		return nil, nil, fmt.Errorf("learnable %v is not float64", dest.Name())
	}
	sourceWeights, ok := source.Value().Data().([]float64)
	if !ok {
		return nil, nil, fmt.Errorf("learnable %v is not float64",
			source.Name())
	}
	return destWeights, sourceWeights, nil
}

// Weights returns a copy of the weights of each learnable
func (e *multiHeadMLP) Weights() [][]float64 {
	nodes := e.Learnables()
	weights := make([][]float64, len(nodes))
	for i, node := range nodes {
		weights[i] = append([]float64(nil), node.Value().Data().([]float64)...)
	}
	return weights
}

// SetWeights sets the weights of each learnable. The weights are
// copied.
func (e *multiHeadMLP) SetWeights(weights [][]float64) error {
	nodes := e.Learnables()
	if len(weights) != len(nodes) {
		return fmt.Errorf("setWeights: invalid number of learnables "+
			"\n\twant(%v) \n\thave(%v)", len(nodes), len(weights))
	}

	for i, node := range nodes {
		data := node.Value().Data().([]float64)
		if len(weights[i]) != len(data) {
			return fmt.Errorf("setWeights: invalid size for learnable %v"+
				"\n\twant(%v) \n\thave(%v)", i, len(data), len(weights[i]))
		}
	}
	for i, node := range nodes {
		copy(node.Value().Data().([]float64), weights[i])
	}
	return nil
}

// Learnables returns the learnable nodes in a multiHeadMLP
func (m *multiHeadMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if m.learnables == nil {
		m.learnables = m.computeLearnables()
	}
	return m.learnables
}

// computeLearnables computes all the learnables for the network
func (e *multiHeadMLP) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		learnables = append(learnables, e.layers[i].Weights())
		if bias := e.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnables nodes with their gradients.
func (m *multiHeadMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if m.model == nil {
		m.model = m.computeModel()
	}
	return m.model
}

// computeModel computes the model for the network
func (e *multiHeadMLP) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(e.layers))
	for _, node := range e.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the multiHeadMLP on the input
// node
func (e *multiHeadMLP) fwd(input *G.Node) (*G.Node, error) {
	inputShape := input.Shape()[len(input.Shape())-1]
	if inputShape%e.numInputs != 0 {
		return nil, fmt.Errorf("fwd: invalid shape for input to neural net:"+
			" \n\twant(%v) \n\thave(%v)", e.numInputs, inputShape)
	}

	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, e.predVal)

	return pred, nil
}

// Output returns the output of the multiHeadMLP. The output is only
// valid after the graph has been run.
func (e *multiHeadMLP) Output() G.Value {
	return *e.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the multiHeadMLP
func (e *multiHeadMLP) Prediction() *G.Node {
	return e.prediction
}
