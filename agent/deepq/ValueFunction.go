package deepq

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/trafficrl/network"
	"github.com/samuelfneumann/trafficrl/solver"
)

// ValueFunction approximates the action values of each discrete action
// in a state. It holds two parameter sets: the online parameters,
// which are trained, and the target parameters, which only change
// when SnapshotToTarget is called.
//
// Gorgonia graphs have fixed batch sizes, so each parameter set is
// held by two networks: one taking a single state and one taking a
// batch of states. The batched online network holds the trained
// weights and computes the loss.
type ValueFunction struct {
	online   network.NeuralNet
	onlineVM G.VM

	train      network.NeuralNet
	trainVM    G.VM
	actionMask *G.Node // One-hot encoding of the actions taken
	targets    *G.Node // Update targets of the actions taken
	lossVal    G.Value

	target   network.NeuralNet
	targetVM G.VM

	targetBatch   network.NeuralNet
	targetBatchVM G.VM

	solver G.Solver

	features   int
	numActions int
	batchSize  int
}

// NewValueFunction returns a new ValueFunction mapping states with
// features features to numActions action values. Gradient steps are
// taken on batches of batchSize transitions using s. The target
// parameters start as an exact copy of the online parameters.
func NewValueFunction(features, numActions, batchSize int, hiddenSizes []int,
	biases []bool, activations []*network.Activation, init G.InitWFn,
	s G.Solver) (*ValueFunction, error) {
	if s == nil {
		return nil, fmt.Errorf("newValueFunction: nil solver")
	}

	online, err := network.NewMultiHeadMLP(features, 1, numActions,
		G.NewGraph(), hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("newValueFunction: could not create online "+
			"network: %v", err)
	}

	train, err := online.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newValueFunction: could not create training "+
			"network: %v", err)
	}
	target, err := online.Clone()
	if err != nil {
		return nil, fmt.Errorf("newValueFunction: could not create target "+
			"network: %v", err)
	}
	targetBatch, err := online.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newValueFunction: could not create batch "+
			"target network: %v", err)
	}

	// Compute the mean squared error between the update targets and
	// the predicted values of the actions taken
	gTrain := train.Graph()
	actionMask := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize, numActions),
		G.WithName("actionMask"),
		G.WithInit(G.Zeroes()),
	)
	targets := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize),
		G.WithName("targets"),
		G.WithInit(G.Zeroes()),
	)

	selected := G.Must(G.HadamardProd(train.Prediction(), actionMask))
	selected = G.Must(G.Sum(selected, 1))
	losses := G.Must(G.Sub(targets, selected))
	losses = G.Must(G.Square(losses))
	loss := G.Must(G.Mean(losses))

	v := &ValueFunction{
		online:        online,
		onlineVM:      G.NewTapeMachine(online.Graph()),
		train:         train,
		actionMask:    actionMask,
		targets:       targets,
		target:        target,
		targetVM:      G.NewTapeMachine(target.Graph()),
		targetBatch:   targetBatch,
		targetBatchVM: G.NewTapeMachine(targetBatch.Graph()),
		solver:        s,
		features:      features,
		numActions:    numActions,
		batchSize:     batchSize,
	}
	G.Read(loss, &v.lossVal)

	if _, err := G.Grad(loss, train.Learnables()...); err != nil {
		return nil, fmt.Errorf("newValueFunction: could not compute "+
			"gradient: %v", err)
	}
	v.trainVM = G.NewTapeMachine(gTrain, G.BindDualValues(train.Learnables()...))

	return v, nil
}

// Features returns the length of state vectors
func (v *ValueFunction) Features() int {
	return v.features
}

// NumActions returns the number of action values predicted per state
func (v *ValueFunction) NumActions() int {
	return v.numActions
}

// BatchSize returns the number of transitions in each gradient step
func (v *ValueFunction) BatchSize() int {
	return v.batchSize
}

// Evaluate returns the action values of state under the online
// parameters
func (v *ValueFunction) Evaluate(state []float64) ([]float64, error) {
	values, err := run(v.online, v.onlineVM, state)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %v", err)
	}
	return values, nil
}

// EvaluateTarget returns the action values of state under the target
// parameters
func (v *ValueFunction) EvaluateTarget(state []float64) ([]float64, error) {
	values, err := run(v.target, v.targetVM, state)
	if err != nil {
		return nil, fmt.Errorf("evaluateTarget: %v", err)
	}
	return values, nil
}

// EvaluateTargetBatch returns the action values of a batch of states
// under the target parameters. States are given in row major order and
// the action values of state i are returned at
// [i*NumActions(), (i+1)*NumActions()).
func (v *ValueFunction) EvaluateTargetBatch(states []float64) ([]float64,
	error) {
	values, err := run(v.targetBatch, v.targetBatchVM, states)
	if err != nil {
		return nil, fmt.Errorf("evaluateTargetBatch: %v", err)
	}
	return values, nil
}

// run runs the forward pass of net on input and returns a copy of the
// output
func run(net network.NeuralNet, vm G.VM, input []float64) ([]float64, error) {
	if err := net.SetInput(input); err != nil {
		return nil, err
	}
	defer vm.Reset()

	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("could not run forward pass: %v", err)
	}
	output, ok := net.Output().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", net.Output().Data())
	}
	return append([]float64(nil), output...), nil
}

// ApplyGradientStep takes a single gradient step on the online
// parameters, minimizing the mean squared error between targets and
// the predicted values of actions in states. The targets are treated
// as constants. The loss before the step is returned.
func (v *ValueFunction) ApplyGradientStep(states []float64, actions []int,
	targets []float64) (float64, error) {
	if len(actions) != v.batchSize || len(targets) != v.batchSize {
		return 0, fmt.Errorf("applyGradientStep: invalid batch size "+
			"\n\twant(%v) \n\thave(%v actions, %v targets)", v.batchSize,
			len(actions), len(targets))
	}

	mask := make([]float64, v.batchSize*v.numActions)
	for i, a := range actions {
		if a < 0 || a >= v.numActions {
			return 0, fmt.Errorf("applyGradientStep: action %v out of range "+
				"[0, %v)", a, v.numActions)
		}
		mask[i*v.numActions+a] = 1.0
	}

	if err := v.train.SetInput(states); err != nil {
		return 0, fmt.Errorf("applyGradientStep: %v", err)
	}
	maskTensor := tensor.New(
		tensor.WithShape(v.batchSize, v.numActions),
		tensor.WithBacking(mask),
	)
	if err := G.Let(v.actionMask, maskTensor); err != nil {
		return 0, fmt.Errorf("applyGradientStep: could not set actions: %v",
			err)
	}
	targetTensor := tensor.New(
		tensor.WithShape(v.batchSize),
		tensor.WithBacking(append([]float64(nil), targets...)),
	)
	if err := G.Let(v.targets, targetTensor); err != nil {
		return 0, fmt.Errorf("applyGradientStep: could not set targets: %v",
			err)
	}

	defer v.trainVM.Reset()
	if err := v.trainVM.RunAll(); err != nil {
		return 0, fmt.Errorf("applyGradientStep: could not compute "+
			"gradient: %v", err)
	}
	loss, err := scalar(v.lossVal)
	if err != nil {
		return 0, fmt.Errorf("applyGradientStep: %v", err)
	}

	if err := v.solver.Step(v.train.Model()); err != nil {
		return 0, fmt.Errorf("applyGradientStep: could not step solver: %v",
			err)
	}

	if err := v.online.Set(v.train); err != nil {
		return 0, fmt.Errorf("applyGradientStep: could not sync online "+
			"network: %v", err)
	}
	return loss, nil
}

// scalar returns the single float64 held by val
func scalar(val G.Value) (float64, error) {
	if val == nil {
		return 0, fmt.Errorf("loss was not computed")
	}
	switch data := val.Data().(type) {
	case float64:
		return data, nil
	case []float64:
		if len(data) == 1 {
			return data[0], nil
		}
	}
	return 0, fmt.Errorf("loss is not a scalar: %v", val)
}

// SnapshotToTarget copies the online parameters to the target
// parameters
func (v *ValueFunction) SnapshotToTarget() error {
	if err := v.target.Set(v.train); err != nil {
		return fmt.Errorf("snapshotToTarget: %v", err)
	}
	if err := v.targetBatch.Set(v.train); err != nil {
		return fmt.Errorf("snapshotToTarget: %v", err)
	}
	return nil
}

// OnlineWeights returns a copy of the online parameters
func (v *ValueFunction) OnlineWeights() [][]float64 {
	return v.train.Weights()
}

// TargetWeights returns a copy of the target parameters
func (v *ValueFunction) TargetWeights() [][]float64 {
	return v.target.Weights()
}

// valueFunctionData is the serialized form of a ValueFunction
type valueFunctionData struct {
	Features   int
	NumActions int
	Online     [][]float64
	Target     [][]float64
	Solver     []byte // Empty if the solver is stateless
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
// Both parameter sets and the solver state are serialized.
func (v *ValueFunction) MarshalBinary() ([]byte, error) {
	data := valueFunctionData{
		Features:   v.features,
		NumActions: v.numActions,
		Online:     v.OnlineWeights(),
		Target:     v.TargetWeights(),
	}

	if s, ok := v.solver.(solver.Stateful); ok {
		state, err := s.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshalBinary: could not serialize "+
				"solver: %v", err)
		}
		data.Solver = state
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("marshalBinary: %v", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
// The serialized ValueFunction must have the same architecture as v.
func (v *ValueFunction) UnmarshalBinary(in []byte) error {
	var data valueFunctionData
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&data); err != nil {
		return fmt.Errorf("unmarshalBinary: %v", err)
	}

	if data.Features != v.features || data.NumActions != v.numActions {
		return fmt.Errorf("unmarshalBinary: incompatible value function "+
			"\n\twant(%v features, %v actions) \n\thave(%v features, "+
			"%v actions)", v.features, v.numActions, data.Features,
			data.NumActions)
	}

	// Validate everything before modifying any weights
	if err := compatible(v.train.Weights(), data.Online); err != nil {
		return fmt.Errorf("unmarshalBinary: online parameters: %v", err)
	}
	if err := compatible(v.target.Weights(), data.Target); err != nil {
		return fmt.Errorf("unmarshalBinary: target parameters: %v", err)
	}

	if s, ok := v.solver.(solver.Stateful); ok && len(data.Solver) > 0 {
		if err := s.UnmarshalBinary(data.Solver); err != nil {
			return fmt.Errorf("unmarshalBinary: %v", err)
		}
	}

	for _, net := range []network.NeuralNet{v.train, v.online} {
		if err := net.SetWeights(data.Online); err != nil {
			return fmt.Errorf("unmarshalBinary: %v", err)
		}
	}
	for _, net := range []network.NeuralNet{v.target, v.targetBatch} {
		if err := net.SetWeights(data.Target); err != nil {
			return fmt.Errorf("unmarshalBinary: %v", err)
		}
	}
	return nil
}

// compatible returns an error if weights cannot be set from other
func compatible(weights, other [][]float64) error {
	if len(weights) != len(other) {
		return fmt.Errorf("want %v learnables, have %v", len(weights),
			len(other))
	}
	for i := range weights {
		if len(weights[i]) != len(other[i]) {
			return fmt.Errorf("learnable %v: want size %v, have %v", i,
				len(weights[i]), len(other[i]))
		}
	}
	return nil
}

// Close closes all VMs used by the ValueFunction
func (v *ValueFunction) Close() error {
	var first error
	for _, vm := range []G.VM{v.onlineVM, v.trainVM, v.targetVM,
		v.targetBatchVM} {
		if err := vm.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
