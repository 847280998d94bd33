// Package deepq implements the deep Q-learning algorithm with an
// experience replay buffer and a target network
package deepq

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/trafficrl/agent"
	"github.com/samuelfneumann/trafficrl/expreplay"
	ts "github.com/samuelfneumann/trafficrl/timestep"
	"github.com/samuelfneumann/trafficrl/utils/floatutils"
)

// DeepQ implements the deep Q-learning algorithm. Actions are selected
// ε-greedily with respect to the online action values, and the update
// target of each transition is computed from the target parameters:
//
//	y = r + (1 - done) * γ * max_a' Q_target(s', a')
//
// The target parameters are only updated when SyncTarget is called.
type DeepQ struct {
	vf     *ValueFunction
	replay expreplay.ExperienceReplayer
	rng    *rand.Rand

	numActions int
	batchSize  int
	gamma      float64

	epsilon      float64
	epsilonMin   float64
	epsilonDecay float64

	losses []float64
}

// New creates and returns a new DeepQ agent for states with features
// features and numActions discrete actions. All randomness, including
// weight initialization, is derived from seed.
func New(features, numActions int, config Config, seed uint64) (*DeepQ,
	error) {
	if numActions <= 0 {
		return nil, agent.NewConfigurationError("numActions", numActions,
			"must be positive")
	}
	if features <= 0 {
		return nil, agent.NewConfigurationError("features", features,
			"must be positive")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	vf, err := NewValueFunction(
		features,
		numActions,
		config.BatchSize,
		config.PolicyLayers,
		config.biases(),
		config.Activations,
		config.InitWFn.InitWFn(seed),
		config.Solver.Create(),
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create value function: %v", err)
	}

	replay, err := config.ExpReplay.Create(features, seed+1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	return &DeepQ{
		vf:           vf,
		replay:       replay,
		rng:          rand.New(rand.NewSource(seed + 2)),
		numActions:   numActions,
		batchSize:    config.BatchSize,
		gamma:        config.Gamma,
		epsilon:      config.Epsilon,
		epsilonMin:   config.EpsilonMin,
		epsilonDecay: config.EpsilonDecay,
	}, nil
}

// SelectAction selects an action in state. When exploring, a uniformly
// random action is selected with probability ε. Otherwise, the action
// with the highest online value is selected, with ties broken in favour
// of the lowest action index.
func (d *DeepQ) SelectAction(state mat.Vector, exploring bool) (int, error) {
	if state.Len() != d.vf.Features() {
		return 0, fmt.Errorf("selectAction: invalid state size \n\twant(%v)"+
			"\n\thave(%v)", d.vf.Features(), state.Len())
	}

	if exploring && d.rng.Float64() < d.epsilon {
		return d.rng.Intn(d.numActions), nil
	}

	values, err := d.vf.Evaluate(mat.Col(nil, 0, state))
	if err != nil {
		return 0, fmt.Errorf("selectAction: %v", err)
	}
	return floatutils.ArgMax(values), nil
}

// Greedy returns the greedy policy with respect to the agent's online
// action values
func (d *DeepQ) Greedy() agent.Policy {
	return agent.PolicyFunc(func(t ts.TimeStep) (int, error) {
		return d.SelectAction(t.Observation, false)
	})
}

// StoreTransition adds a transition to the experience replay buffer
func (d *DeepQ) StoreTransition(t ts.Transition) error {
	if t.Action < 0 || t.Action >= d.numActions {
		return fmt.Errorf("storeTransition: action %v out of range [0, %v)",
			t.Action, d.numActions)
	}
	if err := d.replay.Add(t); err != nil {
		return fmt.Errorf("storeTransition: %v", err)
	}
	return nil
}

// Optimize takes a single gradient step on a batch of transitions
// sampled from the replay buffer and returns the loss. If the replay
// buffer holds fewer transitions than the batch size, Optimize does
// nothing and returns ok == false.
func (d *DeepQ) Optimize() (float64, bool, error) {
	if d.replay.Len() < d.batchSize {
		return 0, false, nil
	}

	states, actions, rewards, nextStates, dones, err :=
		d.replay.Sample(d.batchSize)
	if expreplay.IsInsufficientSamples(err) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("optimize: %v", err)
	}

	nextValues, err := d.vf.EvaluateTargetBatch(nextStates)
	if err != nil {
		return 0, false, fmt.Errorf("optimize: %v", err)
	}
	targets := BootstrapTargets(rewards, dones, nextValues, d.numActions,
		d.gamma)

	loss, err := d.vf.ApplyGradientStep(states, actions, targets)
	if err != nil {
		return 0, false, fmt.Errorf("optimize: %v", err)
	}
	d.losses = append(d.losses, loss)

	return loss, true, nil
}

// BootstrapTargets computes the update targets of a batch of
// transitions:
//
//	y_i = r_i + (1 - done_i) * γ * max_a' nextValues[i, a']
//
// nextValues holds the action values of each next state in row major
// order.
func BootstrapTargets(rewards []float64, dones []bool, nextValues []float64,
	numActions int, gamma float64) []float64 {
	targets := make([]float64, len(rewards))
	for i, r := range rewards {
		targets[i] = r
		if dones[i] {
			continue
		}
		next := nextValues[i*numActions : (i+1)*numActions]
		targets[i] += gamma * floats.Max(next)
	}
	return targets
}

// DecayExploration decays ε multiplicatively, never below its minimum
func (d *DeepQ) DecayExploration() {
	d.epsilon = math.Max(d.epsilonMin, d.epsilon*d.epsilonDecay)
}

// SyncTarget copies the online parameters to the target parameters
func (d *DeepQ) SyncTarget() error {
	return d.vf.SnapshotToTarget()
}

// Epsilon returns the current exploration rate
func (d *DeepQ) Epsilon() float64 {
	return d.epsilon
}

// Losses returns the loss of each gradient step taken so far
func (d *DeepQ) Losses() []float64 {
	return append([]float64(nil), d.losses...)
}

// BufferLen returns the number of transitions in the replay buffer
func (d *DeepQ) BufferLen() int {
	return d.replay.Len()
}

// ValueFunction returns the agent's action value function
func (d *DeepQ) ValueFunction() *ValueFunction {
	return d.vf
}

// Close releases the resources held by the agent
func (d *DeepQ) Close() error {
	return d.vf.Close()
}
