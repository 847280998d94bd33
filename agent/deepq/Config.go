package deepq

import (
	"fmt"

	"github.com/samuelfneumann/trafficrl/agent"
	env "github.com/samuelfneumann/trafficrl/environment"
	"github.com/samuelfneumann/trafficrl/expreplay"
	"github.com/samuelfneumann/trafficrl/initwfn"
	"github.com/samuelfneumann/trafficrl/network"
	"github.com/samuelfneumann/trafficrl/solver"
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	PolicyLayers []int                 // Layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	Gamma float64 // Discount factor

	// Behaviour policy exploration schedule. Epsilon decays
	// multiplicatively by EpsilonDecay once per episode, never below
	// EpsilonMin.
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64

	// Experience replay parameters
	ExpReplay expreplay.Config
	BatchSize int
}

// DefaultConfig returns the default DeepQ configuration: two hidden
// ReLU layers of 64 units trained with Adam.
func DefaultConfig() Config {
	adam, err := solver.NewDefaultAdam(0.001, 1)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: %v", err))
	}

	return Config{
		PolicyLayers: []int{64, 64},
		Biases:       []bool{true, true},
		Activations:  []*network.Activation{network.ReLU(), network.ReLU()},
		Solver:       adam,
		InitWFn:      init,
		Gamma:        0.95,
		Epsilon:      1.0,
		EpsilonMin:   0.01,
		EpsilonDecay: 0.995,
		ExpReplay: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			MaxReplayCapacity: 10000,
		},
		BatchSize: 64,
	}
}

// CreateAgent creates a new DeepQ agent based on the configuration,
// sized for the observation and action spaces of e
func (c Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e.ObservationSpec().Len(), e.ActionSpec().NumActions(), c,
		seed)
}

// Validate checks a Config to ensure it is a valid configuration. The
// returned error, if any, is an *agent.ConfigurationError.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return agent.NewConfigurationError("BatchSize", c.BatchSize,
			"must be positive")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return agent.NewConfigurationError("Gamma", c.Gamma,
			"must be in [0, 1]")
	}
	if c.Epsilon <= 0 || c.Epsilon > 1 {
		return agent.NewConfigurationError("Epsilon", c.Epsilon,
			"must be in (0, 1]")
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return agent.NewConfigurationError("EpsilonMin", c.EpsilonMin,
			"must be in [0, Epsilon]")
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return agent.NewConfigurationError("EpsilonDecay", c.EpsilonDecay,
			"must be in (0, 1]")
	}
	if c.ExpReplay.MaxReplayCapacity <= 0 {
		return agent.NewConfigurationError("ExpReplay.MaxReplayCapacity",
			c.ExpReplay.MaxReplayCapacity, "must be positive")
	}
	if c.ExpReplay.MaxReplayCapacity < c.BatchSize {
		return agent.NewConfigurationError("ExpReplay.MaxReplayCapacity",
			c.ExpReplay.MaxReplayCapacity, "must be at least BatchSize")
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return agent.NewConfigurationError("Activations", len(c.Activations),
			fmt.Sprintf("need one activation per layer (%v layers)",
				len(c.PolicyLayers)))
	}
	if c.Biases != nil && len(c.PolicyLayers) != len(c.Biases) {
		return agent.NewConfigurationError("Biases", len(c.Biases),
			fmt.Sprintf("need one bias per layer (%v layers)",
				len(c.PolicyLayers)))
	}
	for i, size := range c.PolicyLayers {
		if size <= 0 {
			return agent.NewConfigurationError(
				fmt.Sprintf("PolicyLayers[%v]", i), size, "must be positive")
		}
	}
	for i, act := range c.Activations {
		if act == nil {
			return agent.NewConfigurationError(
				fmt.Sprintf("Activations[%v]", i), nil, "must not be nil")
		}
	}
	if c.Solver == nil || c.Solver.Config == nil {
		return agent.NewConfigurationError("Solver", nil, "must be set")
	}
	if batch := solverBatch(c.Solver); batch > 1 {
		return agent.NewConfigurationError("Solver.Batch", batch,
			"must be at most 1, the loss is already a batch mean")
	}
	if c.InitWFn == nil || c.InitWFn.Config == nil {
		return agent.NewConfigurationError("InitWFn", nil, "must be set")
	}
	return nil
}

// solverBatch returns the batch size s divides gradients by
func solverBatch(s *solver.Solver) int {
	switch c := s.Config.(type) {
	case solver.AdamConfig:
		return c.Batch
	case solver.VanillaConfig:
		return c.Batch
	}
	return 0
}

// biases returns the bias flags of each layer; every layer has a bias
// unless specified otherwise
func (c Config) biases() []bool {
	if c.Biases != nil {
		return c.Biases
	}
	biases := make([]bool, len(c.PolicyLayers))
	for i := range biases {
		biases[i] = true
	}
	return biases
}
