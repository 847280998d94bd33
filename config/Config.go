// Package config implements the JSON configuration of a training run:
// the intersection, its simulation, the agent and the training
// schedule. Configurations are loaded on top of the defaults, so a
// configuration file need only list the fields it changes.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/samuelfneumann/trafficrl/agent"
	"github.com/samuelfneumann/trafficrl/agent/deepq"
	"github.com/samuelfneumann/trafficrl/environment/traffic"
	"github.com/samuelfneumann/trafficrl/experiment"
)

// Config represents the configuration of a training run
type Config struct {
	Seed        uint64
	Environment traffic.Config
	Simulation  traffic.SyntheticConfig
	Agent       deepq.Config
	Training    Training
}

// Training configures the training schedule and the evaluation which
// follows it
type Training struct {
	experiment.Config
	EvalEpisodes    int // Episodes of greedy evaluation after training
	BaselineCycle   int // Steps each phase is held by the fixed-time baseline
	CheckpointEvery int // Episodes between agent checkpoints, 0 for none
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Seed:        1,
		Environment: traffic.DefaultConfig(),
		Simulation:  traffic.DefaultSyntheticConfig(),
		Agent:       deepq.DefaultConfig(),
		Training: Training{
			Config: experiment.Config{
				Episodes:             100,
				TargetUpdateInterval: 10,
				PrintEvery:           10,
			},
			EvalEpisodes:  20,
			BaselineCycle: 20,
		},
	}
}

// Load loads a configuration from a JSON file. Fields missing from the
// file keep their default values; maps, such as the green edges of each
// phase, are merged with the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v: %w", path, err)
	}
	return c, nil
}

// Decode decodes a JSON configuration from r on top of the defaults
// and validates it. Unknown fields are rejected.
func Decode(r io.Reader) (Config, error) {
	c := Default()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	return c, nil
}

// Encode writes c to w as indented JSON
func (c Config) Encode(w io.Writer) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c Config) Validate() error {
	if err := c.Environment.Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}

	edges := make(map[string]bool, len(c.Simulation.Edges))
	for _, edge := range c.Simulation.Edges {
		edges[edge] = true
	}
	for _, edge := range c.Environment.IncomingEdges {
		if !edges[edge] {
			return agent.NewConfigurationError("Environment.IncomingEdges",
				edge, "edge is not simulated")
		}
	}
	for _, phase := range c.Environment.Phases {
		if _, ok := c.Simulation.GreenEdges[phase]; !ok {
			return agent.NewConfigurationError("Environment.Phases", phase,
				"phase is not simulated")
		}
	}
	return nil
}

// Validate returns an error describing whether or not the training
// configuration is valid
func (t Training) Validate() error {
	if err := t.Config.Validate(); err != nil {
		return err
	}
	if t.EvalEpisodes <= 0 {
		return agent.NewConfigurationError("EvalEpisodes", t.EvalEpisodes,
			"must be positive")
	}
	if t.BaselineCycle <= 0 {
		return agent.NewConfigurationError("BaselineCycle", t.BaselineCycle,
			"must be positive")
	}
	if t.CheckpointEvery < 0 {
		return agent.NewConfigurationError("CheckpointEvery",
			t.CheckpointEvery, "must be non-negative")
	}
	return nil
}

// CreateEnvironment creates the intersection described by c. The
// intersection runs the synthetic simulation, holding at most one
// simulation at a time.
func (c Config) CreateEnvironment(logger *log.Logger) (*traffic.Intersection,
	error) {
	launcher := traffic.NewExclusive(
		traffic.NewSyntheticLauncher(c.Simulation, c.Seed), true)

	e, err := traffic.New(launcher, c.Environment, logger)
	if err != nil {
		return nil, fmt.Errorf("createEnvironment: %w", err)
	}
	return e, nil
}

// CreateAgent creates the agent described by c for the environment e
func (c Config) CreateAgent(e *traffic.Intersection) (*deepq.DeepQ, error) {
	a, err := deepq.New(e.ObservationSpec().Len(), e.ActionSpec().NumActions(),
		c.Agent, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %w", err)
	}
	return a, nil
}
