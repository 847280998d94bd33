package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/trafficrl/agent"
	"github.com/samuelfneumann/trafficrl/environment/traffic"
	"github.com/samuelfneumann/trafficrl/initwfn"
	"github.com/samuelfneumann/trafficrl/solver"
)

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}

	env := c.Environment
	if env.DecisionInterval != 5 || env.MaxSteps != 1000 ||
		env.CongestionThreshold != 15 || env.CongestionPenalty != 10 {
		t.Errorf("environment defaults: %+v", env)
	}

	a := c.Agent
	if a.Gamma != 0.95 || a.Epsilon != 1 || a.EpsilonMin != 0.01 ||
		a.EpsilonDecay != 0.995 || a.BatchSize != 64 ||
		a.ExpReplay.MaxReplayCapacity != 10000 {
		t.Errorf("agent defaults: %+v", a)
	}
	if a.Solver.LearningRate() != 0.001 {
		t.Errorf("learning rate: want(0.001) have(%v)", a.Solver.LearningRate())
	}

	tr := c.Training
	if tr.Episodes != 100 || tr.TargetUpdateInterval != 10 ||
		tr.PrintEvery != 10 || tr.EvalEpisodes != 20 || tr.BaselineCycle != 20 {
		t.Errorf("training defaults: %+v", tr)
	}
}

func TestDecodeOverlay(t *testing.T) {
	in := `{
		"Seed": 42,
		"Environment": {"MaxSteps": 500},
		"Agent": {
			"PolicyLayers": [32],
			"Biases": [true],
			"Activations": ["tanh"],
			"Solver": {"Type": "Vanilla", "Config": {"StepSize": 0.01}},
			"InitWFn": {"Type": "HeU", "Config": {"Gain": 2}}
		},
		"Training": {"Episodes": 5, "EvalEpisodes": 2}
	}`

	c, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}

	if c.Seed != 42 || c.Environment.MaxSteps != 500 {
		t.Errorf("overlaid fields: seed(%v) max steps(%v)", c.Seed,
			c.Environment.MaxSteps)
	}
	if c.Environment.DecisionInterval != 5 || c.Agent.Gamma != 0.95 ||
		c.Training.TargetUpdateInterval != 10 {
		t.Error("defaults not kept under overlay")
	}
	if c.Training.Episodes != 5 || c.Training.EvalEpisodes != 2 {
		t.Errorf("training: %+v", c.Training)
	}

	if len(c.Agent.PolicyLayers) != 1 || c.Agent.PolicyLayers[0] != 32 ||
		c.Agent.Activations[0].String() != "tanh" {
		t.Errorf("network: %v %v", c.Agent.PolicyLayers, c.Agent.Activations)
	}
	if c.Agent.Solver.Type != solver.Vanilla ||
		c.Agent.Solver.LearningRate() != 0.01 {
		t.Errorf("solver: %v", c.Agent.Solver)
	}
	if c.Agent.InitWFn.Type != initwfn.HeU {
		t.Errorf("initializer: %v", c.Agent.InitWFn)
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":  `{"Sed": 1}`,
		"syntax":         `{"Seed": }`,
		"invalid gamma":  `{"Agent": {"Gamma": 2}}`,
		"unknown edge":   `{"Environment": {"IncomingEdges": ["x2c"]}}`,
		"unknown phase":  `{"Environment": {"Phases": [0, 1]}}`,
		"eval episodes":  `{"Training": {"EvalEpisodes": 0}}`,
		"episodes":       `{"Training": {"Episodes": -1}}`,
		"unknown solver": `{"Agent": {"Solver": {"Type": "SGD"}}}`,
	}

	for name, in := range tests {
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Errorf("%v: expected error", name)
		}
	}

	_, err := Decode(strings.NewReader(`{"Training": {"BaselineCycle": 0}}`))
	if !agent.IsConfigurationError(err) {
		t.Errorf("want configuration error, have(%v)", err)
	}
}

func TestEncodeLoad(t *testing.T) {
	c := Default()
	c.Seed = 7
	c.Training.Episodes = 3

	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Seed != 7 || loaded.Training.Episodes != 3 {
		t.Errorf("loaded: seed(%v) episodes(%v)", loaded.Seed,
			loaded.Training.Episodes)
	}
	if loaded.Agent.Solver.Type != solver.Adam ||
		loaded.Agent.InitWFn.Type != initwfn.GlorotU ||
		loaded.Agent.Activations[0].String() != "relu" {
		t.Errorf("agent not round tripped: %+v", loaded.Agent)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error loading missing file")
	}
}

func TestCreate(t *testing.T) {
	c := Default()
	c.Agent.PolicyLayers = []int{4}
	c.Agent.Biases = nil
	c.Agent.Activations = c.Agent.Activations[:1]

	e, err := c.CreateEnvironment(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	a, err := c.CreateAgent(e)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if n := a.ValueFunction().Features(); n != 4 {
		t.Errorf("features: want(4) have(%v)", n)
	}
	if n := a.ValueFunction().NumActions(); n != 2 {
		t.Errorf("actions: want(2) have(%v)", n)
	}
}

// observations returns the observations of the first steps of an
// episode of e under a constant action
func observations(t *testing.T, e *traffic.Intersection,
	steps int) []*mat.VecDense {
	t.Helper()

	step, err := e.Reset()
	if err != nil {
		t.Fatal(err)
	}
	obs := []*mat.VecDense{step.Observation}
	for j := 0; j < steps && !step.Last(); j++ {
		if step, _, err = e.Step(0); err != nil {
			t.Fatal(err)
		}
		obs = append(obs, step.Observation)
	}
	return obs
}

func TestCreateEnvironmentReplaysTraffic(t *testing.T) {
	c := Default()

	first, err := c.CreateEnvironment(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()

	want := observations(t, first, 20)
	for episode := 0; episode < 3; episode++ {
		observations(t, first, 20)
	}

	second, err := c.CreateEnvironment(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	have := observations(t, second, 20)
	if len(have) != len(want) {
		t.Fatalf("steps: want(%v) have(%v)", len(want), len(have))
	}
	for j := range want {
		if !mat.Equal(want[j], have[j]) {
			t.Errorf("observation %v: want(%v) have(%v)", j,
				mat.Formatted(want[j].T()), mat.Formatted(have[j].T()))
		}
	}
}
