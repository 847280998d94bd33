package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/trafficrl/agent/policy"
	"github.com/samuelfneumann/trafficrl/config"
	"github.com/samuelfneumann/trafficrl/experiment/tracker"
)

const smallConfig = `{
	"Seed": 3,
	"Environment": {"MaxSteps": 50},
	"Agent": {
		"PolicyLayers": [4],
		"Biases": [true],
		"Activations": ["relu"],
		"BatchSize": 4,
		"ExpReplay": {"SampleMethod": "Uniform", "MaxReplayCapacity": 50}
	},
	"Training": {
		"Episodes": 2,
		"TargetUpdateInterval": 1,
		"PrintEvery": 1,
		"EvalEpisodes": 1,
		"BaselineCycle": 4
	}
}`

// execute runs the command line with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(smallConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrainEvaluate(t *testing.T) {
	configPath := writeConfig(t)
	dir := filepath.Join(t.TempDir(), "results")

	out, err := execute(t, "train", "--config", configPath, "--save", dir,
		"--episodes", "3")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Trained Policy", "Fixed-Time Baseline",
		"Queue Length Reduction"} {
		if !strings.Contains(out, want) {
			t.Errorf("train output missing %q:\n%v", want, out)
		}
	}

	for _, name := range []string{agentFile, "config.json", "returns.bin",
		"lengths.bin", "queue.bin", "waiting.bin", "rewards.png",
		"queue.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%v not saved: %v", name, err)
		}
	}

	returns, err := tracker.LoadData(filepath.Join(dir, "returns.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if len(returns) != 3 {
		t.Errorf("returns: want(3) have(%v)", len(returns))
	}

	saved, err := config.Load(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.Training.Episodes != 3 || saved.Seed != 3 {
		t.Errorf("saved configuration: episodes(%v) seed(%v)",
			saved.Training.Episodes, saved.Seed)
	}

	out, err = execute(t, "evaluate", "--config", configPath, "--save", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Trained Policy") {
		t.Errorf("evaluate output:\n%v", out)
	}

	_, err = execute(t, "evaluate", "--config", configPath, "--agent",
		filepath.Join(dir, "missing.bin"))
	if err == nil {
		t.Error("expected error evaluating a missing agent")
	}
}

func TestCompareSameTraffic(t *testing.T) {
	c, err := config.Decode(strings.NewReader(smallConfig))
	if err != nil {
		t.Fatal(err)
	}
	c.Training.EvalEpisodes = 3

	// The baseline controller compared against itself
	p, err := policy.NewFixedCycle(c.Training.BaselineCycle,
		len(c.Environment.Phases))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	if err := compare(cmd, p, c, log.New(io.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Queue Length Reduction: 0.00%",
		"Waiting Time Reduction: 0.00%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("compare output missing %q:\n%v", want, out.String())
		}
	}
}

func TestBaselineCommand(t *testing.T) {
	out, err := execute(t, "baseline", "--config", writeConfig(t), "--cycle",
		"20", "--episodes", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "cycle 20") ||
		!strings.Contains(out, "Episodes: 2") {
		t.Errorf("baseline output:\n%v", out)
	}

	if _, err := execute(t, "baseline", "--cycle", "0"); err == nil {
		t.Error("expected error with zero cycle length")
	}
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--seed", "9")
	if err != nil {
		t.Fatal(err)
	}

	c, err := config.Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("printed configuration invalid: %v", err)
	}
	if c.Seed != 9 {
		t.Errorf("seed: want(9) have(%v)", c.Seed)
	}

	if _, err := execute(t, "config", "--config", "missing.json"); err == nil {
		t.Error("expected error loading missing configuration")
	}
}
