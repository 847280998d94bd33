package experiment

import (
	"math"
	"testing"

	"github.com/samuelfneumann/trafficrl/agent/deepq"
	"github.com/samuelfneumann/trafficrl/environment/traffic"
	"github.com/samuelfneumann/trafficrl/network"
)

func newSyntheticIntersection(t *testing.T, seed uint64) *traffic.Intersection {
	t.Helper()

	config := traffic.DefaultConfig()
	config.MaxSteps = 100

	launcher := traffic.NewExclusive(traffic.NewSyntheticLauncher(
		traffic.DefaultSyntheticConfig(), seed), true)
	e, err := traffic.New(launcher, config, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestTrainSyntheticIntersection(t *testing.T) {
	e := newSyntheticIntersection(t, 7)

	config := deepq.DefaultConfig()
	config.PolicyLayers = []int{8}
	config.Biases = []bool{true}
	config.Activations = []*network.Activation{network.ReLU()}
	config.BatchSize = 4
	config.ExpReplay.MaxReplayCapacity = 100

	a, err := deepq.New(e.ObservationSpec().Len(), e.ActionSpec().NumActions(),
		config, 7)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	trainer, err := NewTrainer(e, a, Config{Episodes: 3,
		TargetUpdateInterval: 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := trainer.Run()
	if err != nil {
		t.Fatal(err)
	}

	steps := 0
	for _, s := range stats {
		if s.Failed || s.Steps < 1 || s.Steps > 20 {
			t.Errorf("episode: %v", s)
		}
		if s.Reward > 0 || s.TotalQueue < 0 {
			t.Errorf("episode %v: reward(%v) queue(%v)", s.Episode, s.Reward,
				s.TotalQueue)
		}
		steps += s.Steps
	}

	if a.BufferLen() != steps {
		t.Errorf("buffer: want(%v) have(%v)", steps, a.BufferLen())
	}
	if len(a.Losses()) != steps-config.BatchSize+1 {
		t.Errorf("losses: want(%v) have(%v)", steps-config.BatchSize+1,
			len(a.Losses()))
	}
	for _, l := range a.Losses() {
		if math.IsNaN(l) || l < 0 {
			t.Fatalf("invalid loss %v", l)
		}
	}
	if want := math.Pow(config.EpsilonDecay, 3); math.Abs(a.Epsilon()-want) > 1e-12 {
		t.Errorf("epsilon: want(%v) have(%v)", want, a.Epsilon())
	}

	eval, err := Evaluate(e, a.Greedy(), 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.BufferLen() != steps {
		t.Error("evaluation stored experience")
	}

	baseline, err := Baseline(e, 20, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	c := Compare(Summarize(eval), Summarize(baseline))
	if math.IsNaN(c.QueueReduction) || math.IsNaN(c.WaitingReduction) {
		t.Errorf("comparison: %+v", c)
	}
}
