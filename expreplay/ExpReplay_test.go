package expreplay

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/trafficrl/timestep"
)

func transition(i int) timestep.Transition {
	v := float64(i)
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{v, -v}),
		Action:    i % 2,
		Reward:    -v,
		NextState: mat.NewVecDense(2, []float64{v + 1, -v - 1}),
		Done:      i%3 == 0,
	}
}

func TestFifoEviction(t *testing.T) {
	er, err := New(NewFifoSelector(), 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 5; i++ {
		if err := er.Add(transition(i)); err != nil {
			t.Fatal(err)
		}
	}

	if er.Len() != 3 {
		t.Fatalf("len: want(3) have(%v)", er.Len())
	}

	stored := er.Transitions()
	for i, tr := range stored {
		want := transition(i + 3)
		if !tr.Equal(want) {
			t.Errorf("transition %v: \n\twant(%v) \n\thave(%v)", i, want, tr)
		}
	}

	_, _, rewards, _, _, err := er.Sample(3)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range rewards {
		if r != -float64(i+3) {
			t.Errorf("fifo sample %v: want(%v) have(%v)", i, -float64(i+3), r)
		}
	}
}

func TestAddCopies(t *testing.T) {
	er, err := New(NewFifoSelector(), 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	tr := transition(1)
	if err := er.Add(tr); err != nil {
		t.Fatal(err)
	}
	tr.State.SetVec(0, 100)

	if er.Transitions()[0].State.AtVec(0) != 1 {
		t.Error("stored transition shares memory with caller")
	}
}

func TestAddFeatureSize(t *testing.T) {
	er, err := New(NewUniformSelector(1), 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := er.Add(transition(1)); err == nil {
		t.Error("expected error adding transition of wrong size")
	}
	if er.Len() != 0 {
		t.Errorf("len: want(0) have(%v)", er.Len())
	}
}

func TestSampleInsufficient(t *testing.T) {
	er, err := New(NewUniformSelector(1), 10, 2)
	if err != nil {
		t.Fatal(err)
	}

	_, _, _, _, _, err = er.Sample(1)
	if !IsEmptyBuffer(err) || !IsInsufficientSamples(err) {
		t.Errorf("sample empty: want empty buffer error, have(%v)", err)
	}

	for i := 0; i < 4; i++ {
		er.Add(transition(i))
	}
	_, _, _, _, _, err = er.Sample(5)
	if !IsInsufficientSamples(err) {
		t.Errorf("sample: want insufficient samples error, have(%v)", err)
	}
	if IsEmptyBuffer(err) {
		t.Error("sample: non-empty buffer reported as empty")
	}

	if er.Len() != 4 {
		t.Errorf("failed sample modified buffer: len(%v)", er.Len())
	}
}

func TestUniformWithoutReplacement(t *testing.T) {
	er, err := New(NewUniformSelector(42), 50, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 80; i++ {
		er.Add(transition(i))
	}

	for trial := 0; trial < 20; trial++ {
		states, actions, rewards, nextStates, dones, err := er.Sample(50)
		if err != nil {
			t.Fatal(err)
		}
		if len(states) != 100 || len(nextStates) != 100 || len(actions) != 50 ||
			len(dones) != 50 {
			t.Fatalf("batch shapes: states(%v) nextStates(%v) actions(%v) "+
				"dones(%v)", len(states), len(nextStates), len(actions),
				len(dones))
		}

		seen := make(map[float64]bool)
		for i, r := range rewards {
			if seen[r] {
				t.Fatalf("duplicate transition with reward %v in batch", r)
			}
			seen[r] = true

			// Only the newest 50 transitions remain
			if r > -30 || r < -79 {
				t.Fatalf("sampled evicted transition with reward %v", r)
			}

			// Fields of a sample remain aligned
			if states[2*i] != -r || nextStates[2*i] != -r+1 {
				t.Fatalf("misaligned batch at %v", i)
			}
		}
	}
}

func TestUniformSeeded(t *testing.T) {
	sample := func() []float64 {
		er, _ := New(NewUniformSelector(7), 20, 2)
		for i := 0; i < 20; i++ {
			er.Add(transition(i))
		}
		_, _, rewards, _, _, _ := er.Sample(5)
		return rewards
	}

	a, b := sample(), sample()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different batches: %v %v", a, b)
		}
	}
}

func TestConfigCreate(t *testing.T) {
	c := Config{SampleMethod: Fifo, MaxReplayCapacity: 4}
	er, err := c.Create(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if er.MaxCapacity() != 4 || er.FeatureSize() != 2 {
		t.Errorf("create: capacity(%v) features(%v)", er.MaxCapacity(),
			er.FeatureSize())
	}

	c.SampleMethod = "Prioritized"
	if _, err := c.Create(2, 0); err == nil {
		t.Error("expected error for unknown selector")
	}

	c = Config{SampleMethod: Uniform}
	if _, err := c.Create(2, 0); err == nil {
		t.Error("expected error for zero capacity")
	}
}

func BenchmarkSample(b *testing.B) {
	er, _ := New(NewUniformSelector(1), 10000, 8)
	for i := 0; i < 10000; i++ {
		er.Add(timestep.Transition{
			State:     mat.NewVecDense(8, nil),
			Action:    i % 2,
			NextState: mat.NewVecDense(8, nil),
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		er.Sample(64)
	}
}
