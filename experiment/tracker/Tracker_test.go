package tracker

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/trafficrl/environment"
	ts "github.com/samuelfneumann/trafficrl/timestep"
)

// episode feeds an episode with the given rewards to each tracker. The
// episode's total queue grows by 10 each step.
func episode(trackers []Tracker, rewards ...float64) {
	var info environment.Info
	for _, t := range trackers {
		t.Track(ts.New(ts.First, 0, nil, 0), info)
	}

	for i, r := range rewards {
		kind := ts.Mid
		if i == len(rewards)-1 {
			kind = ts.Last
		}
		info.TotalQueue += 10
		info.TotalWaiting += 1
		for _, t := range trackers {
			t.Track(ts.New(kind, r, nil, i+1), info)
		}
	}
}

func TestTrackers(t *testing.T) {
	dir := t.TempDir()
	ret := NewReturn(filepath.Join(dir, "return.bin"))
	length := NewEpisodeLength(filepath.Join(dir, "length.bin"))
	queue := NewCongestion(filepath.Join(dir, "queue.bin"), TotalQueue)
	waiting := NewCongestion(filepath.Join(dir, "waiting.bin"), TotalWaiting)
	trackers := []Tracker{ret, length, queue, waiting}

	episode(trackers, -1, -2, -3)
	episode(trackers, -10)

	tests := []struct {
		name    string
		tracker Tracker
		want    []float64
	}{
		{"Return", ret, []float64{-6, -10}},
		{"EpisodeLength", length, []float64{3, 1}},
		{"TotalQueue", queue, []float64{30, 10}},
		{"TotalWaiting", waiting, []float64{3, 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if !equal(test.tracker.Data(), test.want) {
				t.Fatalf("data: want(%v) have(%v)", test.want,
					test.tracker.Data())
			}

			if err := test.tracker.Save(); err != nil {
				t.Fatal(err)
			}
		})
	}

	loaded, err := LoadData(filepath.Join(dir, "return.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !equal(loaded, []float64{-6, -10}) {
		t.Errorf("loaded: want([-6 -10]) have(%v)", loaded)
	}

	if _, err := LoadData(filepath.Join(dir, "missing.bin")); err == nil {
		t.Error("expected error loading missing file")
	}
}

func TestUnfinishedEpisode(t *testing.T) {
	ret := NewReturn("")
	ret.Track(ts.New(ts.First, 0, nil, 0), environment.Info{})
	ret.Track(ts.New(ts.Mid, -5, nil, 1), environment.Info{})

	if len(ret.Data()) != 0 {
		t.Errorf("unfinished episode tracked: %v", ret.Data())
	}

	// A new episode discards the unfinished return
	episode([]Tracker{ret}, -1)
	if !equal(ret.Data(), []float64{-1}) {
		t.Errorf("data: want([-1]) have(%v)", ret.Data())
	}
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
