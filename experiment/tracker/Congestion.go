package tracker

import (
	"fmt"

	"github.com/samuelfneumann/trafficrl/environment"
	ts "github.com/samuelfneumann/trafficrl/timestep"
)

// Metric is a congestion metric reported by an environment
type Metric int

const (
	// TotalQueue is the queue length accumulated over an episode
	TotalQueue Metric = iota

	// TotalWaiting is the waiting time accumulated over an episode
	TotalWaiting
)

func (m Metric) String() string {
	switch m {
	case TotalQueue:
		return "TotalQueue"
	case TotalWaiting:
		return "TotalWaiting"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// Congestion tracks and saves the value of a congestion metric at the
// end of each episode
type Congestion struct {
	metric   Metric
	episodes []float64
	filename string
}

// NewCongestion returns a new Congestion tracker for metric which will
// save its data at filename
func NewCongestion(filename string, metric Metric) *Congestion {
	return &Congestion{metric: metric, filename: filename}
}

// Track caches the metric reported on the last timestep of an episode
func (c *Congestion) Track(t ts.TimeStep, info environment.Info) {
	if !t.Last() {
		return
	}

	switch c.metric {
	case TotalQueue:
		c.episodes = append(c.episodes, info.TotalQueue)
	case TotalWaiting:
		c.episodes = append(c.episodes, info.TotalWaiting)
	}
}

// Data returns the tracked metric of each finished episode
func (c *Congestion) Data() []float64 {
	return append([]float64(nil), c.episodes...)
}

// Metric returns the tracked metric
func (c *Congestion) Metric() Metric {
	return c.metric
}

// Save saves the data tracked by the Congestion Tracker to disk.
func (c *Congestion) Save() error {
	return save(c.filename, c.episodes)
}
