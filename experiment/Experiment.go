// Package experiment implements the training and evaluation loops that
// drive an agent in an environment
package experiment

import (
	"fmt"
	"io"
	"log"

	"github.com/samuelfneumann/trafficrl/agent"
)

// Config represents a configuration of a training run
type Config struct {
	Episodes             int // Number of training episodes
	TargetUpdateInterval int // Episodes between target syncs
	PrintEvery           int // Episodes between progress reports, <= 0 for none
}

// Validate returns an error describing whether or not the
// configuration is valid or not.
func (c Config) Validate() error {
	if c.Episodes <= 0 {
		return agent.NewConfigurationError("Episodes", c.Episodes,
			"must be positive")
	}
	if c.TargetUpdateInterval <= 0 {
		return agent.NewConfigurationError("TargetUpdateInterval",
			c.TargetUpdateInterval, "must be positive")
	}
	return nil
}

// EpisodeStats holds the statistics of a single episode
type EpisodeStats struct {
	Episode      int
	Reward       float64 // Episodic return
	Steps        int     // Decisions taken
	TotalQueue   float64 // Queue length accumulated over the episode
	TotalWaiting float64 // Waiting time accumulated over the episode
	Epsilon      float64 // Exploration rate at the end of the episode

	// Failed is true if the episode was ended early by a failure of the
	// external simulation
	Failed bool
}

func (e EpisodeStats) String() string {
	return fmt.Sprintf("Episode %v | Reward: %.2f  |  Steps: %v  |  "+
		"Total Queue: %.2f  |  Total Waiting: %.2f  |  ε: %.3f", e.Episode,
		e.Reward, e.Steps, e.TotalQueue, e.TotalWaiting, e.Epsilon)
}

// defaultLogger returns logger, or a logger which discards all output
// if logger is nil
func defaultLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return logger
}
