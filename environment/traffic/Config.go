package traffic

import "fmt"

// Config configures an Intersection
type Config struct {
	TrafficLight  string   // ID of the controlled traffic light
	IncomingEdges []string // Edges whose queues form the observation

	// Phases maps each action to the traffic light phase it selects
	Phases []int

	// DecisionInterval is the number of simulation ticks advanced per
	// environment step
	DecisionInterval int

	// MaxSteps is the budget of simulation ticks per episode
	MaxSteps int

	// Once the total queue exceeds CongestionThreshold, an additional
	// CongestionPenalty is subtracted from the reward
	CongestionThreshold float64
	CongestionPenalty   float64
}

// DefaultConfig returns the configuration of a four-approach
// intersection with a north-south and an east-west green phase
func DefaultConfig() Config {
	return Config{
		TrafficLight:        "center",
		IncomingEdges:       []string{"n2c", "s2c", "e2c", "w2c"},
		Phases:              []int{0, 2},
		DecisionInterval:    5,
		MaxSteps:            1000,
		CongestionThreshold: 15,
		CongestionPenalty:   10,
	}
}

// Validate checks a Config to ensure it is a valid configuration of an
// Intersection
func (c Config) Validate() error {
	if len(c.IncomingEdges) == 0 {
		return fmt.Errorf("validate: at least one incoming edge is required")
	}
	if len(c.Phases) == 0 {
		return fmt.Errorf("validate: at least one phase is required")
	}
	if c.DecisionInterval < 1 {
		return fmt.Errorf("validate: decision interval must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.DecisionInterval)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("validate: step budget must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.MaxSteps)
	}
	if c.CongestionPenalty < 0 {
		return fmt.Errorf("validate: congestion penalty must be "+
			"non-negative \n\thave(%v)", c.CongestionPenalty)
	}
	return nil
}

// Reward returns the reward for a total queue length: the negative
// queue length, minus the congestion penalty when the queue exceeds
// the congestion threshold.
func (c Config) Reward(queue float64) float64 {
	reward := -queue
	if queue > c.CongestionThreshold {
		reward -= c.CongestionPenalty
	}
	return reward
}
