package experiment

import (
	"fmt"
	"log"

	"github.com/samuelfneumann/trafficrl/agent"
	"github.com/samuelfneumann/trafficrl/agent/policy"
	env "github.com/samuelfneumann/trafficrl/environment"
)

// Evaluate runs a policy for a number of episodes without learning and
// returns the statistics of each episode. A failure of the external
// simulation ends the current episode and evaluation continues.
func Evaluate(e env.Environment, p agent.Policy, episodes int,
	logger *log.Logger) ([]EpisodeStats, error) {
	if episodes <= 0 {
		return nil, agent.NewConfigurationError("episodes", episodes,
			"must be positive")
	}
	logger = defaultLogger(logger)

	stats := make([]EpisodeStats, 0, episodes)
	for episode := 1; episode <= episodes; episode++ {
		s, err := evaluateEpisode(e, p, episode, logger)
		if err != nil {
			return stats, fmt.Errorf("evaluate: episode %v: %w", episode, err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func evaluateEpisode(e env.Environment, p agent.Policy, episode int,
	logger *log.Logger) (EpisodeStats, error) {
	stats := EpisodeStats{Episode: episode}

	step, err := e.Reset()
	if err != nil {
		return stats, fmt.Errorf("could not reset: %w", err)
	}

	var info env.Info
	for !step.Last() {
		action, err := p.SelectAction(step)
		if err != nil {
			return stats, err
		}

		next, stepInfo, err := e.Step(action)
		if env.IsExternalControl(err) {
			logger.Printf("Warning: episode %v ended early: %v", episode, err)
			stats.Failed = true
			info = stepInfo
			break
		} else if err != nil {
			return stats, err
		}

		stats.Reward += next.Reward
		stats.Steps++
		info = stepInfo
		step = next
	}

	stats.TotalQueue = info.TotalQueue
	stats.TotalWaiting = info.TotalWaiting
	return stats, nil
}

// Baseline evaluates a fixed-time controller, which cycles through the
// environment's actions holding each for cycleLength steps
func Baseline(e env.Environment, cycleLength, episodes int,
	logger *log.Logger) ([]EpisodeStats, error) {
	p, err := policy.NewFixedCycle(cycleLength, e.ActionSpec().NumActions())
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	return Evaluate(e, p, episodes, logger)
}
