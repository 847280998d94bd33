package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Summary summarizes the statistics of a number of episodes
type Summary struct {
	Episodes    int
	Failures    int // Episodes ended early by a simulation failure
	MeanReward  float64
	MeanSteps   float64
	MeanQueue   float64 // Mean of the total queue length of each episode
	MeanWaiting float64 // Mean of the total waiting time of each episode
}

// Summarize returns the Summary of a number of episodes
func Summarize(stats []EpisodeStats) Summary {
	if len(stats) == 0 {
		return Summary{}
	}

	rewards := make([]float64, len(stats))
	steps := make([]float64, len(stats))
	queues := make([]float64, len(stats))
	waiting := make([]float64, len(stats))
	failures := 0
	for i, s := range stats {
		rewards[i] = s.Reward
		steps[i] = float64(s.Steps)
		queues[i] = s.TotalQueue
		waiting[i] = s.TotalWaiting
		if s.Failed {
			failures++
		}
	}

	return Summary{
		Episodes:    len(stats),
		Failures:    failures,
		MeanReward:  stat.Mean(rewards, nil),
		MeanSteps:   stat.Mean(steps, nil),
		MeanQueue:   stat.Mean(queues, nil),
		MeanWaiting: stat.Mean(waiting, nil),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("Episodes: %v (%v failed)\n"+
		"Average Reward: %.2f\n"+
		"Average Total Queue Length: %.2f\n"+
		"Average Total Waiting Time: %.2f",
		s.Episodes, s.Failures, s.MeanReward, s.MeanQueue, s.MeanWaiting)
}

// Comparison is the improvement of a policy over a baseline, in
// percent. Positive values mean the policy reduced congestion.
type Comparison struct {
	QueueReduction   float64
	WaitingReduction float64
}

// Compare compares the Summary of a policy to that of a baseline. A
// reduction is 0 if the baseline has no congestion of that kind.
func Compare(policy, baseline Summary) Comparison {
	return Comparison{
		QueueReduction:   reduction(policy.MeanQueue, baseline.MeanQueue),
		WaitingReduction: reduction(policy.MeanWaiting, baseline.MeanWaiting),
	}
}

func reduction(value, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (baseline - value) / baseline * 100
}

func (c Comparison) String() string {
	return fmt.Sprintf("Queue Length Reduction: %.2f%%\n"+
		"Waiting Time Reduction: %.2f%%", c.QueueReduction, c.WaitingReduction)
}
