package experiment

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/trafficrl/agent"
	env "github.com/samuelfneumann/trafficrl/environment"
	"github.com/samuelfneumann/trafficrl/experiment/checkpointer"
	"github.com/samuelfneumann/trafficrl/experiment/tracker"
	ts "github.com/samuelfneumann/trafficrl/timestep"
)

// recentLosses is the number of most recent losses averaged in
// progress reports
const recentLosses = 100

// Trainer trains an agent online in an environment. Each episode,
// the agent alternates between acting and learning until the episode
// ends, after which exploration is decayed. The agent's target is
// synced every TargetUpdateInterval episodes.
type Trainer struct {
	env    env.Environment
	agent  agent.Agent
	config Config
	logger *log.Logger

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewTrainer creates and returns a new Trainer. Progress is reported
// to logger, which may be nil.
func NewTrainer(e env.Environment, a agent.Agent, config Config,
	logger *log.Logger) (*Trainer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newTrainer: %w", err)
	}
	return &Trainer{
		env:    e,
		agent:  a,
		config: config,
		logger: defaultLogger(logger),
	}, nil
}

// Register registers a tracker.Tracker with the Trainer so that data
// generated during training can be tracked and saved
func (t *Trainer) Register(tr tracker.Tracker) {
	t.trackers = append(t.trackers, tr)
}

// AddCheckpointer adds a checkpointer, which is called at the end of
// each episode
func (t *Trainer) AddCheckpointer(c checkpointer.Checkpointer) {
	t.checkpointers = append(t.checkpointers, c)
}

// Run runs all training episodes and returns the statistics of each.
// A failure of the external simulation within an episode ends that
// episode and training continues. Any other error, including a
// failure to reset the environment, ends training.
func (t *Trainer) Run() ([]EpisodeStats, error) {
	t.logger.Printf("training for %v episodes", t.config.Episodes)

	stats := make([]EpisodeStats, 0, t.config.Episodes)
	for episode := 1; episode <= t.config.Episodes; episode++ {
		s, err := t.RunEpisode(episode)
		if err != nil {
			return stats, fmt.Errorf("run: episode %v: %w", episode, err)
		}
		stats = append(stats, s)

		if t.config.PrintEvery > 0 && episode%t.config.PrintEvery == 0 {
			t.report(stats[len(stats)-t.config.PrintEvery:])
		}
	}

	t.logger.Printf("training complete")
	return stats, nil
}

// RunEpisode runs a single training episode
func (t *Trainer) RunEpisode(episode int) (EpisodeStats, error) {
	stats := EpisodeStats{Episode: episode}

	step, err := t.env.Reset()
	if err != nil {
		return stats, fmt.Errorf("runEpisode: could not reset: %w", err)
	}
	var info env.Info
	t.track(step, info)

	for !step.Last() {
		action, err := t.agent.SelectAction(step.Observation, true)
		if err != nil {
			return stats, fmt.Errorf("runEpisode: %w", err)
		}

		next, stepInfo, err := t.env.Step(action)
		if env.IsExternalControl(err) {
			t.logger.Printf("Warning: episode %v ended early: %v", episode, err)
			stats.Failed = true
			info = stepInfo

			// The returned step repeats the last reward, which has
			// already been counted
			next.Reward = 0
			t.track(next, info)
			break
		} else if err != nil {
			return stats, fmt.Errorf("runEpisode: %w", err)
		}

		err = t.agent.StoreTransition(ts.NewTransition(step, action, next))
		if err != nil {
			return stats, fmt.Errorf("runEpisode: %w", err)
		}
		if _, _, err := t.agent.Optimize(); err != nil {
			return stats, fmt.Errorf("runEpisode: %w", err)
		}

		stats.Reward += next.Reward
		stats.Steps++
		info = stepInfo
		t.track(next, info)
		step = next
	}

	stats.TotalQueue = info.TotalQueue
	stats.TotalWaiting = info.TotalWaiting

	t.agent.DecayExploration()
	if episode%t.config.TargetUpdateInterval == 0 {
		if err := t.agent.SyncTarget(); err != nil {
			return stats, fmt.Errorf("runEpisode: %w", err)
		}
	}
	stats.Epsilon = t.agent.Epsilon()

	for _, c := range t.checkpointers {
		if err := c.Checkpoint(episode); err != nil {
			return stats, fmt.Errorf("runEpisode: could not checkpoint: %w",
				err)
		}
	}
	return stats, nil
}

// report logs the average statistics over a window of episodes
func (t *Trainer) report(window []EpisodeStats) {
	rewards := make([]float64, len(window))
	queues := make([]float64, len(window))
	waiting := make([]float64, len(window))
	for i, s := range window {
		rewards[i] = s.Reward
		queues[i] = s.TotalQueue
		waiting[i] = s.TotalWaiting
	}

	last := window[len(window)-1]
	t.logger.Printf("episode %v/%v", last.Episode, t.config.Episodes)
	t.logger.Printf("  avg reward: %.2f", stat.Mean(rewards, nil))
	t.logger.Printf("  avg total queue: %.2f", stat.Mean(queues, nil))
	t.logger.Printf("  avg total waiting time: %.2f", stat.Mean(waiting, nil))
	t.logger.Printf("  epsilon: %.3f", last.Epsilon)

	if l, ok := t.agent.(interface{ Losses() []float64 }); ok {
		losses := l.Losses()
		if len(losses) > recentLosses {
			losses = losses[len(losses)-recentLosses:]
		}
		loss := 0.0
		if len(losses) > 0 {
			loss = stat.Mean(losses, nil)
		}
		t.logger.Printf("  loss: %.4f", loss)
	}
	if b, ok := t.agent.(interface{ BufferLen() int }); ok {
		t.logger.Printf("  buffer size: %v", b.BufferLen())
	}
}

// Save saves all the data cached by the trackers to disk
func (t *Trainer) Save() error {
	for _, tr := range t.trackers {
		if err := tr.Save(); err != nil {
			return err
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each tracker
func (t *Trainer) track(step ts.TimeStep, info env.Info) {
	for _, tr := range t.trackers {
		tr.Track(step, info)
	}
}
