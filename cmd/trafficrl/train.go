package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/trafficrl/config"
	"github.com/samuelfneumann/trafficrl/experiment"
	"github.com/samuelfneumann/trafficrl/experiment/checkpointer"
	"github.com/samuelfneumann/trafficrl/experiment/plot"
	"github.com/samuelfneumann/trafficrl/experiment/tracker"
)

// curveWindow is the number of episodes averaged in learning curves
const curveWindow = 10

func trainCommand(opts *options) *cobra.Command {
	var episodes, printEvery, checkpointEvery int
	var noPlot bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent, then compare it to the fixed-time baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load(cmd)
			if err != nil {
				return err
			}
			intOverride(cmd, "episodes", &c.Training.Episodes, episodes)
			intOverride(cmd, "print-every", &c.Training.PrintEvery, printEvery)
			intOverride(cmd, "checkpoint-every", &c.Training.CheckpointEvery,
				checkpointEvery)
			if err := c.Validate(); err != nil {
				return err
			}

			return train(cmd, c, opts.saveDir, !noPlot)
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 0,
		"Number of training episodes")
	cmd.Flags().IntVar(&printEvery, "print-every", 0,
		"Episodes between progress reports")
	cmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", 0,
		"Episodes between agent checkpoints")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false,
		"Do not plot learning curves")
	return cmd
}

func train(cmd *cobra.Command, c config.Config, dir string,
	plotCurves bool) error {
	logger := newLogger(cmd)
	if err := ensureDir(dir); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "config.json"))
	if err != nil {
		return fmt.Errorf("could not save configuration: %w", err)
	}
	err = c.Encode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("could not save configuration: %w", err)
	}

	e, err := c.CreateEnvironment(logger)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := c.CreateAgent(e)
	if err != nil {
		return err
	}
	defer a.Close()

	trainer, err := experiment.NewTrainer(e, a, c.Training.Config, logger)
	if err != nil {
		return err
	}
	trainer.Register(tracker.NewReturn(filepath.Join(dir, "returns.bin")))
	trainer.Register(tracker.NewEpisodeLength(filepath.Join(dir,
		"lengths.bin")))
	trainer.Register(tracker.NewCongestion(filepath.Join(dir, "queue.bin"),
		tracker.TotalQueue))
	trainer.Register(tracker.NewCongestion(filepath.Join(dir, "waiting.bin"),
		tracker.TotalWaiting))

	if c.Training.CheckpointEvery > 0 {
		cp, err := checkpointer.NewNEpisode(c.Training.CheckpointEvery, a,
			checkpointer.FileRunID(filepath.Join(dir, "checkpoint"), ".bin"))
		if err != nil {
			return err
		}
		trainer.AddCheckpointer(cp)
	}

	stats, err := trainer.Run()
	if err != nil {
		return err
	}
	if err := trainer.Save(); err != nil {
		return err
	}

	path := filepath.Join(dir, agentFile)
	if err := a.Save(path); err != nil {
		return err
	}
	logger.Printf("agent saved to %v", path)

	if plotCurves {
		if err := plot.TrainingCurves(dir, stats, curveWindow); err != nil {
			return err
		}
		logger.Printf("learning curves saved to %v", dir)
	}

	return compare(cmd, a.Greedy(), c, logger)
}
