package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/trafficrl/experiment"
)

func baselineCommand(opts *options) *cobra.Command {
	var episodes, cycle int

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Evaluate the fixed-time controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load(cmd)
			if err != nil {
				return err
			}
			intOverride(cmd, "episodes", &c.Training.EvalEpisodes, episodes)
			intOverride(cmd, "cycle", &c.Training.BaselineCycle, cycle)
			if err := c.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd)
			e, err := c.CreateEnvironment(logger)
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := experiment.Baseline(e, c.Training.BaselineCycle,
				c.Training.EvalEpisodes, logger)
			if err != nil {
				return err
			}
			for _, s := range stats {
				logger.Println(s)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Fixed-Time Baseline (cycle %v)\n%v\n",
				c.Training.BaselineCycle, experiment.Summarize(stats))
			return nil
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 0,
		"Number of evaluation episodes")
	cmd.Flags().IntVar(&cycle, "cycle", 0,
		"Steps each phase is held for")
	return cmd
}
