package main

import (
	"github.com/spf13/cobra"
)

func evaluateCommand(opts *options) *cobra.Command {
	var episodes int
	var agentPath string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a trained agent against the fixed-time baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load(cmd)
			if err != nil {
				return err
			}
			intOverride(cmd, "episodes", &c.Training.EvalEpisodes, episodes)
			if err := c.Validate(); err != nil {
				return err
			}
			if agentPath == "" {
				agentPath = opts.agentPath()
			}

			logger := newLogger(cmd)
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

			if err := a.Load(agentPath); err != nil {
				return err
			}
			logger.Printf("agent loaded from %v", agentPath)

			return compare(cmd, a.Greedy(), c, logger)
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 0,
		"Number of evaluation episodes")
	cmd.Flags().StringVarP(&agentPath, "agent", "a", "",
		"Saved agent, defaults to agent.bin in the save folder")
	return cmd
}
