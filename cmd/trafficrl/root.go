package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/trafficrl/agent"
	env "github.com/samuelfneumann/trafficrl/environment"
	"github.com/samuelfneumann/trafficrl/config"
	"github.com/samuelfneumann/trafficrl/experiment"
)

const agentFile = "agent.bin"

// options holds the flags shared by all subcommands
type options struct {
	configPath string
	seed       uint64
	saveDir    string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "trafficrl",
		Short:        "Train deep Q-learning traffic signal controllers",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"JSON configuration file, the defaults are used if empty")
	root.PersistentFlags().Uint64Var(&opts.seed, "seed", 0,
		"Random seed, overrides the configuration")
	root.PersistentFlags().StringVarP(&opts.saveDir, "save", "s", "results",
		"Save the result data in the specified folder")

	root.AddCommand(trainCommand(opts))
	root.AddCommand(evaluateCommand(opts))
	root.AddCommand(baselineCommand(opts))
	root.AddCommand(configCommand(opts))
	return root
}

// load returns the configuration given by the shared flags
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	c := config.Default()
	if o.configPath != "" {
		var err error
		if c, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if cmd.Flags().Changed("seed") {
		c.Seed = o.seed
	}
	return c, nil
}

// agentPath returns the path the trained agent is saved to
func (o *options) agentPath() string {
	return filepath.Join(o.saveDir, agentFile)
}

func newLogger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

// intOverride overrides *field with value if the flag name was set
func intOverride(cmd *cobra.Command, name string, field *int, value int) {
	if cmd.Flags().Changed(name) {
		*field = value
	}
}

// compare evaluates p and the fixed-time baseline, then writes both
// summaries and the improvement of p over the baseline. Each runs in a
// fresh environment created from c, so episode k of both sees the same
// traffic.
func compare(cmd *cobra.Command, p agent.Policy, c config.Config,
	logger *log.Logger) error {
	logger.Printf("evaluating trained policy for %v episodes",
		c.Training.EvalEpisodes)
	eval, err := evaluateIn(c, logger, func(e env.Environment) (
		[]experiment.EpisodeStats, error) {
		return experiment.Evaluate(e, p, c.Training.EvalEpisodes, logger)
	})
	if err != nil {
		return err
	}

	logger.Printf("evaluating fixed-time baseline for %v episodes",
		c.Training.EvalEpisodes)
	baseline, err := evaluateIn(c, logger, func(e env.Environment) (
		[]experiment.EpisodeStats, error) {
		return experiment.Baseline(e, c.Training.BaselineCycle,
			c.Training.EvalEpisodes, logger)
	})
	if err != nil {
		return err
	}

	policy := experiment.Summarize(eval)
	base := experiment.Summarize(baseline)
	fmt.Fprintf(cmd.OutOrStdout(), "Trained Policy\n%v\n\n"+
		"Fixed-Time Baseline\n%v\n\n%v\n", policy, base,
		experiment.Compare(policy, base))
	return nil
}

// evaluateIn runs run in a new environment created from c
func evaluateIn(c config.Config, logger *log.Logger,
	run func(env.Environment) ([]experiment.EpisodeStats, error)) (
	[]experiment.EpisodeStats, error) {
	e, err := c.CreateEnvironment(logger)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return run(e)
}

// ensureDir creates dir if it does not exist
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create save directory: %w", err)
	}
	return nil
}
