package main

import (
	"github.com/spf13/cobra"
)

func configCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the configuration in effect as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return c.Encode(cmd.OutOrStdout())
		},
	}
}
