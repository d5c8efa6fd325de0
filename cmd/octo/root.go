package main

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "octo",
		Short: "octo - replicated documents",
		Long:  "Inspect updates and edit documents kept in a local store.",
	}
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML config file")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	return cmd
}
