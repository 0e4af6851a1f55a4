package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vectorize",
		Short:         "Convert JPEG/PNG rasters to SVG without the service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newInspectCommand())

	return rootCmd
}
