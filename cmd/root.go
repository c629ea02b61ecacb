package cmd

import (
	"github.com/spf13/cobra"
)

var Version = "dev"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eliteexplore",
		Short:         "Elite Explore tour-booking API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := serveCmd()
	root.AddCommand(serve)
	root.AddCommand(vapidKeysCmd())

	// Running the binary without a subcommand serves.
	root.RunE = serve.RunE

	return root
}
