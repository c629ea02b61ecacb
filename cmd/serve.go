package cmd

import (
	"github.com/spf13/cobra"

	"eliteexplore/app"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Configuration comes from the environment and an optional .env file in the
working directory. ACCESS_TOKEN_SECRET is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fxApp := app.New()
			if err := fxApp.Err(); err != nil {
				return err
			}
			fxApp.Run()
			return nil
		},
	}
}
