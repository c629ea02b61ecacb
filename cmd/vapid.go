package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"eliteexplore/notify"
)

func vapidKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for web push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			privateKey, publicKey, err := notify.GenerateVAPIDKeys()
			if err != nil {
				return fmt.Errorf("generate VAPID keys: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Add these to your environment or .env file:")
			fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", publicKey)
			fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", privateKey)
			fmt.Fprintln(out, "VAPID_SUBJECT=mailto:admin@elite-explore.app")
			return nil
		},
	}
}
