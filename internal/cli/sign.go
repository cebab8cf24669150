package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/handoff-assistant/pkg/webhook"
)

// SignCmd returns the sign command
func SignCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "sign <payload-file>",
		Short: "Compute the webhook signature header for a payload",
		Long: `Compute the value of the X-Signature header a transcript source must send
with the given payload. The secret defaults to WEBHOOK_SECRET.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("WEBHOOK_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("no secret: pass --secret or set WEBHOOK_SECRET")
			}
			payload, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", webhook.SignatureHeader, webhook.Sign(secret, payload))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "shared webhook secret")
	return cmd
}
