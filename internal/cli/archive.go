package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/handoff-assistant/internal/infrastructure/storage"
	"github.com/johnquangdev/handoff-assistant/pkg/config"
)

// ArchiveCmd returns the archive command
func ArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse archived transcripts and analyses in object storage",
	}
	cmd.AddCommand(archiveListCmd(), archiveURLCmd())
	return cmd
}

func archiveListCmd() *cobra.Command {
	var patientID int64

	cmd := &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List archived objects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := "handoffs/"
			if patientID > 0 {
				prefix = fmt.Sprintf("handoffs/%d/", patientID)
			}
			if len(args) == 1 {
				prefix = args[0]
			}

			client, err := openArchive()
			if err != nil {
				return err
			}
			files, err := client.ListFiles(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&patientID, "patient-id", "p", 0, "only list this patient's archives")
	return cmd
}

func archiveURLCmd() *cobra.Command {
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "url <object>",
		Short: "Print a presigned download URL for an archived object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openArchive()
			if err != nil {
				return err
			}
			url, err := client.GetFileURL(cmd.Context(), args[0], expiry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().DurationVar(&expiry, "expiry", 15*time.Minute, "URL lifetime")
	return cmd
}

func openArchive() (*storage.MinIOClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("object storage is disabled (set STORAGE_ENABLED=true)")
	}
	return storage.NewMinIOClient(&cfg.Storage)
}
