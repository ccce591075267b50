package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request [id...]",
	Short: "Ask a running watch process to republish records",
	Long: `Stores a reindex request with the index. A watch process serving the
same index picks it up, republishes the records and acknowledges it.
With no IDs every record is requested.`,
	RunE: runRequest,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index search tables",
	Long: `Rebuilds the full-text tables from the stored items and requests a full
republish, as a host does after rebuilding its index.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	if requestStore == nil {
		return notConfigured("request")
	}

	id, err := requestStore.RequestReindex(cmd.Context(), args...)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	cmd.Printf("Reindex request %s stored.\n", id)
	return nil
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if requestStore == nil {
		return notConfigured("request")
	}

	id, err := requestStore.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Index rebuilt. Reindex request %s stored.\n", id)
	return nil
}
