package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var stateJSON bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show index and sync status",
	Args:  cobra.NoArgs,
	RunE:  runState,
}

func init() {
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(stateCmd)
}

// stateOutput is the JSON shape of the state command.
type stateOutput struct {
	IndexName   string `json:"index_name"`
	Available   bool   `json:"available"`
	ClientState string `json:"client_state"`
	Phase       string `json:"phase"`
	ItemCount   int    `json:"item_count"`
	RecordCount int    `json:"record_count"`
}

func runState(cmd *cobra.Command, _ []string) error {
	if inspector == nil {
		return notConfigured("inspector")
	}

	status, err := inspector.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	out := stateOutput{
		IndexName:   status.IndexName,
		Available:   status.Available,
		ClientState: status.State.String(),
		Phase:       status.Phase.String(),
		ItemCount:   status.ItemCount,
		RecordCount: status.RecordCount,
	}

	if stateJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Index:        %s\n", out.IndexName)
	cmd.Printf("Available:    %t\n", out.Available)
	cmd.Printf("Client state: %s\n", out.ClientState)
	cmd.Printf("Phase:        %s\n", out.Phase)
	if out.ItemCount >= 0 {
		cmd.Printf("Items:        %d\n", out.ItemCount)
	} else {
		cmd.Println("Items:        unknown")
	}
	cmd.Printf("Records:      %d\n", out.RecordCount)
	return nil
}
