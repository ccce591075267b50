package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <payload.json|->",
	Short: "Resolve a selected search result to its record",
	Long: `Reads an activity payload, a JSON object carrying the selected item's
identifier under "searchable_item_identifier", and prints the matching record.

Use - to read the payload from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	if activity == nil {
		return notConfigured("activity")
	}

	data, err := readPayload(cmd, args[0])
	if err != nil {
		return err
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	record, err := activity.Continue(cmd.Context(), payload)
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}

	cmd.Printf("ID:          %s\n", record.ID)
	cmd.Printf("Title:       %s\n", record.Title)
	if record.Description != "" {
		cmd.Printf("Description: %s\n", record.Description)
	}
	if len(record.Keywords) > 0 {
		cmd.Printf("Keywords:    %s\n", strings.Join(record.Keywords, ", "))
	}
	return nil
}

func readPayload(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return data, nil
}
