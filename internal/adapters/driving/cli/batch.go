package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

var resetYes bool

// stdinIsTerminal reports whether confirmation can be asked for.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id...>",
	Short: "Remove items from the index",
	Long: `Removes exactly the items with the given IDs from the index.
Records are not touched. The index is marked finished on success.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every item from the index",
	Long: `Empties the index and resets its client state to none, so the next
index run republishes every record.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(resetCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if synchronizer == nil {
		return notConfigured("sync")
	}

	res, err := driving.Await(cmd.Context(), func(done func(domain.BatchResult)) error {
		return synchronizer.DeleteItems(args, done)
	})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return fmt.Errorf("delete failed: %w", res.Err)
	}

	cmd.Printf("Deleted %d items (batch %s).\n", res.Count, res.BatchID)
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if synchronizer == nil {
		return notConfigured("sync")
	}

	if !resetYes {
		if !stdinIsTerminal() {
			return errors.New("refusing to reset without --yes when stdin is not a terminal")
		}
		cmd.Print("Remove every item from the index? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	res, err := driving.Await(cmd.Context(), func(done func(domain.BatchResult)) error {
		return synchronizer.DeleteAll(done)
	})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return fmt.Errorf("reset failed: %w", res.Err)
	}

	cmd.Println("Index emptied. Client state is none.")
	return nil
}
