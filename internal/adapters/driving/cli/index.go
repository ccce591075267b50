package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexsync/internal/core/domain"
	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driving"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Bring the index up to date",
	Long: `Reads the last client state stored with the index. If it is not
finished, every record is republished and the index is marked finished.

Use --force to republish regardless of the stored state.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex [id...]",
	Short: "Republish records to the index",
	Long: `Republishes every record, or only the records with the given IDs.
IDs with no matching record are ignored.`,
	RunE: runReindex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "republish even if the index is finished")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(reindexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if coordinator == nil {
		return notConfigured("reindex")
	}
	if indexForce {
		return republish(cmd, nil)
	}

	ctx := cmd.Context()
	res, err := driving.Await(ctx, func(done func(domain.CheckResult)) error {
		coordinator.CheckAndReindex(ctx, done)
		return nil
	})
	if err != nil {
		return err
	}

	switch res.Outcome {
	case domain.CheckUnavailable:
		cmd.Println("Index unavailable, nothing to do.")
	case domain.CheckAlreadySynced:
		cmd.Println("Index is up to date.")
	case domain.CheckReindexed:
		cmd.Printf("Client state was %s. %s\n", res.State, describeReindex(*res.Reindex))
	case domain.CheckFetchFailed:
		return fmt.Errorf("reading client state: %w", res.Err)
	case domain.CheckReindexFailed:
		return fmt.Errorf("reindex failed: %w", res.Err)
	}
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	if coordinator == nil {
		return notConfigured("reindex")
	}
	return republish(cmd, args)
}

func republish(cmd *cobra.Command, ids []string) error {
	ctx := cmd.Context()
	res, err := driving.Await(ctx, func(done func(domain.ReindexResult)) error {
		coordinator.FullReindex(ctx, ids, done)
		return nil
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("reindex failed: %w", res.Err)
	}

	cmd.Println(describeReindex(res))
	return nil
}

func describeReindex(res domain.ReindexResult) string {
	return fmt.Sprintf("Republished %d records in %d batches.", res.Matched, len(res.Batches))
}
