package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bridgectl/internal/history"
	"bridgectl/internal/resource"
)

var (
	historyLimit     int
	historyName      string
	historyType      string
	historyRunID     string
	historyOutcome   string
	historyOlderThan time.Duration
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent convergence runs",
		Long: `Lists the most recent convergence passes recorded by apply and watch,
newest first. Every resource converged by one apply shares a run ID.`,
		Example: `  bridgectl history
  bridgectl history --name br-mgmt --limit 5
  bridgectl history --outcome failure -o json`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", history.DefaultLimit, "Maximum number of entries")
	cmd.Flags().StringVar(&historyName, "name", "", "Only show this resource")
	cmd.Flags().StringVar(&historyType, "type", "", "Only show this resource type")
	cmd.Flags().StringVar(&historyRunID, "run", "", "Only show this run ID")
	cmd.Flags().StringVar(&historyOutcome, "outcome", "", "Only show this outcome: success, partial or failure")

	cmd.AddCommand(newHistoryPruneCmd())
	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old history entries",
		Args:  cobra.NoArgs,
		RunE:  runHistoryPrune,
	}
	cmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "Delete entries started longer ago than this")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	switch resource.Outcome(historyOutcome) {
	case "", resource.OutcomeSuccess, resource.OutcomePartial, resource.OutcomeFailure:
	default:
		return fmt.Errorf("unknown outcome %q (use success, partial or failure)", historyOutcome)
	}

	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	journal, closeFn, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := journal.Recent(commandContext(cmd), history.Query{
		Limit:   historyLimit,
		Type:    historyType,
		Name:    historyName,
		RunID:   historyRunID,
		Outcome: historyOutcome,
	})
	if err != nil {
		return err
	}
	return formatter.FormatHistory(entries)
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if historyOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	journal, closeFn, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	removed, err := journal.Prune(commandContext(cmd), time.Now().Add(-historyOlderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
	return nil
}

// openJournal bootstraps the application and returns its journal.
func openJournal(cmd *cobra.Command) (*history.Journal, func(), error) {
	application, err := newApplication(cmd)
	if err != nil {
		return nil, nil, err
	}
	journal := application.Services().Journal
	if journal == nil {
		_ = application.Close()
		return nil, nil, fmt.Errorf("history is disabled (set history.enabled in config.yaml)")
	}
	return journal, func() { _ = application.Close() }, nil
}

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}
