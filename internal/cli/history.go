package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/syncprobe/internal/probe"
	"github.com/Ning0612/syncprobe/internal/state"
)

// HistoryFlags holds the history command flags
type HistoryFlags struct {
	Output string
	Limit  int
}

var historyFlags HistoryFlags

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [PATH]",
		Short: "Show recorded status observations",
		Long: `Show observations recorded by "status --record" or with journal.enabled,
newest first. Without PATH the most recent observations of all paths are shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().StringVarP(&historyFlags.Output, "output", "o", OutputText, "output format: text, json, yaml")
	cmd.Flags().IntVarP(&historyFlags.Limit, "limit", "n", 20, "maximum number of observations")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := validateOutput(historyFlags.Output); err != nil {
		return err
	}
	if historyFlags.Limit < 1 {
		return fmt.Errorf("--limit must be at least 1, got %d", historyFlags.Limit)
	}

	cfg, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	journal, err := state.Open(cfg.Journal.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer journal.Close()

	var obs []state.Observation
	if len(args) == 0 {
		obs, err = journal.Recent(historyFlags.Limit)
	} else {
		path := args[0]
		if abs, cerr := probe.CleanPath(path); cerr == nil {
			path = abs
		}
		obs, err = journal.History(path, historyFlags.Limit)
	}
	if err != nil {
		return err
	}

	return writeObservations(cmd.OutOrStdout(), historyFlags.Output, obs)
}
