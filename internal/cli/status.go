package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/syncprobe/internal/service"
)

// StatusFlags holds the status command flags
type StatusFlags struct {
	Output           string
	Parallel         int
	Record           bool
	FailUndetermined bool
}

var statusFlags StatusFlags

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status PATH...",
		Short: "Report the sync status of files",
		Long: `Classify each path as one of not_found, local, current, downloaded,
not_downloaded, local_not_uploaded, unknown or error, using the metadata of
the configured cloud provider.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runStatus,
	}

	cmd.Flags().StringVarP(&statusFlags.Output, "output", "o", OutputText, "output format: text, json, yaml")
	cmd.Flags().IntVar(&statusFlags.Parallel, "parallel", service.DefaultParallel, "number of paths probed concurrently")
	cmd.Flags().BoolVar(&statusFlags.Record, "record", false, "record results in the journal")
	cmd.Flags().BoolVar(&statusFlags.FailUndetermined, "fail-undetermined", false, "exit non-zero when a status is unknown or error")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateOutput(statusFlags.Output); err != nil {
		return err
	}
	if statusFlags.Parallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", statusFlags.Parallel)
	}

	cfg, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := service.New(ctx, cfg, statusFlags.Record)
	if err != nil {
		return err
	}
	defer svc.Close()

	reports := svc.QueryMany(ctx, args, statusFlags.Parallel)
	if err := writeReports(cmd.OutOrStdout(), statusFlags.Output, reports); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if statusFlags.FailUndetermined {
		return undeterminedError(reports)
	}
	return nil
}
