package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/syncprobe/internal/service"
)

var downloadedExitCode bool

// NewDownloadedCommand creates the downloaded command
func NewDownloadedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "downloaded PATH",
		Short: "Report whether a file's content is fully on disk",
		Long: `Print true when the complete content of PATH is available locally
and false otherwise. With --exit-code the answer is also the exit status
(0 downloaded, 1 not downloaded), which suits shell conditionals.`,
		Args: cobra.ExactArgs(1),
		RunE: runDownloaded,
	}

	cmd.Flags().BoolVar(&downloadedExitCode, "exit-code", false, "exit 1 when the file is not fully downloaded")

	return cmd
}

func runDownloaded(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := service.New(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	downloaded := svc.QueryFullyDownloaded(ctx, args[0])
	fmt.Fprintln(cmd.OutOrStdout(), downloaded)

	if downloadedExitCode && !downloaded {
		return &ExitError{Code: 1}
	}
	return nil
}
