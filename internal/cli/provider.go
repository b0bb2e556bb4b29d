package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/service"
)

// NewAvailableCommand creates the available command
func NewAvailableCommand() *cobra.Command {
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "available",
		Short: "Report whether the cloud provider can answer queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			available := svc.IsProviderAvailable(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", svc.ProviderName(), available)

			if exitCode && !available {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit 1 when the provider is unavailable")

	return cmd
}

// NewContainerPathCommand creates the container-path command
func NewContainerPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "container-path",
		Short: "Print the user-visible directory of the sync container",
		Long: `Print the documents directory of the configured sync container.
Fails when the provider has no container or it does not exist on this machine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			dir, ok := svc.ManagedDirectoryPath()
			if !ok {
				return fmt.Errorf("%w: no container directory for provider %s", domain.ErrProviderUnavailable, svc.ProviderName())
			}

			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
