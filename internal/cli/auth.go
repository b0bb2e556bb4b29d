package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/syncprobe/internal/adapter/gdrive"
	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/logger"
)

// NewAuthCommand creates the auth command group
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to remote providers",
	}

	cmd.AddCommand(newAuthGDriveCommand())

	return cmd
}

func newAuthGDriveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gdrive",
		Short: "Authorize read-only access to Google Drive metadata",
		Long: `Run the OAuth2 authorization flow for the gdrive provider and store the
token at provider.gdrive.token_path. Only the drive.metadata.readonly scope
is requested.`,
		Args: cobra.NoArgs,
		RunE: runAuthGDrive,
	}
}

func runAuthGDrive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	gc := cfg.Provider.GDrive
	if gc.ClientID == "" || gc.ClientSecret == "" {
		return fmt.Errorf("%w: provider.gdrive.client_id and client_secret are required", domain.ErrConfigInvalid)
	}

	auth := gdrive.NewAuthenticator(gc.ClientID, gc.ClientSecret, gc.TokenPath)
	auth.SetIO(cmd.InOrStdin(), cmd.OutOrStdout())

	ctx, cancel := context.WithTimeout(ctx, gdrive.AuthTimeout)
	defer cancel()

	if _, err := auth.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	logger.Get().Info("gdrive token saved", "path", auth.TokenPath())
	return nil
}
