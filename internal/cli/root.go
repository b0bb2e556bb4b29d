// Package cli implements the syncprobe command line
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the syncprobe command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "syncprobe",
		Short: "Sync status of cloud-synced files",
		Long: `syncprobe reports whether files in a cloud-synced folder are local only,
fully downloaded, still in the cloud or waiting to be uploaded.

Supported providers: icloud, dir, gdrive, s3 (or none for local metadata only).`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewDownloadedCommand())
	rootCmd.AddCommand(NewAvailableCommand())
	rootCmd.AddCommand(NewContainerPathCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewAuthCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
