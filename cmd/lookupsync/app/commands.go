package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/lookupsync/cmd/lookupsync/cmd/seed"
	"github.com/agentstation/lookupsync/cmd/lookupsync/cmd/sync"
)

// CreateSyncCommand creates the sync command with app dependencies.
func (a *App) CreateSyncCommand() *cobra.Command {
	return sync.NewCommand(a)
}

// CreateSeedCommand creates the seed command with app dependencies.
func (a *App) CreateSeedCommand() *cobra.Command {
	return seed.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the lookupsync CLI.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "lookupsync version %s\n", a.Version())
			fmt.Fprintf(w, "commit: %s\n", a.Commit())
			fmt.Fprintf(w, "built: %s\n", a.Date())
			fmt.Fprintf(w, "built by: %s\n", a.BuiltBy())
			fmt.Fprintf(w, "go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
