package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/lookupsync/pkg/errors"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitAmbiguous = 2
)

// Execute runs the lookupsync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "lookupsync",
		Short:   "Lookup field reconciliation between list stores",
		Version: a.version,
		Long: `Lookupsync keeps a lookup field consistent between two independently
hosted list stores. Records referenced by the lookup field have different
ids in each store, so values cannot be copied verbatim: lookupsync matches
the referenced records on identifying attributes, translates every id and
writes the translated values to the destination.

Stores are addressed by endpoint: an http(s) site URL for a remote store,
or a SQLite snapshot (sqlite://path or a .db file).`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is $HOME/.lookupsync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&a.config.Format, "format", "o", a.config.Format, "report format: text, table, json, yaml, auto")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("lookupsync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := changedString(cmd, "format")
	logLevel := changedString(cmd, "log-level")

	// An explicit config file replaces the default one before flags apply.
	if cmd.Flags().Changed("config") {
		if err := a.config.ReadConfigFile(mustGetString(cmd, "config")); err != nil {
			return err
		}
	}

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(a.CreateSyncCommand())

	// Management commands
	rootCmd.AddCommand(a.CreateSeedCommand())

	// Utility commands
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// ExitCode maps a run error to the process exit status. A lookup field
// that cannot be used is not a failure: there is nothing to do.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsLookupField(err):
		return ExitOK
	case errors.IsAmbiguous(err):
		return ExitAmbiguous
	default:
		return ExitError
	}
}

// PrintError writes err for the operator. Ambiguous mappings are listed
// one duplicate group per line.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var ambiguous *errors.AmbiguityError
	if errors.As(err, &ambiguous) {
		for _, line := range ambiguous.Report() {
			_, _ = fmt.Fprintln(w, line)
		}
	}
	_, _ = fmt.Fprintln(w, err.Error())
}

// ExitOnError prints err and exits with its exit code. It returns
// normally when err is nil.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	PrintError(os.Stderr, err)
	os.Exit(ExitCode(err))
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// changedString returns the flag's value when it was set on the command
// line and "" otherwise.
func changedString(cmd *cobra.Command, name string) string {
	if !cmd.Flags().Changed(name) {
		return ""
	}
	return mustGetString(cmd, name)
}
