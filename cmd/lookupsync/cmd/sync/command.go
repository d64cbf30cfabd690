// Package sync provides the sync command implementation.
package sync

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/lookupsync/internal/appcontext"
)

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Reconcile a lookup field between two list stores",
		Args:    cobra.NoArgs,
		Long: `Sync copies the value of a lookup field on a master list from a source
store to a destination store, translating every referenced record id into
the id of its counterpart in the destination.

The command will:
• Check that the lookup field exists and is a lookup in both stores
• Load the lookup-target lists and the master list of both stores
• Match lookup targets and master records on their identifying attributes
• Stop with a report if any source record matches more than one destination
• Write the translated values to the destination in batches, or report
  them with --simulate

A lookup field that is missing or is not a lookup is reported and the
command exits successfully without writing anything.`,
		Example: `  lookupsync sync --source https://src/sites/a --destination https://dst/sites/b -m Products -l Color -s
  lookupsync sync --source src.db --destination dst.db -m Products -l Color --master-key Title,Code
  lookupsync sync --source src.db --destination dst.db -m Products -l Tags -s -o table --report diff.xlsx
  lookupsync sync --source https://src --destination https://dst -m Orders -l Owner -u svc -p secret`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := Execute(cmd.Context(), app, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
	}

	flags = addSyncFlags(cmd)

	return cmd
}
