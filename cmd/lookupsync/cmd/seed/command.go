package seed

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/lookupsync/internal/appcontext"
	"github.com/agentstation/lookupsync/internal/cmd/output"
	"github.com/agentstation/lookupsync/internal/stores/sqlite"
)

// NewCommand creates the seed command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:     "seed <file.yaml>",
		GroupID: "management",
		Short:   "Load list snapshots from YAML into a SQLite store",
		Args:    cobra.ExactArgs(1),
		Long: `Seed creates the lists, fields and items of a YAML document in a SQLite
snapshot store. The snapshot can then be used as --source or --destination
of the sync command to rehearse a reconciliation offline.`,
		Example: `  lookupsync seed source.yaml --db src.db
  lookupsync seed destination.yaml --db dst.db -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := app.Logger()

			doc, err := Load(args[0])
			if err != nil {
				return err
			}

			store, err := sqlite.Open("seed", dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn().Err(err).Str("path", dbPath).Msg("Failed to close store")
				}
			}()

			summary, err := Apply(cmd.Context(), store, doc)
			if err != nil {
				return err
			}

			logger.Info().
				Str("path", store.Path()).
				Int("lists", summary.Lists).
				Int("records", summary.Records).
				Msg("Seeded snapshot")

			format := output.DetectFormat(app.OutputFormat())
			if format == output.FormatText {
				format = output.FormatTable
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), *summary)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path of the SQLite snapshot to create or extend")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
