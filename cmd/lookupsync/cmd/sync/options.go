package sync

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/lookupsync"
	"github.com/agentstation/lookupsync/pkg/constants"
	lsync "github.com/agentstation/lookupsync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	Source      string
	Destination string

	Master     string
	Lookup     string
	MasterKeys []string
	LookupKeys []string

	PageSize      int
	BatchSize     int
	Simulate      bool
	WarnUnmatched bool
	Strategy      string
	Timeout       time.Duration

	User     string
	Password string

	Report string

	// Format overrides the app's report format when set
	Format string
}

// addSyncFlags registers the sync flags on cmd.
func addSyncFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	f := cmd.Flags()

	f.StringVar(&flags.Source, "source", "", "source store endpoint (URL, sqlite://path or .db file)")
	f.StringVar(&flags.Destination, "destination", "", "destination store endpoint (URL, sqlite://path or .db file)")

	f.StringVarP(&flags.Master, "master", "m", "", "title of the master list in both stores")
	f.StringVarP(&flags.Lookup, "lookup", "l", "", "name of the lookup field to reconcile")
	f.StringSliceVar(&flags.MasterKeys, "master-key", []string{constants.TitleAttribute}, "identifying attributes of master records")
	f.StringSliceVar(&flags.LookupKeys, "lookup-key", nil, "identifying attributes of lookup targets (default: --master-key)")

	f.IntVar(&flags.PageSize, "page-size", constants.DefaultPageSize, "records fetched per page (at most 5000)")
	f.IntVar(&flags.BatchSize, "batch-size", constants.DefaultBatchSize, "writes committed per batch")
	f.BoolVarP(&flags.Simulate, "simulate", "s", false, "report the changes without writing them")
	f.BoolVar(&flags.WarnUnmatched, "warn-unmatched", false, "log master records without a destination match")
	f.StringVar(&flags.Strategy, "strategy", "cross", "join strategy: cross or hash")
	f.DurationVar(&flags.Timeout, "timeout", 0, "abort the run after this duration (0 disables)")

	f.StringVarP(&flags.User, "user", "u", "", "user name for basic authentication")
	f.StringVarP(&flags.Password, "password", "p", "", "password for basic authentication")

	f.StringVar(&flags.Report, "report", "", "also write the item report to this xlsx file")

	_ = cmd.MarkFlagRequired("master")
	_ = cmd.MarkFlagRequired("lookup")

	return flags
}

// BuildSyncOptions creates the run options from the parsed flags.
func BuildSyncOptions(flags *Flags) []lookupsync.SyncOption {
	opts := []lookupsync.SyncOption{
		lsync.WithMaster(flags.Master),
		lsync.WithLookup(flags.Lookup),
		lsync.WithPageSize(flags.PageSize),
		lsync.WithBatchSize(flags.BatchSize),
		lsync.WithSimulate(flags.Simulate),
		lsync.WithWarnUnmatched(flags.WarnUnmatched),
		lsync.WithStrategy(flags.Strategy),
	}

	if len(flags.MasterKeys) > 0 {
		opts = append(opts, lsync.WithMasterKeys(flags.MasterKeys...))
	}
	if len(flags.LookupKeys) > 0 {
		opts = append(opts, lsync.WithLookupKeys(flags.LookupKeys...))
	}
	if flags.Timeout > 0 {
		opts = append(opts, lsync.WithTimeout(flags.Timeout))
	}

	return opts
}
