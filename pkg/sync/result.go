package sync

import (
	"fmt"
	"strings"

	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/reconciler"
	"github.com/agentstation/lookupsync/pkg/writeback"
)

// Result represents the complete result of a sync run.
type Result struct {
	// Field resolution
	Kind     lists.FieldKind // Lookup field kind, which selects the codec
	Multiple bool            // Destination field holds several references

	// Reconciliation statistics
	LookupMappings int                            // Matched lookup-target pairs
	MasterMappings int                            // Matched master pairs
	Unmatched      int                            // Source master records without a match
	Items          []reconciler.MasterItemMapping // Propagated master items

	// Write outcome
	Write *writeback.Result

	// Operation metadata
	Simulate bool // Whether this was a report-only run
}

// HasChanges returns true if the run staged any write.
func (r *Result) HasChanges() bool {
	return r.Write != nil && r.Write.Staged > 0
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	parts := []string{
		fmt.Sprintf("%d lookup mappings", r.LookupMappings),
		fmt.Sprintf("%d master mappings", r.MasterMappings),
	}
	if r.Unmatched > 0 {
		parts = append(parts, fmt.Sprintf("%d unmatched", r.Unmatched))
	}

	summary := strings.Join(parts, ", ")
	switch {
	case r.Simulate:
		summary += fmt.Sprintf(", %d reported (Simulate)", len(r.Items))
	case r.Write != nil:
		summary += fmt.Sprintf(", %d written in %d batches, %d skipped", r.Write.Staged, r.Write.Batches, r.Write.Skipped)
	}
	return summary
}
