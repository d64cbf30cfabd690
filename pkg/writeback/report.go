package writeback

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/reconciler"
)

// ReportHeader precedes the simulate report lines.
const ReportHeader = "Source\t\tDestination"

// Reporter receives the master item mappings of a simulate run.
type Reporter interface {
	Report(items []reconciler.MasterItemMapping) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(items []reconciler.MasterItemMapping) error

// Report implements Reporter.
func (f ReporterFunc) Report(items []reconciler.MasterItemMapping) error {
	return f(items)
}

// TextReporter writes the header followed by one line per item.
type TextReporter struct {
	w io.Writer
}

// NewTextReporter creates a TextReporter writing to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

// Report implements Reporter.
func (r *TextReporter) Report(items []reconciler.MasterItemMapping) error {
	if _, err := fmt.Fprintln(r.w, ReportHeader); err != nil {
		return errors.WrapIO("write", "report", err)
	}
	for _, item := range items {
		if _, err := fmt.Fprintln(r.w, FormatLine(item)); err != nil {
			return errors.WrapIO("write", "report", err)
		}
	}
	return nil
}

// FormatLine renders one item as
//
//	s:<id>-"<title>" sl:<ids> 	 d:<id>-"<title>" dl:<ids>
//
// with titles printed as stored and ids separated by ", ".
func FormatLine(item reconciler.MasterItemMapping) string {
	return fmt.Sprintf("s:%d-\"%s\" sl:%s \t d:%d-\"%s\" dl:%s",
		item.SourceID, item.SourceTitle, JoinIDs(item.SourceLookupIDs),
		item.DestinationID, item.DestinationTitle, JoinIDs(item.DestinationLookupIDs))
}

// JoinIDs renders ids separated by ", ".
func JoinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
