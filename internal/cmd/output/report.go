package output

import (
	"io"
	"strconv"

	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/reconciler"
	"github.com/agentstation/lookupsync/pkg/writeback"
)

// reportHeaders are the columns of the tabular simulate report.
var reportHeaders = []string{"Source", "Source Title", "Source Lookups", "Destination", "Destination Title", "Destination Lookups"}

// NewReporter returns the simulate reporter for format. Text keeps the
// tab separated line report; the other formats render the items through
// the matching Formatter.
func NewReporter(format Format, w io.Writer) (writeback.Reporter, error) {
	switch format {
	case FormatText, "":
		return writeback.NewTextReporter(w), nil
	case FormatTable, FormatJSON, FormatYAML:
		formatter := NewFormatter(format)
		return writeback.ReporterFunc(func(items []reconciler.MasterItemMapping) error {
			var data any = items
			if format == FormatTable {
				data = ItemsToTableData(items)
			}
			return errors.WrapIO("write", "report", formatter.Format(w, data))
		}), nil
	default:
		return nil, errors.NewValidationError("format", string(format), "must be one of: text, table, json, yaml, auto")
	}
}

// ItemsToTableData converts master item mappings to table rows.
func ItemsToTableData(items []reconciler.MasterItemMapping) Data {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(item.SourceID),
			item.SourceTitle,
			writeback.JoinIDs(item.SourceLookupIDs),
			strconv.Itoa(item.DestinationID),
			item.DestinationTitle,
			writeback.JoinIDs(item.DestinationLookupIDs),
		})
	}

	return Data{
		Headers:         reportHeaders,
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft},
	}
}
