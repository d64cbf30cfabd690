package output

import (
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/reconciler"
)

// WorkbookSheet is the sheet holding the report rows.
const WorkbookSheet = "Report"

// WriteWorkbook renders items as an xlsx workbook to w: one header row
// followed by one row per item, ids as numbers and id lists joined like the text report.
func WriteWorkbook(w io.Writer, items []reconciler.MasterItemMapping) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", WorkbookSheet); err != nil {
		return errors.WrapResource("create", "sheet", WorkbookSheet, err)
	}

	header := make([]any, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(WorkbookSheet, "A1", &header); err != nil {
		return errors.WrapResource("write", "row", "A1", err)
	}

	data := ItemsToTableData(items)
	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.WrapResource("write", "row", "", err)
		}
		row := []any{
			item.SourceID,
			item.SourceTitle,
			data.Rows[i][2],
			item.DestinationID,
			item.DestinationTitle,
			data.Rows[i][5],
		}
		if err := f.SetSheetRow(WorkbookSheet, cell, &row); err != nil {
			return errors.WrapResource("write", "row", cell, err)
		}
	}

	if err := f.SetPanes(WorkbookSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errors.WrapResource("freeze", "header", WorkbookSheet, err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.WrapIO("write", "workbook", err)
	}
	return nil
}

// SaveWorkbook writes the xlsx report to path, creating parent directories.
func SaveWorkbook(path string, items []reconciler.MasterItemMapping) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := WriteWorkbook(file, items); err != nil {
		_ = file.Close()
		return err
	}
	return errors.WrapIO("close", path, file.Close())
}
