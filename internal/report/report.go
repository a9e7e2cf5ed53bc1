// Package report renders batch reports for operators: indented JSON,
// a one-line summary and an optional spreadsheet export.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/model"
)

// Render writes the report as two-space indented JSON.
func Render(w io.Writer, rep *model.BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// Summary returns the human closing line for a run.
func Summary(rep *model.BatchReport) string {
	if rep.DryRun {
		return fmt.Sprintf("SUMMARY: would %s %d user(s); failed to resolve %d.",
			rep.Action, rep.ProcessedCount, rep.FailedCount)
	}
	return fmt.Sprintf("SUMMARY: %s success for %d user(s); failures: %d.",
		rep.Action, rep.ProcessedCount, rep.FailedCount)
}

// sheetHeader mirrors the JSON record keys so spreadsheets and reports
// line up.
var sheetHeader = []string{"identifier", "userId", "action", "status", "reason"}

// WriteXLSX exports the report to a spreadsheet with one sheet for
// processed records and one for failures.
func WriteXLSX(path string, rep *model.BatchReport) error {
	f := excelize.NewFile()
	defer f.Close()

	processedIdx, err := writeSheet(f, "Processed", rep.Processed)
	if err != nil {
		return err
	}
	if _, err := writeSheet(f, "Failed", rep.Failed); err != nil {
		return err
	}

	// Drop the default sheet and open on the processed records.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	f.SetActiveSheet(processedIdx)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report spreadsheet: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, records []model.OutcomeRecord) (int, error) {
	idx, err := f.NewSheet(name)
	if err != nil {
		return 0, err
	}

	for col, title := range sheetHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(name, cell, title); err != nil {
			return 0, err
		}
	}

	for row, rec := range records {
		values := []string{rec.Identifier, rec.UserID, string(rec.Action), rec.Status, rec.Reason}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return 0, err
			}
		}
	}

	return idx, nil
}
