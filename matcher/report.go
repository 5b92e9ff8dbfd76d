package matcher

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReportHeader is the column order of the match report.
var ReportHeader = []string{"username", "emp_id", "emp_name", "confidence_score", "match_type"}

// ReportRow is one line of the match report. A zero row is a separator.
type ReportRow struct {
	Username  string
	EmpID     string
	EmpName   string
	Score     string
	MatchType string
}

// Separator reports whether r is the blank row written between usernames.
func (r ReportRow) Separator() bool {
	return r == ReportRow{}
}

func (r ReportRow) values() []string {
	return []string{r.Username, r.EmpID, r.EmpName, r.Score, r.MatchType}
}

// BuildReport flattens results into report rows, one per candidate, with a
// blank separator row after each username block.
func BuildReport(results []Result) []ReportRow {
	rows := make([]ReportRow, 0, len(results)*3)
	for _, res := range results {
		for _, c := range res.Candidates {
			rows = append(rows, ReportRow{
				Username:  res.Username,
				EmpID:     c.Employee.EmpID,
				EmpName:   c.Employee.FullName,
				Score:     c.ScoreText(),
				MatchType: string(c.Label),
			})
		}
		rows = append(rows, ReportRow{})
	}
	return rows
}

// WriteReportCSV writes the report as CSV.
func WriteReportCSV(w io.Writer, rows []ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.values()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportSheet is the sheet name used for xlsx reports.
const ReportSheet = "matches"

// WriteReportXLSX writes the report as a single-sheet workbook.
func WriteReportXLSX(w io.Writer, rows []ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), ReportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	write := func(row int, values []string) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(ReportSheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(1, ReportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		if r.Separator() {
			continue
		}
		if err := write(i+2, r.values()); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
