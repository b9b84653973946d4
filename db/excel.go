package db

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendance-analyzer-go/attendance"
	"attendance-analyzer-go/models"
)

const (
	studentsSheet = "Students"
	summarySheet  = "Summary"
)

var studentsHeader = []interface{}{
	"Roll No", "Admission No", "Name", "Dec-Mar", "April", "Total", "Attendance %", "April %",
}

// WriteDatasetExcel writes ds as an xlsx workbook: one row per student in
// dataset order, then the summary figures on a second sheet.
func WriteDatasetExcel(w io.Writer, ds *models.Dataset) error {
	if ds == nil || ds.Summary == nil {
		return errors.New("no dataset to export")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", studentsSheet); err != nil {
		return fmt.Errorf("failed to name students sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(studentsSheet, "A1", &studentsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(studentsSheet, "A1", "H1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	for i, s := range ds.Summary.Students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			s.RollNo, s.AdmissionNo, s.Name, s.DecToMar, s.April, s.Total, s.AttendancePercent, s.AprilPercent,
		}
		if err := f.SetSheetRow(studentsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write student %d: %w", s.RollNo, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Dataset", ds.ID},
		{"File", ds.FileName},
		{"Analyzed At", ds.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Total Students", ds.Summary.TotalStudents},
		{"Average Attendance %", ds.Summary.AverageAttendance},
	}
	for _, m := range ds.Summary.MonthlyData {
		summary = append(summary, []interface{}{m.Month + " %", m.Attendance})
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadRowsExcel reads attendance rows from the first sheet of a workbook laid
// out like the Students sheet of WriteDatasetExcel. The first row is a header;
// rows with fewer than seven cells are skipped.
func ReadRowsExcel(r io.Reader) ([]attendance.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	raw := make([]attendance.RawRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 7 {
			continue
		}
		if strings.TrimSpace(row[0]) == "" {
			continue
		}
		raw = append(raw, attendance.RawRow{
			RollNo:            row[0],
			AdmissionNo:       row[1],
			Name:              row[2],
			DecToMar:          row[3],
			April:             row[4],
			Total:             row[5],
			AttendancePercent: row[6],
		})
	}
	return raw, nil
}
