// Package sheet moves roster records in and out of .xlsx workbooks.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"roster-dashboard-go/models"
)

// SheetName is the sheet written by Export
const SheetName = "Roster"

// Header is the first row of an exported sheet. Import expects the same
// column order and skips the first row.
var Header = []string{"Roll", "Name", "Age", "Branch", "Marks"}

// Adder submits a new student to the backend
type Adder interface {
	AddStudent(ctx context.Context, student models.Student) models.Result
}

// Export writes students as a single-sheet workbook
func Export(w io.Writer, students []models.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, s := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{s.Roll, s.Name, string(s.Age), s.Branch, string(s.Marks)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Report summarises an import
type Report struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Import reads the first sheet of a workbook and adds every row through
// adder. The header row is skipped, rows without roll or name are skipped,
// and a row the backend rejects does not stop the import.
func Import(ctx context.Context, r io.Reader, adder Adder, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var report Report

	f, err := excelize.OpenReader(r)
	if err != nil {
		return report, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return report, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return report, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		student := models.Student{
			Roll:   cell(row, 0),
			Name:   cell(row, 1),
			Age:    models.Text(cell(row, 2)),
			Branch: cell(row, 3),
			Marks:  models.Text(cell(row, 4)),
		}
		if student.Roll == "" || student.Name == "" {
			logger.Debug("Skipping row without roll or name", zap.Int("row", i+1))
			report.Skipped++
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}
		result := adder.AddStudent(ctx, student)
		if !result.Success {
			logger.Warn("Row rejected", zap.Int("row", i+1), zap.String("roll", student.Roll), zap.String("message", result.Message))
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d (%s): %s", i+1, student.Roll, result.Message))
			continue
		}
		report.Imported++
	}

	logger.Info("Import finished",
		zap.Int("imported", report.Imported), zap.Int("skipped", report.Skipped), zap.Int("failed", report.Failed))
	return report, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
