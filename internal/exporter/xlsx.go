package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"procurement/pkg/contracts/domain"
)

// Sheet names of the XLSX report
const (
	OpportunitiesSheet = "Opportunities"
	SummarySheet       = "Summary"
)

// XLSXWriter writes analysis results as an Excel workbook with an
// Opportunities sheet and a Summary sheet
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new XLSX writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger.With(slog.String("component", "xlsx_exporter"))}
}

// WriteResultFile writes the workbook to filePath
func (w *XLSXWriter) WriteResultFile(filePath string, result *domain.AnalysisResult) error {
	w.logger.Info("Writing XLSX file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(result.Opportunities)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", OpportunitiesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeOpportunities(f, result.Opportunities, bold); err != nil {
		return err
	}
	if err := writeSummary(f, result, bold); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeOpportunities(f *excelize.File, opps []domain.Opportunity, headerStyle int) error {
	header := make([]interface{}, len(OpportunityHeaders))
	for i, h := range OpportunityHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(OpportunitiesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	if err := f.SetRowStyle(OpportunitiesSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	for i, o := range opps {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			o.PartNumber,
			o.CurrentSupplier,
			o.PriceAndTrend,
			string(o.Type),
			o.Description,
			o.Material,
			numericCell(o.CurrentPrice),
			o.AlternativeSupplier,
			o.AlternativePartNumber,
			numericCell(o.AlternativePrice),
			numericCell(o.PotentialSavings),
			o.SourceURL,
			o.Location,
		}
		if err := f.SetSheetRow(OpportunitiesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write opportunity %d: %w", i, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(OpportunityHeaders))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(OpportunitiesSheet, "A", last, 20); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return f.SetPanes(OpportunitiesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, result *domain.AnalysisResult, labelStyle int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	for i, kv := range summaryRecords(result) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := []interface{}{kv[0], kv[1]}
		if kv[0] == "Total Potential Savings" {
			row[1] = result.TotalPotentialSavings
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	if err := f.SetColStyle(SummarySheet, "A", labelStyle); err != nil {
		return fmt.Errorf("failed to style summary labels: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "B", 28)
}

// numericCell keeps prices numeric in the sheet; absent values stay blank
func numericCell(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}
