package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"procurement/pkg/contracts/domain"
)

// XLSXSource reads a worksheet of an Excel workbook
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource reads sheet from the workbook at path. An empty sheet name
// selects the first worksheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

// FetchRows opens the workbook on every call so edits are picked up
func (s *XLSXSource) FetchRows(ctx context.Context) (*domain.Table, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%w: xlsx path is empty", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &domain.Table{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return TableFromGrid(rows), nil
}

// Name implements RowSource
func (s *XLSXSource) Name() string {
	return "xlsx"
}

// CSVSource reads a comma-separated file with a header row
type CSVSource struct {
	path string
}

// NewCSVSource reads the CSV file at path
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// FetchRows implements RowSource
func (s *CSVSource) FetchRows(ctx context.Context) (*domain.Table, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%w: csv path is empty", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = trimBOM(records[0][0])
	}
	return TableFromGrid(records), nil
}

// Name implements RowSource
func (s *CSVSource) Name() string {
	return "csv"
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
