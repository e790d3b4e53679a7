// Package source provides the row sources the analysis reads from: a Google
// Sheets range, an XLSX workbook, a CSV file or an in-memory table.
// Every source is read-only.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"procurement/internal/config"
	apierrors "procurement/internal/errors"
	"procurement/pkg/contracts/domain"
)

// ErrNotConfigured is returned when a source lacks the settings it needs
var ErrNotConfigured = errors.New("row source not configured")

// RowSource fetches every row of the dataset as header -> raw cell text
type RowSource interface {
	FetchRows(ctx context.Context) (*domain.Table, error)
	// Name identifies the source in logs and readiness checks
	Name() string
}

// New builds the row source selected by configuration
func New(ctx context.Context, cfg *config.Config) (RowSource, error) {
	switch strings.ToLower(cfg.Source.Kind) {
	case config.SourceSheets:
		src, err := NewSheetsSource(ctx, cfg.Sheets)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceXLSX:
		return NewXLSXSource(cfg.Source.Path, cfg.Source.SheetName), nil
	case config.SourceCSV:
		return NewCSVSource(cfg.Source.Path), nil
	default:
		return nil, apierrors.NewConfigError(fmt.Sprintf("unknown row source kind %q", cfg.Source.Kind), ErrNotConfigured).
			WithContext("kind", cfg.Source.Kind)
	}
}

// TableFromGrid turns a header row plus data rows into a Table. Blank
// headers are named column_N, repeated headers keep their first cell, short
// rows are padded and fully blank rows are dropped.
func TableFromGrid(grid [][]string) *domain.Table {
	table := &domain.Table{}
	if len(grid) == 0 {
		return table
	}

	seen := make(map[string]bool, len(grid[0]))
	for i, h := range grid[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if seen[h] {
			h = fmt.Sprintf("%s_%d", h, i+1)
		}
		seen[h] = true
		table.Headers = append(table.Headers, h)
	}

	for _, raw := range grid[1:] {
		if isBlank(raw) {
			continue
		}
		row := make(map[string]string, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(raw) {
				row[h] = raw[i]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// StaticSource serves a fixed table. It backs tests and the CLI.
type StaticSource struct {
	Table *domain.Table
	Err   error
}

// FetchRows returns the fixed table or the configured error
func (s *StaticSource) FetchRows(ctx context.Context) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Table == nil {
		return &domain.Table{}, nil
	}
	return s.Table, nil
}

// Name implements RowSource
func (s *StaticSource) Name() string {
	return "static"
}
