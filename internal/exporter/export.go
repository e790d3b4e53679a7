package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"procurement/pkg/contracts/domain"
)

// Stdout is the output target that writes CSV to the given writer
const Stdout = "-"

// Export writes result to target. The format follows the file extension:
// .xlsx or .csv. Stdout writes CSV to out without a BOM.
func Export(target string, result *domain.AnalysisResult, out io.Writer, logger *slog.Logger) error {
	if result == nil {
		return fmt.Errorf("no result to export")
	}

	if target == Stdout {
		return NewCSVWriter(logger).WriteResult(out, result, false)
	}

	switch strings.ToLower(filepath.Ext(target)) {
	case ".xlsx":
		return NewXLSXWriter(logger).WriteResultFile(target, result)
	case ".csv":
		return NewCSVWriter(logger).WriteResultFile(target, result)
	default:
		return fmt.Errorf("unsupported export format %q: use .xlsx, .csv or -", filepath.Ext(target))
	}
}
