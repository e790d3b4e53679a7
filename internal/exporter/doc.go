// Package exporter writes analysis results to files.
//
// CSVWriter writes one row per opportunity, with a UTF-8 BOM for Excel
// compatibility when writing files. XLSXWriter produces a workbook with an
// Opportunities sheet and a Summary sheet. Export picks the writer from the
// target's extension:
//
//	err := exporter.Export("reports/june.xlsx", result, os.Stdout, logger)
package exporter
