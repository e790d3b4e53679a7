package exporter

import (
	"fmt"

	"procurement/pkg/contracts/domain"
)

// OpportunityHeaders is the column order of every opportunity export
var OpportunityHeaders = []string{
	"Part Number",
	"Current Supplier",
	"Price and Trend",
	"Opportunity Type",
	"Description",
	"Material",
	"Current Price",
	"Alternative Supplier",
	"Alternative Part Number",
	"Alternative Price",
	"Potential Savings",
	"Source URL",
	"Location",
}

// formatFloat formats a value with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatOptional renders an absent value as an empty cell
func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// opportunityRecord flattens one opportunity in OpportunityHeaders order
func opportunityRecord(o domain.Opportunity) []string {
	return []string{
		o.PartNumber,
		o.CurrentSupplier,
		o.PriceAndTrend,
		string(o.Type),
		o.Description,
		o.Material,
		formatOptional(o.CurrentPrice),
		o.AlternativeSupplier,
		o.AlternativePartNumber,
		formatOptional(o.AlternativePrice),
		formatOptional(o.PotentialSavings),
		o.SourceURL,
		o.Location,
	}
}

// summaryRecords is the key/value block describing a run
func summaryRecords(result *domain.AnalysisResult) [][]string {
	return [][]string{
		{"Run ID", result.RunID},
		{"Status", string(result.Status)},
		{"Mode", string(result.Mode)},
		{"Target Period", result.TargetPeriod.String()},
		{"Summary", result.Summary},
		{"Renegotiation", fmt.Sprintf("%d", result.Counts.Renegotiation)},
		{"Insourcing", fmt.Sprintf("%d", result.Counts.Insourcing)},
		{"Outsourcing", fmt.Sprintf("%d", result.Counts.Outsourcing)},
		{"Total Potential Savings", formatFloat(result.TotalPotentialSavings)},
		{"Generated At", result.Timestamp.UTC().Format("2006-01-02 15:04:05")},
	}
}
