package analysis

import (
	"procurement/pkg/contracts/domain"
)

// ColumnReport describes how a header row is understood for a target period
type ColumnReport struct {
	Target        domain.Period  `json:"target_period"`
	Fields        FieldColumns   `json:"fields"`
	Columns       ColumnRegistry `json:"columns"`
	TargetPrice   string         `json:"target_price_column,omitempty"`
	TargetIndex   string         `json:"target_index_column,omitempty"`
	PreviousPrice string         `json:"previous_price_column,omitempty"`
	// Ready is false when a run for Target would fail with ErrConfiguration
	Ready bool `json:"ready"`
}

// DescribeColumns classifies headers without touching any row
func DescribeColumns(headers []string, target domain.Period) ColumnReport {
	reg := ClassifyColumns(headers)
	report := ColumnReport{
		Target:  target,
		Fields:  ResolveFields(headers),
		Columns: reg,
	}

	if col, ok := reg.PriceAt(target); ok {
		report.TargetPrice = col.Name
	}
	if col, ok := reg.IndexAt(target); ok {
		report.TargetIndex = col.Name
	}
	if col, ok := reg.PreviousPrice(target); ok {
		report.PreviousPrice = col.Name
	}
	report.Ready = report.TargetPrice != "" && report.TargetIndex != ""
	return report
}
