package domain

import (
	"fmt"
	"time"
)

// OpportunityType classifies a cost-saving opportunity
type OpportunityType string

const (
	OpportunityRenegotiation OpportunityType = "Renegotiation"
	OpportunityInsourcing    OpportunityType = "Insourcing"
	OpportunityOutsourcing   OpportunityType = "Outsourcing"
)

// AnalysisMode selects which opportunity types a run produces
type AnalysisMode string

const (
	AnalysisModeFull        AnalysisMode = "full"
	AnalysisModeInsourcing  AnalysisMode = "insourcing"
	AnalysisModeOutsourcing AnalysisMode = "outsourcing"
)

// IsValid reports whether the mode is one of the known modes
func (m AnalysisMode) IsValid() bool {
	switch m {
	case AnalysisModeFull, AnalysisModeInsourcing, AnalysisModeOutsourcing:
		return true
	}
	return false
}

// AnalysisStatus is the terminal state of a run
type AnalysisStatus string

const (
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// Period is a calendar month
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Before reports whether p sorts strictly before other
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// String renders the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Opportunity is a single cost-saving recommendation
type Opportunity struct {
	PartNumber      string          `json:"part_number"`
	CurrentSupplier string          `json:"current_supplier"`
	PriceAndTrend   string          `json:"price_and_trend"`
	Type            OpportunityType `json:"type"`
	Description     string          `json:"description"`

	Material              string   `json:"material,omitempty"`
	Location              string   `json:"location,omitempty"`
	CurrentPrice          *float64 `json:"current_price,omitempty"`
	AlternativeSupplier   string   `json:"alternative_supplier,omitempty"`
	AlternativePartNumber string   `json:"alternative_part_number,omitempty"`
	AlternativePrice      *float64 `json:"alternative_price,omitempty"`
	PotentialSavings      *float64 `json:"potential_savings,omitempty"`
	SourceURL             string   `json:"source_url,omitempty"`
}

// OpportunityCounts tallies opportunities by type
type OpportunityCounts struct {
	Total         int `json:"total"`
	Renegotiation int `json:"renegotiation"`
	Insourcing    int `json:"insourcing"`
	Outsourcing   int `json:"outsourcing"`
}

// AnalysisResult is the outcome of one analysis run
type AnalysisResult struct {
	RunID                 string            `json:"run_id,omitempty"`
	Status                AnalysisStatus    `json:"status"`
	Mode                  AnalysisMode      `json:"mode"`
	TargetPeriod          Period            `json:"target_period"`
	Summary               string            `json:"summary"`
	Opportunities         []Opportunity     `json:"opportunities"`
	Counts                OpportunityCounts `json:"counts"`
	TotalPotentialSavings float64           `json:"total_potential_savings"`
	Timestamp             time.Time         `json:"timestamp"`
}

// Failed reports whether the run aborted
func (r *AnalysisResult) Failed() bool {
	return r.Status == AnalysisStatusFailed
}

// SearchResult is a supplier candidate found by an external lookup
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Table is a raw tabular dataset: ordered headers and one header->cell map per row
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
