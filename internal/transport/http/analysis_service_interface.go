package http

import (
	"context"

	"procurement/internal/analysis"
	"procurement/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the interface for analysis operations
type AnalysisServiceInterface interface {
	RunAnalysis(ctx context.Context, mode domain.AnalysisMode) (*domain.AnalysisResult, error)
	GetPart(ctx context.Context, partNumber string) (map[string]string, error)
	DescribeColumns(ctx context.Context) (*analysis.ColumnReport, error)
}
