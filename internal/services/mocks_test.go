package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"procurement/pkg/contracts/domain"
)

// MockRowSource is a mock for source.RowSource
type MockRowSource struct {
	mock.Mock
}

func (m *MockRowSource) FetchRows(ctx context.Context) (*domain.Table, error) {
	args := m.Called(ctx)
	table, _ := args.Get(0).(*domain.Table)
	return table, args.Error(1)
}

func (m *MockRowSource) Name() string {
	return "mock"
}

// MockAnalyzer is a mock for Analyzer
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Run(ctx context.Context, table *domain.Table, mode domain.AnalysisMode) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, table, mode)
	result, _ := args.Get(0).(*domain.AnalysisResult)
	return result, args.Error(1)
}

func (m *MockAnalyzer) Target() domain.Period {
	return domain.Period{Year: 2025, Month: 6}
}

// stubLookup answers every query with the same supplier
type stubLookup struct {
	queries []string
}

func (s *stubLookup) Search(_ context.Context, query string) (domain.SearchResult, bool) {
	s.queries = append(s.queries, query)
	return domain.SearchResult{Title: "Delta Metals", URL: "https://delta.example/brackets"}, true
}
