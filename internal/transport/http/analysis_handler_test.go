package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"procurement/internal/analysis"
	"procurement/internal/services"
	"procurement/internal/shared/testutil"
	"procurement/pkg/contracts/domain"
)

// MockAnalysisService is a mock implementation of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) RunAnalysis(ctx context.Context, mode domain.AnalysisMode) (*domain.AnalysisResult, error) {
	args := m.Called(mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) GetPart(ctx context.Context, partNumber string) (map[string]string, error) {
	args := m.Called(partNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockAnalysisService) DescribeColumns(ctx context.Context) (*analysis.ColumnReport, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.ColumnReport), args.Error(1)
}

func newTestRouter(t *testing.T, svc AnalysisServiceInterface) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	r := chi.NewRouter()
	r.Route("/api", NewAnalysisHandler(svc, logger, nil).Routes)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func completedResult(mode domain.AnalysisMode) *domain.AnalysisResult {
	savings := 2.0
	return &domain.AnalysisResult{
		RunID:        "run-1",
		Status:       domain.AnalysisStatusCompleted,
		Mode:         mode,
		TargetPeriod: domain.Period{Year: 2025, Month: 6},
		Summary:      "1 opportunity",
		Opportunities: []domain.Opportunity{{
			PartNumber:       "P-100",
			CurrentSupplier:  "Acme",
			PriceAndTrend:    "12.00 (+20.00% vs index)",
			Type:             domain.OpportunityRenegotiation,
			Description:      "Price above index",
			PotentialSavings: &savings,
		}},
		Counts:                domain.OpportunityCounts{Total: 1, Renegotiation: 1},
		TotalPotentialSavings: 2,
		Timestamp:             time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestAnalysisHandler_RunAnalysis_Modes(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		wantMode domain.AnalysisMode
	}{
		{"no body defaults to full", "/api/procurement-analysis", "", domain.AnalysisModeFull},
		{"empty object defaults to full", "/api/procurement-analysis", `{}`, domain.AnalysisModeFull},
		{"body analysis_type", "/api/procurement-analysis", `{"analysis_type":"insourcing"}`, domain.AnalysisModeInsourcing},
		{"query mode", "/api/procurement-analysis?mode=Outsourcing", "", domain.AnalysisModeOutsourcing},
		{"body wins over query", "/api/procurement-analysis?mode=outsourcing", `{"analysis_type":"insourcing"}`, domain.AnalysisModeInsourcing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			svc.On("RunAnalysis", tt.wantMode).Return(completedResult(tt.wantMode), nil).Once()

			w := do(newTestRouter(t, svc), http.MethodPost, tt.target, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			body := decode(t, w)
			assert.Equal(t, string(tt.wantMode), body["mode"])
			assert.Equal(t, "completed", body["status"])
			opps := body["opportunities"].([]interface{})
			require.Len(t, opps, 1)
			assert.Equal(t, "Renegotiation", opps[0].(map[string]interface{})["type"])
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_RunAnalysis_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"unknown query mode", "/api/procurement-analysis?mode=partial", "", http.StatusBadRequest},
		{"unknown body mode", "/api/procurement-analysis", `{"analysis_type":"partial"}`, http.StatusBadRequest},
		{"malformed json", "/api/procurement-analysis", `{"analysis_type":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)

			w := do(newTestRouter(t, svc), http.MethodPost, tt.target, tt.body)

			assert.Equal(t, tt.want, w.Code)
			svc.AssertNotCalled(t, "RunAnalysis", mock.Anything)
		})
	}
}

func TestAnalysisHandler_RunAnalysis_Errors(t *testing.T) {
	failed := &domain.AnalysisResult{
		Status:        domain.AnalysisStatusFailed,
		Mode:          domain.AnalysisModeFull,
		Summary:       "Analysis failed: target price column missing for 2025-06",
		Opportunities: []domain.Opportunity{},
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"source unavailable", services.ErrSourceUnavailable.Wrap(errors.New("sheets: 403")), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "row source unavailable: sheets: 403"},
		{"source timed out", services.ErrSourceUnavailable.Wrap(fmt.Errorf("failed to read from sheets: %w", context.DeadlineExceeded)), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "row source unavailable: failed to read from sheets: context deadline exceeded"},
		{"empty dataset", services.ErrNoData.Wrap(errors.New("source csv returned no rows")), http.StatusNotFound, "NOT_FOUND", "no data found in row source: source csv returned no rows"},
		{"unexpected failure", fmt.Errorf("analysis failed: %w", errors.New("boom")), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "analysis failed: boom"},
		{"configuration failure", services.ErrAnalysisConfiguration.Wrap(analysis.ErrTargetPriceColumnMissing).WithContext("result", failed), http.StatusUnprocessableEntity, "CONFIGURATION_FAILED", "analysis configuration failed: analysis configuration error: target price column missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			svc.On("RunAnalysis", domain.AnalysisModeFull).Return(nil, tt.err)

			w := do(newTestRouter(t, svc), http.MethodPost, "/api/procurement-analysis", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, "/api/procurement-analysis", body["instance"])
			assert.Equal(t, tt.wantDetail, body["detail"])
		})
	}
}

func TestAnalysisHandler_ConfigurationFailureCarriesResult(t *testing.T) {
	failed := &domain.AnalysisResult{
		Status:        domain.AnalysisStatusFailed,
		Mode:          domain.AnalysisModeFull,
		Summary:       "Analysis failed: target price column missing for 2025-06",
		Opportunities: []domain.Opportunity{},
	}
	svc := new(MockAnalysisService)
	svc.On("RunAnalysis", domain.AnalysisModeFull).
		Return(failed, services.ErrAnalysisConfiguration.Wrap(analysis.ErrTargetPriceColumnMissing).WithContext("result", failed))

	w := do(newTestRouter(t, svc), http.MethodPost, "/api/procurement-analysis", "")

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	result, ok := body["result"].(map[string]interface{})
	require.True(t, ok, "problem carries the failed result")
	assert.Equal(t, "failed", result["status"])
	assert.Equal(t, failed.Summary, result["summary"])
	assert.Equal(t, []interface{}{}, result["opportunities"])
}

func TestAnalysisHandler_Parts(t *testing.T) {
	row := map[string]string{"Part Number": "P-100", "Supplier": "Acme"}

	t.Run("benchmark body", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("GetPart", "P-100").Return(row, nil)

		w := do(newTestRouter(t, svc), http.MethodPost, "/api/benchmark1", `{"part_number":"P-100"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"found","data":{"Part Number":"P-100","Supplier":"Acme"}}`, w.Body.String())
	})

	t.Run("path lookup", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("GetPart", "P-100").Return(row, nil)

		w := do(newTestRouter(t, svc), http.MethodGet, "/api/parts/P-100", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "found", decode(t, w)["status"])
	})

	t.Run("missing part number", func(t *testing.T) {
		svc := new(MockAnalysisService)

		w := do(newTestRouter(t, svc), http.MethodPost, "/api/benchmark1", `{"part_number":"   "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_FAILED", decode(t, w)["error_code"])
		svc.AssertNotCalled(t, "GetPart", mock.Anything)
	})

	t.Run("unknown part", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("GetPart", "P-999").Return(nil, services.ErrPartNotFound.Wrap(errors.New("no row")).WithContext("part_number", "P-999"))

		w := do(newTestRouter(t, svc), http.MethodGet, "/api/parts/P-999", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decode(t, w)
		assert.Equal(t, "P-999", body["part_number"])
	})
}

func TestAnalysisHandler_DescribeColumns(t *testing.T) {
	report := analysis.DescribeColumns(testutil.ProcurementHeaders, domain.Period{Year: 2025, Month: 6})
	svc := new(MockAnalysisService)
	svc.On("DescribeColumns").Return(&report, nil)

	w := do(newTestRouter(t, svc), http.MethodGet, "/api/columns", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "Price June 2025", body["target_price_column"])
}

func TestAnalysisHandler_UnsupportedContentType(t *testing.T) {
	svc := new(MockAnalysisService)
	req := httptest.NewRequest(http.MethodPost, "/api/procurement-analysis", strings.NewReader("mode=full"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	newTestRouter(t, svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	svc.AssertNotCalled(t, "RunAnalysis", mock.Anything)
}
