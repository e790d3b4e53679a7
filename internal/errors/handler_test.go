package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/infrastructure"
	"procurement/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHandleErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name:       "configuration",
			err:        NewConfigError("analysis configuration failed", errors.New("price column for 2025-06 not found")),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "CONFIGURATION_FAILED",
			wantDetail: "analysis configuration failed: price column for 2025-06 not found",
		},
		{
			name:       "source",
			err:        fmt.Errorf("run: %w", NewSourceError("row source unavailable", errors.New("403"))),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "SERVICE_UNAVAILABLE",
			wantDetail: "row source unavailable: 403",
		},
		{
			name:       "not found",
			err:        NewNotFoundError("data"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantDetail: "data not found",
		},
		{
			name:       "validation",
			err:        NewAppValidationError("invalid analysis mode"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantDetail: "invalid analysis mode",
		},
		{
			name:       "network",
			err:        NewNetworkError("search failed", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_FAILED",
			wantDetail: "search failed",
		},
		{
			name:       "api error",
			err:        New(http.StatusNotFound, "NOT_FOUND", "part PN-1 not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantDetail: "part PN-1 not found",
		},
		{
			name:       "unclassified keeps message",
			err:        errors.New("unexpected nil row"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
			wantDetail: "unexpected nil row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/procurement-analysis", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, tt.wantDetail, body["detail"])
			assert.Equal(t, "trace-1", body["trace_id"])
			assert.Equal(t, "/api/procurement-analysis", body["instance"])
		})
	}
}

func TestHandleErrorContextExtensions(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)
	failed := map[string]interface{}{"status": "failed", "summary": "Analysis failed: x"}
	err := NewConfigError("analysis configuration failed", nil).WithContext("result", failed)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	body := decodeProblem(t, rec)
	assert.Equal(t, failed, body["result"])
}

func TestHandleErrorTimeout(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("fetch: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleErrorSourceTimeoutIsUnavailable(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)
	rec := httptest.NewRecorder()

	cause := fmt.Errorf("failed to read from sheets: %w", context.DeadlineExceeded)
	err := NewSourceError("row source unavailable", nil).Wrap(cause)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/procurement-analysis", nil), err)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeSourceUnavailable, body["type"])
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["error_code"])
	assert.Equal(t, "row source unavailable: failed to read from sheets: context deadline exceeded", body["detail"])
}

func TestHandleErrorLogsLevel(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	h.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), NewNotFoundError("part"))
	h.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))
	h.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1)
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
}

func TestHandleErrorIncludeStack(t *testing.T) {
	h := NewErrorHandler(slog.Default(), true)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	assert.Contains(t, decodeProblem(t, rec), "stack")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method DELETE is not allowed for this endpoint", decodeProblem(t, rec)["detail"])
}
